package api

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/codes"
)

// maxCustomPromptChars is the backend's limit on custom chat prompts.
const maxCustomPromptChars = 10000

// SourceRef is the short source listing embedded in notebook metadata.
type SourceRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Notebook is one notebook as reported by the listing RPC.
type Notebook struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	SourceCount int         `json:"source_count"`
	Sources     []SourceRef `json:"sources,omitempty"`
	Owned       bool        `json:"owned"`
	Shared      bool        `json:"shared"`
	CreatedAt   string      `json:"created_at,omitempty"`
	ModifiedAt  string      `json:"modified_at,omitempty"`
}

// URL returns the notebook's web app address.
func (n Notebook) URL() string {
	return DefaultBaseURL + "/notebook/" + n.ID
}

// Ownership returns "owned" or "shared_with_me".
func (n Notebook) Ownership() string {
	if n.Owned {
		return "owned"
	}
	return "shared_with_me"
}

// Topic is one suggested question from the notebook summary.
type Topic struct {
	Question string `json:"question"`
	Prompt   string `json:"prompt"`
}

// NotebookSummary is the AI-generated overview of a notebook.
type NotebookSummary struct {
	Summary         string  `json:"summary"`
	SuggestedTopics []Topic `json:"suggested_topics,omitempty"`
}

// SourceGuide is the AI-generated overview of a single source.
type SourceGuide struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
}

// ChatConfig reports the chat settings applied by ConfigureChat.
type ChatConfig struct {
	NotebookID     string `json:"notebook_id"`
	Goal           string `json:"goal"`
	CustomPrompt   string `json:"custom_prompt,omitempty"`
	ResponseLength string `json:"response_length"`
}

// parseTimestamp converts a [seconds, nanos] array to an ISO 8601 string,
// empty when the value does not look like a timestamp.
func parseTimestamp(v gjson.Result) string {
	if !v.IsArray() {
		return ""
	}
	parts := v.Array()
	if len(parts) == 0 || parts[0].Type != gjson.Number {
		return ""
	}
	return time.Unix(parts[0].Int(), 0).UTC().Format("2006-01-02T15:04:05Z")
}

// ListNotebooks returns all notebooks visible to the account, owned and
// shared.
func (c *Client) ListNotebooks(ctx context.Context) ([]Notebook, error) {
	params := []any{nil, 1, nil, []any{2}}
	result, ok, err := c.call(ctx, rpcListNotebooks, params, "/", defaultRPCTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	list := result.Get("0")
	if !list.IsArray() {
		list = result
	}
	var notebooks []Notebook
	for _, item := range list.Array() {
		nb := parseNotebook(item)
		if nb.ID != "" {
			notebooks = append(notebooks, nb)
		}
	}
	return notebooks, nil
}

// parseNotebook decodes one listing entry. Layout: [title, sources, id,
// emoji, null, metadata] where metadata[0] is ownership, metadata[5] and
// metadata[8] are modified and created timestamps.
func parseNotebook(item gjson.Result) Notebook {
	nb := Notebook{
		Title: item.Get("0").String(),
		ID:    item.Get("2").String(),
		Owned: true,
	}
	if nb.Title == "" {
		nb.Title = "Untitled"
	}

	if meta := item.Get("5"); meta.IsArray() {
		nb.Owned = meta.Get("0").Int() == codes.OwnershipMine
		nb.Shared = meta.Get("1").Bool()
		nb.ModifiedAt = parseTimestamp(meta.Get("5"))
		nb.CreatedAt = parseTimestamp(meta.Get("8"))
	}

	for _, src := range item.Get("1").Array() {
		id := src.Get("0.0").String()
		if id == "" {
			id = src.Get("0").String()
		}
		nb.Sources = append(nb.Sources, SourceRef{
			ID:    id,
			Title: src.Get("1").String(),
		})
	}
	nb.SourceCount = len(nb.Sources)
	return nb
}

// GetNotebook fetches the raw notebook detail payload. Consumers pick out
// the positions they need; see NotebookSources for the typed source view.
func (c *Client) GetNotebook(ctx context.Context, notebookID string) (gjson.Result, error) {
	params := []any{notebookID, nil, []any{2}, nil, 0}
	result, ok, err := c.call(ctx, rpcGetNotebook, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return gjson.Result{}, err
	}
	if !ok {
		return gjson.Result{}, fmt.Errorf("notebook %s not found", notebookID)
	}
	return result, nil
}

// CreateNotebook creates an empty notebook and returns it.
func (c *Client) CreateNotebook(ctx context.Context, title string) (Notebook, error) {
	params := []any{title, nil, nil, []any{2},
		[]any{1, nil, nil, nil, nil, nil, nil, nil, nil, nil, []any{1}}}
	result, ok, err := c.call(ctx, rpcCreateNotebook, params, "/", defaultRPCTimeout)
	if err != nil {
		return Notebook{}, err
	}
	id := result.Get("2").String()
	if !ok || id == "" {
		return Notebook{}, fmt.Errorf("create notebook: no notebook id in response")
	}
	if title == "" {
		title = "Untitled notebook"
	}
	return Notebook{ID: id, Title: title, Owned: true}, nil
}

// RenameNotebook changes a notebook's title.
func (c *Client) RenameNotebook(ctx context.Context, notebookID, newTitle string) error {
	params := []any{notebookID, []any{[]any{nil, nil, nil, []any{nil, newTitle}}}}
	_, ok, err := c.call(ctx, rpcRenameNotebook, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("rename notebook %s: empty response", notebookID)
	}
	return nil
}

// DeleteNotebook permanently deletes a notebook with everything in it.
// There is no undo.
func (c *Client) DeleteNotebook(ctx context.Context, notebookID string) error {
	params := []any{[]any{notebookID}, []any{2}}
	_, ok, err := c.call(ctx, rpcDeleteNotebook, params, "/", defaultRPCTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("delete notebook %s: empty response", notebookID)
	}
	return nil
}

// NotebookSummary fetches the AI-generated summary and suggested question
// topics for a notebook.
func (c *Client) NotebookSummary(ctx context.Context, notebookID string) (NotebookSummary, error) {
	params := []any{notebookID, []any{2}}
	result, ok, err := c.call(ctx, rpcGetSummary, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return NotebookSummary{}, err
	}
	if !ok {
		return NotebookSummary{}, nil
	}

	summary := NotebookSummary{Summary: result.Get("0.0").String()}
	for _, topic := range result.Get("1.0").Array() {
		if topic.Get("1").Exists() {
			summary.SuggestedTopics = append(summary.SuggestedTopics, Topic{
				Question: topic.Get("0").String(),
				Prompt:   topic.Get("1").String(),
			})
		}
	}
	return summary, nil
}

// SourceGuide fetches the AI-generated summary and keyword chips for a
// source.
func (c *Client) SourceGuide(ctx context.Context, sourceID string) (SourceGuide, error) {
	params := []any{[]any{[]any{[]any{sourceID}}}}
	result, ok, err := c.call(ctx, rpcGetSourceGuide, params, "/", defaultRPCTimeout)
	if err != nil {
		return SourceGuide{}, err
	}
	if !ok {
		return SourceGuide{}, nil
	}

	inner := result.Get("0.0")
	guide := SourceGuide{Summary: inner.Get("1.0").String()}
	for _, kw := range inner.Get("2.0").Array() {
		guide.Keywords = append(guide.Keywords, kw.String())
	}
	return guide, nil
}

// ConfigureChat sets the chat goal and response length for a notebook. A
// custom goal requires a prompt of at most 10000 characters.
func (c *Client) ConfigureChat(ctx context.Context, notebookID, goal, customPrompt, responseLength string) (ChatConfig, error) {
	goalCode, err := codes.ChatGoals.Code(goal)
	if err != nil {
		return ChatConfig{}, &ValidationError{Message: err.Error()}
	}
	lengthCode, err := codes.ChatResponseLengths.Code(responseLength)
	if err != nil {
		return ChatConfig{}, &ValidationError{Message: err.Error()}
	}

	isCustom := goalCode == codes.ChatGoalCustom
	if isCustom {
		if customPrompt == "" {
			return ChatConfig{}, &ValidationError{Message: "custom_prompt is required when goal is custom"}
		}
		if len(customPrompt) > maxCustomPromptChars {
			return ChatConfig{}, &ValidationError{
				Message: fmt.Sprintf("custom_prompt exceeds %d chars (got %d)", maxCustomPromptChars, len(customPrompt)),
			}
		}
	}

	goalSetting := []any{goalCode}
	if isCustom {
		goalSetting = []any{goalCode, customPrompt}
	}
	chatSettings := []any{goalSetting, []any{lengthCode}}
	params := []any{notebookID, []any{[]any{nil, nil, nil, nil, nil, nil, nil, chatSettings}}}

	_, ok, err := c.call(ctx, rpcRenameNotebook, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return ChatConfig{}, err
	}
	if !ok {
		return ChatConfig{}, fmt.Errorf("configure chat for %s: empty response", notebookID)
	}

	cfg := ChatConfig{
		NotebookID:     notebookID,
		Goal:           goal,
		ResponseLength: responseLength,
	}
	if isCustom {
		cfg.CustomPrompt = customPrompt
	}
	return cfg, nil
}
