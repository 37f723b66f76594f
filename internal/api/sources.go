package api

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/codes"
)

// DriveMimeDocument is the default MIME type for Drive sources.
const DriveMimeDocument = "application/vnd.google-apps.document"

// Source is one notebook source with its type metadata.
type Source struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	TypeCode   int    `json:"source_type"`
	TypeName   string `json:"source_type_name"`
	URL        string `json:"url,omitempty"`
	DriveDocID string `json:"drive_doc_id,omitempty"`
	CanSync    bool   `json:"can_sync"`
}

// AddedSource identifies a source after ingestion.
type AddedSource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SyncedSource reports the outcome of a Drive sync.
type SyncedSource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SyncedAt int64  `json:"synced_at,omitempty"`
}

// addSourceTail is the trailing options array shared by all source-add
// variants.
func addSourceTail() []any {
	return []any{1, nil, nil, nil, nil, nil, nil, nil, nil, nil, []any{1}}
}

// AddURLSource ingests a web page or YouTube video. Ingestion of large
// pages can outlive the timeout and still succeed server side; a
// TimeoutError from this method means "verify before retrying".
func (c *Client) AddURLSource(ctx context.Context, notebookID, url string) (AddedSource, error) {
	if url == "" {
		return AddedSource{}, &ValidationError{Message: "url must not be empty"}
	}

	// YouTube URLs ride at position 7, everything else at position 2.
	var sourceData []any
	if isYouTubeURL(url) {
		sourceData = []any{nil, nil, nil, nil, nil, nil, nil, []any{url}, nil, nil, 1}
	} else {
		sourceData = []any{nil, nil, []any{url}, nil, nil, nil, nil, nil, nil, nil, 1}
	}
	return c.addSource(ctx, notebookID, sourceData)
}

// AddTextSource ingests pasted text under the given title.
func (c *Client) AddTextSource(ctx context.Context, notebookID, text, title string) (AddedSource, error) {
	if text == "" {
		return AddedSource{}, &ValidationError{Message: "text must not be empty"}
	}
	if title == "" {
		title = "Pasted Text"
	}
	sourceData := []any{nil, []any{title, text}, nil, 2, nil, nil, nil, nil, nil, nil, 1}
	return c.addSource(ctx, notebookID, sourceData)
}

// AddDriveSource ingests a Google Drive document by its document id.
// mimeType defaults to a Google Doc.
func (c *Client) AddDriveSource(ctx context.Context, notebookID, documentID, title, mimeType string) (AddedSource, error) {
	if documentID == "" {
		return AddedSource{}, &ValidationError{Message: "document id must not be empty"}
	}
	if mimeType == "" {
		mimeType = DriveMimeDocument
	}
	sourceData := []any{[]any{documentID, mimeType, 1, title},
		nil, nil, nil, nil, nil, nil, nil, nil, nil, 1}
	return c.addSource(ctx, notebookID, sourceData)
}

func (c *Client) addSource(ctx context.Context, notebookID string, sourceData []any) (AddedSource, error) {
	params := []any{[]any{sourceData}, notebookID, []any{2}, addSourceTail()}
	result, ok, err := c.call(ctx, rpcAddSource, params, "/notebook/"+notebookID, sourceAddTimeout)
	if err != nil {
		return AddedSource{}, err
	}
	if !ok {
		return AddedSource{}, fmt.Errorf("add source: empty response")
	}

	src := result.Get("0.0")
	added := AddedSource{
		ID:    src.Get("0.0").String(),
		Title: src.Get("1").String(),
	}
	if added.ID == "" {
		return AddedSource{}, fmt.Errorf("add source: no source id in response")
	}
	return added, nil
}

// DeleteSource permanently removes a source from its notebook. There is no
// undo.
func (c *Client) DeleteSource(ctx context.Context, sourceID string) error {
	params := []any{[]any{[]any{sourceID}}, []any{2}}
	_, ok, err := c.call(ctx, rpcDeleteSource, params, "/", defaultRPCTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("delete source %s: empty response", sourceID)
	}
	return nil
}

// CheckSourceFreshness reports whether a Drive source is up to date with
// its Drive document. known is false when the backend did not answer.
func (c *Client) CheckSourceFreshness(ctx context.Context, sourceID string) (fresh, known bool, err error) {
	params := []any{nil, []any{sourceID}, []any{2}}
	result, ok, err := c.call(ctx, rpcCheckFreshness, params, "/", defaultRPCTimeout)
	if err != nil {
		return false, false, err
	}
	inner := result.Get("0")
	if !ok || !inner.IsArray() || len(inner.Array()) < 2 {
		return false, false, nil
	}
	return inner.Get("1").Bool(), true, nil
}

// SyncDriveSource re-ingests a Drive source from its current Drive
// content.
func (c *Client) SyncDriveSource(ctx context.Context, sourceID string) (SyncedSource, error) {
	params := []any{nil, []any{sourceID}, []any{2}}
	result, ok, err := c.call(ctx, rpcSyncDrive, params, "/", defaultRPCTimeout)
	if err != nil {
		return SyncedSource{}, err
	}
	if !ok {
		return SyncedSource{}, fmt.Errorf("sync source %s: empty response", sourceID)
	}

	src := result.Get("0")
	synced := SyncedSource{
		ID:    src.Get("0.0").String(),
		Title: src.Get("1").String(),
		// The sync timestamp sits in metadata position 3.
		SyncedAt: src.Get("2.3.1.0").Int(),
	}
	if synced.ID == "" {
		return SyncedSource{}, fmt.Errorf("sync source %s: unexpected response shape", sourceID)
	}
	return synced, nil
}

// SourceFulltext is the text the backend indexed for a source, with its
// title and type metadata.
type SourceFulltext struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	TypeCode  int    `json:"source_type"`
	TypeName  string `json:"source_type_name"`
	URL       string `json:"url,omitempty"`
	Content   string `json:"content"`
	CharCount int    `json:"char_count"`
}

// SourceFulltext returns the indexed text content of a source. The content
// arrives as positioned blocks of nested arrays; the text is whatever
// strings they carry, in order.
func (c *Client) SourceFulltext(ctx context.Context, sourceID string) (SourceFulltext, error) {
	params := []any{[]any{sourceID}, []any{2}, []any{2}}
	result, ok, err := c.call(ctx, rpcGetSource, params, "/", defaultRPCTimeout)
	if err != nil {
		return SourceFulltext{}, err
	}
	if !ok {
		return SourceFulltext{}, fmt.Errorf("get source %s: empty response", sourceID)
	}

	meta := result.Get("0.2")
	full := SourceFulltext{
		ID:       sourceID,
		Title:    result.Get("0.1").String(),
		TypeCode: int(meta.Get("4").Int()),
		URL:      meta.Get("7.0").String(),
	}
	full.TypeName = codes.SourceTypes.Name(full.TypeCode)

	var parts []string
	for _, block := range result.Get("3.0").Array() {
		if block.IsArray() {
			parts = append(parts, collectStrings(block)...)
		}
	}
	full.Content = strings.Join(parts, "\n\n")
	full.CharCount = utf8.RuneCountInString(full.Content)
	return full, nil
}

// collectStrings walks nested arrays collecting every non-empty string.
func collectStrings(v gjson.Result) []string {
	var texts []string
	for _, item := range v.Array() {
		switch {
		case item.Type == gjson.String && item.String() != "":
			texts = append(texts, item.String())
		case item.IsArray():
			texts = append(texts, collectStrings(item)...)
		}
	}
	return texts
}

// NotebookSources returns a notebook's sources with their type metadata,
// including whether each can be synced from Drive.
func (c *Client) NotebookSources(ctx context.Context, notebookID string) ([]Source, error) {
	result, err := c.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}

	data := result.Get("0")
	if !data.IsArray() {
		data = result
	}
	var sources []Source
	for _, item := range data.Get("1").Array() {
		src := parseSource(item)
		if src.ID != "" {
			sources = append(sources, src)
		}
	}
	return sources, nil
}

// parseSource decodes one source entry: [[id], title, metadata, ...] with
// the type code at metadata position 4 and the URL at position 7.
func parseSource(item gjson.Result) Source {
	meta := item.Get("2")
	src := Source{
		ID:         item.Get("0.0").String(),
		Title:      item.Get("1").String(),
		TypeCode:   int(meta.Get("4").Int()),
		URL:        meta.Get("7.0").String(),
		DriveDocID: meta.Get("0.0").String(),
	}
	src.TypeName = codes.SourceTypes.Name(src.TypeCode)
	src.CanSync = src.DriveDocID != "" &&
		(src.TypeCode == codes.SourceTypeGoogleDocs || src.TypeCode == codes.SourceTypeGoogleOther)
	return src
}

func isYouTubeURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be")
}
