package api

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/codes"
)

// pollStudioFilter excludes the backend's own suggested artifacts from
// poll results.
const pollStudioFilter = `NOT artifact.status = "ARTIFACT_STATUS_SUGGESTED"`

// Artifact statuses reported by PollStudio.
const (
	ArtifactInProgress = "in_progress"
	ArtifactCompleted  = "completed"
	ArtifactUnknown    = "unknown"
)

// Artifact is one studio artifact (audio overview, video overview or
// report) with whatever payload its type carries once completed.
type Artifact struct {
	ID        string `json:"artifact_id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`

	AudioURL        string `json:"audio_url,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
	ReportContent   string `json:"report_content,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

// CreatedArtifact reports a freshly requested artifact. Generation runs
// asynchronously; poll for completion.
type CreatedArtifact struct {
	ArtifactID string `json:"artifact_id"`
	NotebookID string `json:"notebook_id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Format     string `json:"format,omitempty"`
	Length     string `json:"length,omitempty"`
	Style      string `json:"style,omitempty"`
	Language   string `json:"language,omitempty"`
}

// reportFormat carries the preset title, description and generation prompt
// for one report flavor.
type reportFormat struct {
	title       string
	description string
	prompt      string
}

var reportFormats = map[string]reportFormat{
	"briefing_doc": {
		title:       "Briefing Doc",
		description: "Key insights and important quotes",
		prompt: "Create a comprehensive briefing document that includes an " +
			"Executive Summary, detailed analysis of key themes, important " +
			"quotes with context, and actionable insights.",
	},
	"study_guide": {
		title:       "Study Guide",
		description: "Short-answer quiz, essay questions, glossary",
		prompt: "Create a comprehensive study guide that includes key concepts, " +
			"short-answer practice questions, essay prompts for deeper " +
			"exploration, and a glossary of important terms.",
	},
	"blog_post": {
		title:       "Blog Post",
		description: "Insightful takeaways in readable article format",
		prompt: "Write an engaging blog post that presents the key insights " +
			"in an accessible, reader-friendly format. Include an attention-" +
			"grabbing introduction, well-organized sections, and a compelling " +
			"conclusion with takeaways.",
	},
	"custom": {
		title:       "Custom Report",
		description: "Custom format",
	},
}

// ReportFormats are the valid report format names.
var ReportFormats = codes.NewMapper("report format", map[string]int{
	"briefing_doc": 1,
	"study_guide":  2,
	"blog_post":    3,
	"custom":       4,
})

// CreateAudioOverview requests a podcast-style audio overview over the
// given sources. focusPrompt steers the discussion and may be empty.
func (c *Client) CreateAudioOverview(ctx context.Context, notebookID string, sourceIDs []string, format, length, language, focusPrompt string) (CreatedArtifact, error) {
	formatCode, err := codes.AudioFormats.Code(format)
	if err != nil {
		return CreatedArtifact{}, &ValidationError{Message: err.Error()}
	}
	lengthCode, err := codes.AudioLengths.Code(length)
	if err != nil {
		return CreatedArtifact{}, &ValidationError{Message: err.Error()}
	}
	if len(sourceIDs) == 0 {
		return CreatedArtifact{}, &ValidationError{Message: "at least one source id is required"}
	}
	if language == "" {
		language = "en"
	}

	audioOptions := []any{nil, []any{
		focusPrompt, lengthCode, nil, simpleSourceIDs(sourceIDs), language, nil, formatCode,
	}}
	content := []any{nil, nil, codes.StudioTypeAudio, nestedSourceIDs(sourceIDs),
		nil, nil, audioOptions}

	created, err := c.createStudio(ctx, notebookID, content)
	if err != nil {
		return CreatedArtifact{}, err
	}
	created.Type = "audio"
	created.Format = format
	created.Length = length
	created.Language = language
	return created, nil
}

// CreateVideoOverview requests a video overview over the given sources.
func (c *Client) CreateVideoOverview(ctx context.Context, notebookID string, sourceIDs []string, format, style, language, focusPrompt string) (CreatedArtifact, error) {
	formatCode, err := codes.VideoFormats.Code(format)
	if err != nil {
		return CreatedArtifact{}, &ValidationError{Message: err.Error()}
	}
	styleCode, err := codes.VideoStyles.Code(style)
	if err != nil {
		return CreatedArtifact{}, &ValidationError{Message: err.Error()}
	}
	if len(sourceIDs) == 0 {
		return CreatedArtifact{}, &ValidationError{Message: "at least one source id is required"}
	}
	if language == "" {
		language = "en"
	}

	videoOptions := []any{nil, nil, []any{
		simpleSourceIDs(sourceIDs), language, focusPrompt, nil, formatCode, styleCode,
	}}
	content := []any{nil, nil, codes.StudioTypeVideo, nestedSourceIDs(sourceIDs),
		nil, nil, nil, nil, videoOptions}

	created, err := c.createStudio(ctx, notebookID, content)
	if err != nil {
		return CreatedArtifact{}, err
	}
	created.Type = "video"
	created.Format = format
	created.Style = style
	created.Language = language
	return created, nil
}

// CreateReport requests a written report over the given sources. A custom
// format takes its generation prompt from customPrompt.
func (c *Client) CreateReport(ctx context.Context, notebookID string, sourceIDs []string, format, customPrompt, language string) (CreatedArtifact, error) {
	if _, err := ReportFormats.Code(format); err != nil {
		return CreatedArtifact{}, &ValidationError{Message: err.Error()}
	}
	if len(sourceIDs) == 0 {
		return CreatedArtifact{}, &ValidationError{Message: "at least one source id is required"}
	}
	if language == "" {
		language = "en"
	}

	preset := reportFormats[format]
	prompt := preset.prompt
	if prompt == "" {
		prompt = customPrompt
		if prompt == "" {
			prompt = "Create a report based on the provided sources."
		}
	}

	reportOptions := []any{nil, []any{
		preset.title, preset.description, nil, simpleSourceIDs(sourceIDs),
		language, prompt, nil, true,
	}}
	content := []any{nil, nil, codes.StudioTypeReport, nestedSourceIDs(sourceIDs),
		nil, nil, nil, reportOptions}

	created, err := c.createStudio(ctx, notebookID, content)
	if err != nil {
		return CreatedArtifact{}, err
	}
	created.Type = "report"
	created.Format = format
	created.Language = language
	return created, nil
}

func (c *Client) createStudio(ctx context.Context, notebookID string, content []any) (CreatedArtifact, error) {
	params := []any{[]any{2}, notebookID, content}
	result, ok, err := c.call(ctx, rpcCreateStudio, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return CreatedArtifact{}, err
	}
	artifact := result.Get("0")
	id := artifact.Get("0").String()
	if !ok || id == "" {
		return CreatedArtifact{}, fmt.Errorf("create studio artifact: no artifact id in response")
	}
	return CreatedArtifact{
		ArtifactID: id,
		NotebookID: notebookID,
		Status:     artifactStatus(artifact.Get("4")),
	}, nil
}

// PollStudio lists the notebook's studio artifacts with their generation
// state and, once completed, their media URLs or report content.
func (c *Client) PollStudio(ctx context.Context, notebookID string) ([]Artifact, error) {
	params := []any{[]any{2}, notebookID, pollStudioFilter}
	result, ok, err := c.call(ctx, rpcPollStudio, params, "/notebook/"+notebookID, defaultRPCTimeout)
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
	var artifacts []Artifact
	for _, item := range list.Array() {
		if a := parseArtifact(item); a.ID != "" {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, nil
}

// parseArtifact decodes one poll entry: [id, title, type, _, status, ...]
// with type-specific payloads further out (audio options at 6, report at
// 7, video at 8).
func parseArtifact(item gjson.Result) Artifact {
	if !item.IsArray() || len(item.Array()) < 5 {
		return Artifact{}
	}
	typeCode := int(item.Get("2").Int())
	a := Artifact{
		ID:     item.Get("0").String(),
		Title:  item.Get("1").String(),
		Type:   codes.StudioTypes.Name(typeCode),
		Status: artifactStatus(item.Get("4")),
	}

	switch typeCode {
	case codes.StudioTypeAudio:
		opts := item.Get("6")
		if url := opts.Get("3"); url.Type == gjson.String {
			a.AudioURL = url.String()
		}
		a.DurationSeconds = opts.Get("9.0").Int()
	case codes.StudioTypeVideo:
		if url := item.Get("8.3"); url.Type == gjson.String {
			a.VideoURL = url.String()
		}
	case codes.StudioTypeReport:
		if content := item.Get("7.1.0"); content.Type == gjson.String {
			a.ReportContent = content.String()
		}
	}

	// The created-at timestamp floats between positions depending on type.
	for _, pos := range []string{"10", "15", "17"} {
		ts := item.Get(pos)
		if ts.IsArray() && ts.Get("0").Int() > 1700000000 {
			a.CreatedAt = parseTimestamp(ts)
			break
		}
	}
	return a
}

func artifactStatus(code gjson.Result) string {
	switch code.Int() {
	case codes.ArtifactStatusInProgress:
		return ArtifactInProgress
	case codes.ArtifactStatusCompleted:
		return ArtifactCompleted
	}
	return ArtifactUnknown
}

// DeleteArtifact permanently deletes a studio artifact. There is no undo.
func (c *Client) DeleteArtifact(ctx context.Context, artifactID string) error {
	params := []any{[]any{2}, artifactID}
	_, ok, err := c.call(ctx, rpcDeleteStudio, params, "/", defaultRPCTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("delete artifact %s: empty response", artifactID)
	}
	return nil
}
