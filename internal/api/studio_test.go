package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func createStudioHandler(t *testing.T, captured *string) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*captured = string(body)
		io.WriteString(w, rpcResponse(t, rpcCreateStudio, []any{
			[]any{"artifact-1", "Untitled", 1, nil, 1},
		}))
	})
	return mux
}

func TestCreateAudioOverviewParams(t *testing.T) {
	t.Parallel()

	var captured string
	c := newTestClient(t, createStudioHandler(t, &captured))

	created, err := c.CreateAudioOverview(context.Background(), "nb-1",
		[]string{"src-1", "src-2"}, "deep_dive", "long", "", "focus on chapter 3")
	require.NoError(t, err)
	require.Equal(t, "artifact-1", created.ArtifactID)
	require.Equal(t, "audio", created.Type)
	require.Equal(t, ArtifactInProgress, created.Status)
	require.Equal(t, "en", created.Language)

	params := decodeRPCParams(t, captured)
	content := params.Get("2")
	require.Equal(t, int64(1), content.Get("2").Int(), "studio type audio")
	require.Equal(t, "src-1", content.Get("3.0.0.0").String())

	opts := content.Get("6.1")
	require.Equal(t, "focus on chapter 3", opts.Get("0").String())
	require.Equal(t, int64(3), opts.Get("1").Int(), "length long")
	require.Equal(t, "src-1", opts.Get("3.0.0").String())
	require.Equal(t, "en", opts.Get("4").String())
	require.Equal(t, int64(1), opts.Get("6").Int(), "format deep_dive")
}

func TestCreateVideoOverviewParams(t *testing.T) {
	t.Parallel()

	var captured string
	c := newTestClient(t, createStudioHandler(t, &captured))

	created, err := c.CreateVideoOverview(context.Background(), "nb-1",
		[]string{"src-1"}, "explainer", "whiteboard", "en", "")
	require.NoError(t, err)
	require.Equal(t, "video", created.Type)
	require.Equal(t, "whiteboard", created.Style)

	content := decodeRPCParams(t, captured).Get("2")
	require.Equal(t, int64(3), content.Get("2").Int(), "studio type video")

	opts := content.Get("8.2")
	require.Equal(t, "src-1", opts.Get("0.0.0").String())
	require.Equal(t, int64(1), opts.Get("4").Int(), "format explainer")
	require.Equal(t, int64(4), opts.Get("5").Int(), "style whiteboard")
}

func TestCreateReportParams(t *testing.T) {
	t.Parallel()

	var captured string
	c := newTestClient(t, createStudioHandler(t, &captured))

	created, err := c.CreateReport(context.Background(), "nb-1",
		[]string{"src-1"}, "study_guide", "", "en")
	require.NoError(t, err)
	require.Equal(t, "report", created.Type)

	content := decodeRPCParams(t, captured).Get("2")
	require.Equal(t, int64(2), content.Get("2").Int(), "studio type report")

	opts := content.Get("7.1")
	require.Equal(t, "Study Guide", opts.Get("0").String())
	require.Contains(t, opts.Get("5").String(), "study guide")
	require.True(t, opts.Get("7").Bool())
}

func TestCreateReportCustomPrompt(t *testing.T) {
	t.Parallel()

	var captured string
	c := newTestClient(t, createStudioHandler(t, &captured))

	_, err := c.CreateReport(context.Background(), "nb-1",
		[]string{"src-1"}, "custom", "Summarize for executives", "en")
	require.NoError(t, err)

	opts := decodeRPCParams(t, captured).Get("2.7.1")
	require.Equal(t, "Custom Report", opts.Get("0").String())
	require.Equal(t, "Summarize for executives", opts.Get("5").String())
}

func TestCreateStudioValidation(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.NewServeMux())
	ctx := context.Background()
	sources := []string{"src-1"}

	var ve *ValidationError
	_, err := c.CreateAudioOverview(ctx, "nb-1", sources, "symphony", "default", "en", "")
	require.ErrorAs(t, err, &ve)
	_, err = c.CreateAudioOverview(ctx, "nb-1", nil, "deep_dive", "default", "en", "")
	require.ErrorAs(t, err, &ve)
	_, err = c.CreateVideoOverview(ctx, "nb-1", sources, "explainer", "impressionist", "en", "")
	require.ErrorAs(t, err, &ve)
	_, err = c.CreateReport(ctx, "nb-1", sources, "novella", "", "en")
	require.ErrorAs(t, err, &ve)
	require.Contains(t, err.Error(), "blog_post, briefing_doc, custom, study_guide")
}

func TestPollStudioParsesArtifacts(t *testing.T) {
	t.Parallel()

	payload := []any{[]any{
		[]any{
			"artifact-audio", "Deep Dive", 1, nil, 3, nil,
			[]any{nil, nil, nil, "https://cdn.example.com/audio.mp3", nil, nil, nil, nil, nil, []any{754, 0}},
			nil, nil, nil,
			[]any{1700000600, 0},
		},
		[]any{
			"artifact-video", "Explainer", 3, nil, 1, nil, nil, nil,
			[]any{nil, nil, nil, "https://cdn.example.com/video.mp4"},
		},
		[]any{
			"artifact-report", "Briefing Doc", 2, nil, 3, nil, nil,
			[]any{nil, []any{"# Briefing\n\nContent."}},
		},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, rpcResponse(t, rpcPollStudio, payload))
	})

	c := newTestClient(t, mux)
	artifacts, err := c.PollStudio(context.Background(), "nb-1")
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	audio := artifacts[0]
	require.Equal(t, "artifact-audio", audio.ID)
	require.Equal(t, "audio", audio.Type)
	require.Equal(t, ArtifactCompleted, audio.Status)
	require.Equal(t, "https://cdn.example.com/audio.mp3", audio.AudioURL)
	require.Equal(t, int64(754), audio.DurationSeconds)
	require.Equal(t, "2023-11-14T22:23:20Z", audio.CreatedAt)

	video := artifacts[1]
	require.Equal(t, "video", video.Type)
	require.Equal(t, ArtifactInProgress, video.Status)
	require.Equal(t, "https://cdn.example.com/video.mp4", video.VideoURL)

	report := artifacts[2]
	require.Equal(t, "report", report.Type)
	require.Equal(t, "# Briefing\n\nContent.", report.ReportContent)
}

func TestDeleteArtifact(t *testing.T) {
	t.Parallel()

	var captured string
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = string(body)
		io.WriteString(w, rpcResponse(t, rpcDeleteStudio, []any{}))
	})

	c := newTestClient(t, mux)
	require.NoError(t, c.DeleteArtifact(context.Background(), "artifact-1"))

	params := decodeRPCParams(t, captured)
	require.Equal(t, "artifact-1", params.Get("1").String())
}
