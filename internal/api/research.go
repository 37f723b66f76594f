package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/codes"
)

// Research statuses reported by PollResearch.
const (
	ResearchInProgress = "in_progress"
	ResearchCompleted  = "completed"
)

// importTimeout covers research imports, which fetch every selected source
// server side.
const importTimeout = 120 * time.Second

// ResearchTask identifies a started research session.
type ResearchTask struct {
	TaskID     string `json:"task_id"`
	ReportID   string `json:"report_id,omitempty"`
	NotebookID string `json:"notebook_id"`
	Query      string `json:"query"`
	Source     string `json:"source"`
	Mode       string `json:"mode"`
}

// ResearchResult is one discovered source candidate.
type ResearchResult struct {
	Index          int    `json:"index"`
	URL            string `json:"url,omitempty"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	ResultType     int    `json:"result_type"`
	ResultTypeName string `json:"result_type_name"`
}

// ResearchStatus is a research task's current state.
type ResearchStatus struct {
	TaskID     string           `json:"task_id"`
	Status     string           `json:"status"`
	Query      string           `json:"query"`
	SourceType string           `json:"source_type"`
	Mode       string           `json:"mode"`
	Sources    []ResearchResult `json:"sources"`
	Summary    string           `json:"summary,omitempty"`
	Report     string           `json:"report,omitempty"`
}

// Done reports whether the task reached a terminal state.
func (s *ResearchStatus) Done() bool { return s.Status == ResearchCompleted }

// StartResearch kicks off source discovery. source is "web" or "drive",
// mode "fast" or "deep"; deep research only supports web.
func (c *Client) StartResearch(ctx context.Context, notebookID, query, source, mode string) (ResearchTask, error) {
	sourceCode, err := codes.ResearchSources.Code(source)
	if err != nil {
		return ResearchTask{}, &ValidationError{Message: err.Error()}
	}
	modeCode, err := codes.ResearchModes.Code(mode)
	if err != nil {
		return ResearchTask{}, &ValidationError{Message: err.Error()}
	}
	if modeCode == codes.ResearchModeDeep && sourceCode == codes.ResearchSourceDrive {
		return ResearchTask{}, &ValidationError{Message: "deep research only supports web sources; use fast mode for drive"}
	}

	var (
		rpcID  string
		params []any
	)
	if modeCode == codes.ResearchModeDeep {
		rpcID = rpcStartDeepResearch
		params = []any{nil, []any{1}, []any{query, sourceCode}, 5, notebookID}
	} else {
		rpcID = rpcStartFastResearch
		params = []any{[]any{query, sourceCode}, nil, 1, notebookID}
	}

	result, ok, err := c.call(ctx, rpcID, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return ResearchTask{}, err
	}
	taskID := result.Get("0").String()
	if !ok || taskID == "" {
		return ResearchTask{}, fmt.Errorf("start research: no task id in response")
	}
	return ResearchTask{
		TaskID:     taskID,
		ReportID:   result.Get("1").String(),
		NotebookID: notebookID,
		Query:      query,
		Source:     strings.ToLower(source),
		Mode:       strings.ToLower(mode),
	}, nil
}

// PollResearch reports the state of a notebook's research tasks. With a
// task id it returns that task, nil when the task is not visible yet.
// Without one it returns the most recent task, nil when the notebook has
// no research at all.
func (c *Client) PollResearch(ctx context.Context, notebookID, taskID string) (*ResearchStatus, error) {
	params := []any{nil, nil, notebookID}
	result, ok, err := c.call(ctx, rpcPollResearch, params, "/notebook/"+notebookID, defaultRPCTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	tasks := result
	// The task list is sometimes wrapped in one extra array.
	if first := result.Get("0"); first.IsArray() && first.Get("0").IsArray() {
		tasks = first
	}

	var statuses []*ResearchStatus
	for _, task := range tasks.Array() {
		if st := parseResearchTask(task); st != nil {
			statuses = append(statuses, st)
		}
	}
	if len(statuses) == 0 {
		return nil, nil
	}
	if taskID == "" {
		return statuses[0], nil
	}
	for _, st := range statuses {
		if st.TaskID == taskID {
			return st, nil
		}
	}
	return nil, nil
}

// parseResearchTask decodes one poll entry: [task_id, task_info, ...] with
// the query at task_info[1], mode at [2], sources and summary at [3] and
// the status code at [4]. Timestamp arrays interleaved with the tasks are
// skipped by the task-id type check.
func parseResearchTask(task gjson.Result) *ResearchStatus {
	taskID := task.Get("0")
	if taskID.Type != gjson.String {
		return nil
	}
	info := task.Get("1")
	if !info.IsArray() {
		return nil
	}

	st := &ResearchStatus{
		TaskID: taskID.String(),
		Query:  info.Get("1.0").String(),
		Status: ResearchInProgress,
	}
	st.SourceType = "web"
	if info.Get("1.1").Int() == codes.ResearchSourceDrive {
		st.SourceType = "drive"
	}
	st.Mode = "fast"
	if info.Get("2").Int() == codes.ResearchModeDeep {
		st.Mode = "deep"
	}
	switch info.Get("4").Int() {
	case codes.ResearchStatusCompleted, codes.ResearchStatusImported:
		st.Status = ResearchCompleted
	}
	if summary := info.Get("3.1"); summary.Type == gjson.String {
		st.Summary = summary.String()
	}

	for idx, src := range info.Get("3.0").Array() {
		if !src.IsArray() || len(src.Array()) < 2 {
			continue
		}
		if src.Get("0").Type == gjson.Null && src.Get("1").Type == gjson.String {
			// Deep research entries carry no URL; the report text rides at
			// position 6.
			resultType := codes.ResultTypeDeepReport
			if t := src.Get("3"); t.Type == gjson.Number {
				resultType = int(t.Int())
			}
			if report := src.Get("6.0"); report.Type == gjson.String {
				st.Report = report.String()
			}
			st.Sources = append(st.Sources, ResearchResult{
				Index:          idx,
				Title:          src.Get("1").String(),
				ResultType:     resultType,
				ResultTypeName: codes.ResultTypes.Name(resultType),
			})
			continue
		}

		resultType := codes.ResultTypeWeb
		if t := src.Get("3"); t.Type == gjson.Number {
			resultType = int(t.Int())
		}
		st.Sources = append(st.Sources, ResearchResult{
			Index:          idx,
			URL:            src.Get("0").String(),
			Title:          src.Get("1").String(),
			Description:    src.Get("2").String(),
			ResultType:     resultType,
			ResultTypeName: codes.ResultTypes.Name(resultType),
		})
	}
	return st
}

// ImportResearch adds selected research results to the notebook as
// sources. Deep-research report entries and entries without URLs are not
// importable and are skipped.
func (c *Client) ImportResearch(ctx context.Context, notebookID, taskID string, results []ResearchResult) ([]AddedSource, error) {
	var sourceArray []any
	for _, r := range results {
		if r.ResultType == codes.ResultTypeDeepReport || r.URL == "" {
			continue
		}
		sourceArray = append(sourceArray, importSourceData(r))
	}
	if len(sourceArray) == 0 {
		return nil, nil
	}

	params := []any{nil, []any{1}, taskID, notebookID, sourceArray}
	result, ok, err := c.call(ctx, rpcImportResearch, params, "/notebook/"+notebookID, importTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("import research: empty response")
	}

	list := result
	if first := result.Get("0"); first.IsArray() && first.Get("0").IsArray() {
		list = first
	}
	var imported []AddedSource
	for _, src := range list.Array() {
		id := src.Get("0.0").String()
		if id == "" {
			continue
		}
		imported = append(imported, AddedSource{ID: id, Title: src.Get("1").String()})
	}
	return imported, nil
}

// importSourceData renders one research result in the import wire shape.
// Web results carry [url, title] at position 2; Drive results carry
// [doc_id, mime, 1, title] at position 0, with the doc id recovered from
// the Drive open URL.
func importSourceData(r ResearchResult) []any {
	if r.ResultType != codes.ResultTypeWeb {
		if docID := driveDocID(r.URL); docID != "" {
			mime := driveMimeTypes[r.ResultType]
			if mime == "" {
				mime = DriveMimeDocument
			}
			return []any{[]any{docID, mime, 1, r.Title},
				nil, nil, nil, nil, nil, nil, nil, nil, nil, 2}
		}
	}
	return []any{nil, nil, []any{r.URL, r.Title}, nil, nil, nil, nil, nil, nil, nil, 2}
}

var driveMimeTypes = map[int]string{
	codes.ResultTypeGoogleDoc:    "application/vnd.google-apps.document",
	codes.ResultTypeGoogleSlides: "application/vnd.google-apps.presentation",
	codes.ResultTypeGoogleSheets: "application/vnd.google-apps.spreadsheet",
}

// driveDocID pulls the document id out of a Drive open URL
// (…/open?id=<doc_id>).
func driveDocID(url string) string {
	_, after, found := strings.Cut(url, "id=")
	if !found {
		return ""
	}
	docID, _, _ := strings.Cut(after, "&")
	return docID
}

// WaitForResearch polls until the task completes or maxWait elapses,
// sleeping interval between polls. On timeout it returns the last known
// state, nil when the task never became visible.
func (c *Client) WaitForResearch(ctx context.Context, notebookID, taskID string, interval, maxWait time.Duration) (*ResearchStatus, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(maxWait)

	var last *ResearchStatus
	for {
		st, err := c.PollResearch(ctx, notebookID, taskID)
		if err != nil {
			return last, err
		}
		if st != nil {
			last = st
			if st.Done() {
				return st, nil
			}
		}
		if time.Now().After(deadline) {
			return last, &TimeoutError{Op: "research", Budget: maxWait}
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(interval):
		}
	}
}
