package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// QueryRequest asks a notebook's sources a question.
type QueryRequest struct {
	NotebookID string
	Question   string

	// SourceIDs restricts the query to specific sources. Empty means all
	// sources in the notebook, discovered with an extra RPC.
	SourceIDs []string

	// ConversationID threads follow-up questions. Empty starts a new
	// conversation; a known id replays the cached history so the model
	// keeps context.
	ConversationID string

	// Timeout overrides the default query budget.
	Timeout time.Duration
}

// QueryResponse is a completed query turn.
type QueryResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
	TurnNumber     int    `json:"turn_number"`
	IsFollowUp     bool   `json:"is_follow_up"`
}

// Query asks a question against a notebook's sources over the streamed
// endpoint and returns the selected answer. Successful turns are cached so
// follow-ups under the same conversation id carry the history.
func (c *Client) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	if req.Question == "" {
		return QueryResponse{}, &ValidationError{Message: "question must not be empty"}
	}

	sourceIDs := req.SourceIDs
	if len(sourceIDs) == 0 {
		notebook, err := c.GetNotebook(ctx, req.NotebookID)
		if err != nil {
			return QueryResponse{}, err
		}
		sourceIDs = extractSourceIDs(notebook)
	}

	conversationID := req.ConversationID
	isFollowUp := conversationID != ""
	var history []any
	if isFollowUp {
		history = c.conversations.buildHistory(conversationID)
	} else {
		conversationID = uuid.NewString()
	}

	params := []any{
		nestedSourceIDs(sourceIDs),
		req.Question,
		history,
		[]any{2, nil, []any{1}},
		conversationID,
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	answer, err := c.streamQuery(ctx, params, timeout)
	if err != nil {
		return QueryResponse{}, err
	}

	c.conversations.record(conversationID, req.Question, answer)
	return QueryResponse{
		Answer:         answer,
		ConversationID: conversationID,
		TurnNumber:     len(c.conversations.history(conversationID)),
		IsFollowUp:     isFollowUp,
	}, nil
}

// extractSourceIDs pulls the source ids out of a notebook detail payload.
func extractSourceIDs(notebook gjson.Result) []string {
	var ids []string
	for _, src := range notebook.Get("0.1").Array() {
		if id := src.Get("0.0").String(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// nestedSourceIDs renders ids as [[[id]], ...], the shape the query and
// studio endpoints take.
func nestedSourceIDs(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, []any{[]any{id}})
	}
	return out
}

// simpleSourceIDs renders ids as [[id], ...], the shape studio option
// blocks take.
func simpleSourceIDs(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, []any{id})
	}
	return out
}
