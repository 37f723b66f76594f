package api

import "sync"

// Turn is one completed question and answer exchange within a
// conversation.
type Turn struct {
	Query      string `json:"query"`
	Answer     string `json:"answer"`
	TurnNumber int    `json:"turn_number"`
}

// conversationCache keeps per-conversation turn history for the lifetime of
// the client. Nothing is persisted.
type conversationCache struct {
	mu    sync.Mutex
	turns map[string][]Turn
}

func newConversationCache() *conversationCache {
	return &conversationCache{turns: make(map[string][]Turn)}
}

// record appends a completed turn. Turns with empty answers are dropped, an
// empty answer means the exchange failed and the backend never saw it.
func (c *conversationCache) record(conversationID, query, answer string) {
	if answer == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns[conversationID] = append(c.turns[conversationID], Turn{
		Query:      query,
		Answer:     answer,
		TurnNumber: len(c.turns[conversationID]) + 1,
	})
}

// history returns a copy of the recorded turns, oldest first.
func (c *conversationCache) history(conversationID string) []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := c.turns[conversationID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// clear forgets a conversation's history. Clearing an unknown conversation
// is a no-op.
func (c *conversationCache) clear(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.turns, conversationID)
}

// buildHistory renders the recorded turns in the layout the query endpoint
// expects: for each turn the answer entry precedes the query entry, turns
// in chronological order. Returns nil when there is no history.
func (c *conversationCache) buildHistory(conversationID string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := c.turns[conversationID]
	if len(turns) == 0 {
		return nil
	}
	history := make([]any, 0, 2*len(turns))
	for _, t := range turns {
		history = append(history, []any{t.Answer, nil, 2})
		history = append(history, []any{t.Query, nil, 1})
	}
	return history
}

// History returns the turns recorded for a conversation, oldest first.
func (c *Client) History(conversationID string) []Turn {
	return c.conversations.history(conversationID)
}

// ClearHistory forgets a conversation's context so the next query with its
// id starts fresh.
func (c *Client) ClearHistory(conversationID string) {
	c.conversations.clear(conversationID)
}
