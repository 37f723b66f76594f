package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/batchexec"
)

// TransportError is a non-authentication HTTP failure. It is surfaced
// immediately and never retried by the client.
type TransportError struct {
	// Status is the HTTP status code.
	Status int
	// Body is the response body, truncated for diagnostics.
	Body string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc failed: HTTP %d: %s", e.Status, e.Body)
}

// ValidationError is a caller-supplied parameter violating a documented
// constraint. It is raised before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TimeoutError is a network operation exceeding its budget. For expensive
// operations a timeout does not prove server-side failure: the work may
// still have completed, so callers must verify before retrying.
type TimeoutError struct {
	// Op describes the operation that timed out.
	Op string
	// Budget is the timeout that was exceeded.
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s but may have succeeded; verify before retrying", e.Op, e.Budget)
}

// isAuthFailure reports whether err is an authentication failure, hard
// (HTTP 401/403) or soft (backend error 16 frame).
func isAuthFailure(err error) bool {
	return errors.Is(err, batchexec.ErrAuthentication)
}
