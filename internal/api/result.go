package api

import "errors"

// Result statuses reported at the tool boundary.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Result is the uniform envelope every operation reports through the tool
// boundary. Data carries the operation payload on success.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success wraps a payload in a success result.
func Success(data any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// Failure classifies an error into a result. Timeouts get their own status
// because the operation may have succeeded server side.
func Failure(err error) Result {
	var te *TimeoutError
	if errors.As(err, &te) {
		return Result{Status: StatusTimeout, Message: te.Error()}
	}
	return Result{Status: StatusError, Message: err.Error()}
}
