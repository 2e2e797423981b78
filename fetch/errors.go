package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusNoResponse is the Error status used when no HTTP response was
// received.
const StatusNoResponse = -1

// Client errors.
var (
	// ErrInvalidBatch is returned by Batch when items is neither a Request
	// nor a slice of Requests.
	ErrInvalidBatch = errors.New("fetch: argument should be a request or a slice of requests")

	// ErrMalformedEnvelope is wrapped when a successful HTTP response does
	// not carry a JSON envelope.
	ErrMalformedEnvelope = errors.New("fetch: malformed response envelope")
)

// Error is the normalized failure of a request. Status is the envelope
// status for application-level rejections, the HTTP status for transport
// failures with a response, and StatusNoResponse otherwise.
type Error struct {
	Status  int
	Body    json.RawMessage
	Message string

	// Err is the underlying cause, when there is one.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fetch: status %d", e.Status)
	}

	return fmt.Sprintf("fetch: status %d: %s", e.Status, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// noResponseError wraps err for a request that never got a response.
func noResponseError(err error) *Error {
	return &Error{Status: StatusNoResponse, Message: err.Error(), Err: err}
}

// httpStatusMessage maps a failed HTTP status to its human-readable message.
func httpStatusMessage(code int) string {
	switch code {
	case http.StatusNotFound:
		return "404 not found"
	case http.StatusInternalServerError:
		return "500 internal error"
	default:
		return fmt.Sprintf("Request failed with status code %d", code)
	}
}
