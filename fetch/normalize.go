package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Envelope is the JSON object every API response is wrapped in.
type Envelope struct {
	Status  int             `json:"status"`
	Body    json.RawMessage `json:"body"`
	Message string          `json:"message,omitempty"`
}

// Response is a received HTTP response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Request is the request as sent, after all request stages.
	Request *http.Request
}

// Normalize unwraps res. HTTP failures become an Error carrying the HTTP
// status, envelopes whose status differs from successStatus become an
// Error carrying the envelope, and otherwise the envelope body is
// returned. A JSON null body is returned as nil.
func Normalize(res *Response, successStatus int) (json.RawMessage, error) {
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &Error{
			Status:  res.StatusCode,
			Message: httpStatusMessage(res.StatusCode),
		}
	}

	var env Envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return nil, &Error{
			Status:  res.StatusCode,
			Message: ErrMalformedEnvelope.Error(),
			Err:     fmt.Errorf("%w: %w", ErrMalformedEnvelope, err),
		}
	}

	body := nullToNil(env.Body)

	if env.Status != successStatus {
		return nil, &Error{
			Status:  env.Status,
			Body:    body,
			Message: env.Message,
		}
	}

	return body, nil
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}

	return raw
}

// Decode unmarshals a normalized body into a value of type T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("fetch: failed to decode body: %w", err)
	}

	return out, nil
}
