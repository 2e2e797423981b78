package fetch

import (
	"net/http"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header RequestIDStage sets by default.
const DefaultRequestIDHeader = "X-Request-ID"

// RequestIDConfig configures the request ID stage.
type RequestIDConfig struct {
	// HeaderName overrides the header used to send the request ID.
	// Defaults to "X-Request-ID" when empty.
	HeaderName string

	// GenerateFunc returns a new unique ID for the request. Defaults to
	// GenerateUUIDv4.
	GenerateFunc func(r *http.Request) string
}

// RequestIDStage returns a RequestStage that sets a generated ID header on
// requests that do not carry one yet.
func RequestIDStage(cfg RequestIDConfig) RequestStage {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = DefaultRequestIDHeader
	}

	generate := cfg.GenerateFunc
	if generate == nil {
		generate = GenerateUUIDv4
	}

	return func(r *http.Request) (*http.Request, error) {
		if r.Header.Get(headerName) != "" {
			return r, nil
		}

		if id := generate(r); id != "" {
			r.Header.Set(headerName, id)
		}

		return r, nil
	}
}

// GenerateUUIDv4 returns a new UUID v4 string.
func GenerateUUIDv4(_ *http.Request) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a new UUID v7 string. UUIDs are time-ordered:
// IDs generated later sort lexicographically after earlier ones.
func GenerateUUIDv7(_ *http.Request) string {
	return uuid.Must(uuid.NewV7()).String()
}
