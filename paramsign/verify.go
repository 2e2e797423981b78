package paramsign

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultMaxBodyBytes bounds how much of a request body VerifyRequest reads.
const defaultMaxBodyBytes = 1 << 20

// KeyResolver returns the Signer for the caller identified by token. It is
// called during request verification to look up the caller's key.
type KeyResolver func(r *http.Request, token string) (Signer, error)

// VerifyConfig configures server-side request verification. IncludeURL and
// IncludeUser must match the signing side.
type VerifyConfig struct {
	// Resolver looks up a Signer for a token. Required.
	Resolver KeyResolver

	// MaxAge is the maximum distance between the request timestamp and the
	// current time. Zero disables the check.
	MaxAge time.Duration

	// MaxBodyBytes limits how much of the body is read. Defaults to 1 MiB.
	MaxBodyBytes int64

	// IncludeURL expects the request URI to be signed as FieldURL.
	IncludeURL bool

	// IncludeUser expects HeaderUser to be signed as FieldUser.
	IncludeUser bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Verify checks signature against the signature signer computes for params.
// The comparison is case-insensitive and constant-time.
func Verify(params Params, signature string, signer Signer) error {
	expected, err := signer.Sign(params)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(signature))) != 1 {
		return ErrSignatureInvalid
	}

	return nil
}

// VerifyRequest verifies the authentication headers of an incoming request
// by rebuilding its parameters the same way SignRequest does.
func VerifyRequest(r *http.Request, cfg VerifyConfig) error {
	if cfg.Resolver == nil {
		return ErrNoResolver
	}

	token := r.Header.Get(HeaderToken)
	signature := r.Header.Get(HeaderSignature)
	rawTimestamp := r.Header.Get(HeaderTimestamp)

	if token == "" || signature == "" || rawTimestamp == "" {
		return ErrSignatureNotFound
	}

	timestamp, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid %s", ErrMalformedHeader, HeaderTimestamp)
	}

	if cfg.MaxAge > 0 {
		now := time.Now
		if cfg.Now != nil {
			now = cfg.Now
		}

		age := now().Sub(time.UnixMilli(timestamp))
		if age < -cfg.MaxAge || age > cfg.MaxAge {
			return ErrSignatureExpired
		}
	}

	signer, err := cfg.Resolver(r, token)
	if err != nil {
		return err
	}

	fields := ContextFields{Timestamp: timestamp}
	if cfg.IncludeURL {
		fields.URL = r.URL.RequestURI()
	}
	if cfg.IncludeUser {
		fields.User = r.Header.Get(HeaderUser)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	params, err := requestParams(r, fields, maxBody)
	if err != nil {
		return err
	}

	return Verify(params, signature, signer)
}
