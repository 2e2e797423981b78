package paramsign

import "errors"

// Signing errors.
var (
	// ErrNoSigner is returned when SignConfig has no Signer configured.
	ErrNoSigner = errors.New("paramsign: signer must not be nil")

	// ErrEmptyKey is returned when a Signer is created without a secret key.
	ErrEmptyKey = errors.New("paramsign: signing key must not be empty")

	// ErrUnsupportedAlgorithm is returned for an unknown Algorithm.
	ErrUnsupportedAlgorithm = errors.New("paramsign: unsupported signature algorithm")
)

// Credential errors.
var (
	// ErrTokenRequired is returned when credentials carry no token.
	ErrTokenRequired = errors.New("paramsign: token required in auth")

	// ErrNonceRequired is returned when credentials carry no nonce.
	ErrNonceRequired = errors.New("paramsign: nonce required in auth")
)

// Verification errors.
var (
	// ErrNoResolver is returned when VerifyConfig has no KeyResolver configured.
	ErrNoResolver = errors.New("paramsign: key resolver must not be nil")

	// ErrSignatureNotFound is returned when a request lacks the token,
	// timestamp or signature header.
	ErrSignatureNotFound = errors.New("paramsign: signature not found")

	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = errors.New("paramsign: signature verification failed")

	// ErrSignatureExpired is returned when the request timestamp is outside
	// the allowed window.
	ErrSignatureExpired = errors.New("paramsign: signature expired")

	// ErrMalformedHeader is returned when an authentication header cannot
	// be parsed.
	ErrMalformedHeader = errors.New("paramsign: malformed authentication header")

	// ErrBodyTooLarge is returned when a request body exceeds the verifier's
	// read limit.
	ErrBodyTooLarge = errors.New("paramsign: request body too large")
)
