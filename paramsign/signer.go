package paramsign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Algorithm identifies how a canonical parameter string is turned into a
// signature.
type Algorithm string

const (
	// AlgorithmMD5 is the legacy scheme: MD5 over the canonical string with
	// the key appended. Kept bit-for-bit for existing servers; not
	// recommended for new deployments.
	AlgorithmMD5 Algorithm = "md5"

	// AlgorithmHMACSHA256 is HMAC-SHA256 keyed by the secret over the
	// canonical pairs.
	AlgorithmHMACSHA256 Algorithm = "hmac-sha256"
)

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// Signer computes signatures over parameter sets.
type Signer interface {
	// Sign returns the signature of params as upper-case hex.
	Sign(params Params) (string, error)

	// Algorithm returns the algorithm identifier for this signer.
	Algorithm() Algorithm
}

// NewSigner creates a Signer for alg keyed by key. An empty alg selects
// AlgorithmMD5.
func NewSigner(alg Algorithm, key string) (Signer, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	switch alg {
	case "", AlgorithmMD5:
		return &md5Signer{key: key}, nil
	case AlgorithmHMACSHA256:
		return &hmacSHA256Signer{key: []byte(key)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

type md5Signer struct {
	key string
}

func (s *md5Signer) Sign(params Params) (string, error) {
	return Sign(params, s.key), nil
}

func (s *md5Signer) Algorithm() Algorithm { return AlgorithmMD5 }

type hmacSHA256Signer struct {
	key []byte
}

func (s *hmacSHA256Signer) Sign(params Params) (string, error) {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(canonicalBase(params)))

	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

func (s *hmacSHA256Signer) Algorithm() Algorithm { return AlgorithmHMACSHA256 }
