package fetch

import (
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/vitalvas/signfetch/paramsign"
)

// Default client settings.
const (
	DefaultTimeout       = 6 * time.Second
	DefaultSuccessStatus = http.StatusOK
)

// Config is the configuration a Client was built with. A Client never
// mutates its Config; updates produce a new Client.
type Config struct {
	// BaseURL and BasePath are prepended to every request URL.
	BaseURL  string
	BasePath string

	// Header holds headers sent with every request.
	Header http.Header

	// Auth holds the credentials used for signing. Requests are not signed
	// when Auth is zero.
	Auth paramsign.Credentials

	// Algorithm selects the signature scheme. Defaults to md5.
	Algorithm paramsign.Algorithm

	// Policy selects which request paths are signed.
	Policy paramsign.Policy

	// IncludeURL signs the request URI.
	IncludeURL bool

	// IncludeUser signs and sends Auth.User.
	IncludeUser bool

	// SuccessStatus is the envelope status treated as success.
	SuccessStatus int

	// Timeout bounds each request, including reading the response body.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the default headers, timeout and
// success status.
func DefaultConfig() Config {
	return Config{
		Header: http.Header{
			"Accept":       {"application/json, text/plain, */*"},
			"Content-Type": {"application/json"},
		},
		Algorithm:     paramsign.AlgorithmMD5,
		SuccessStatus: DefaultSuccessStatus,
		Timeout:       DefaultTimeout,
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Header = c.Header.Clone()
	out.Policy = paramsign.Policy{
		Include: slices.Clone(c.Policy.Include),
		Exclude: slices.Clone(c.Policy.Exclude),
	}

	return out
}

// mergeHeader returns a copy of dst with every value of src set on it.
func mergeHeader(dst, src http.Header) http.Header {
	out := dst.Clone()
	if out == nil {
		out = make(http.Header, len(src))
	}

	maps.Copy(out, src.Clone())

	return out
}
