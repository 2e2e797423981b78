package fetch

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/vitalvas/signfetch/paramsign"
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL sets the URL prepended to every request URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		c.config.BaseURL = baseURL
		return nil
	}
}

// WithBasePath sets the path inserted between the base URL and every
// request URL.
func WithBasePath(basePath string) Option {
	return func(c *Client) error {
		c.config.BasePath = basePath
		return nil
	}
}

// WithHeader merges header into the headers sent with every request.
func WithHeader(header http.Header) Option {
	return func(c *Client) error {
		c.config.Header = mergeHeader(c.config.Header, header)
		return nil
	}
}

// WithAuth sets the signing credentials. Token and Nonce are required.
func WithAuth(creds paramsign.Credentials) Option {
	return func(c *Client) error {
		if err := creds.Validate(); err != nil {
			return err
		}

		c.config.Auth = creds
		return nil
	}
}

// WithAlgorithm selects the signature scheme.
func WithAlgorithm(alg paramsign.Algorithm) Option {
	return func(c *Client) error {
		c.config.Algorithm = alg
		return nil
	}
}

// WithPolicy restricts signing to the request paths policy applies to.
func WithPolicy(policy paramsign.Policy) Option {
	return func(c *Client) error {
		c.config.Policy = policy
		return nil
	}
}

// WithIncludeURL signs the request URI of every request.
func WithIncludeURL(include bool) Option {
	return func(c *Client) error {
		c.config.IncludeURL = include
		return nil
	}
}

// WithIncludeUser signs and sends the configured user identifier.
func WithIncludeUser(include bool) Option {
	return func(c *Client) error {
		c.config.IncludeUser = include
		return nil
	}
}

// WithSuccessStatus sets the envelope status treated as success.
func WithSuccessStatus(status int) Option {
	return func(c *Client) error {
		c.config.SuccessStatus = status
		return nil
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.config.Timeout = timeout
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. Its Timeout and Jar are left as
// given.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithRequestStage appends a stage run on every request before it is
// signed and sent.
func WithRequestStage(stage RequestStage) Option {
	return func(c *Client) error {
		c.requestStages = append(c.requestStages, stage)
		return nil
	}
}

// WithResponseStage appends a stage run on every received response before
// it is normalized.
func WithResponseStage(stage ResponseStage) Option {
	return func(c *Client) error {
		c.responseStages = append(c.responseStages, stage)
		return nil
	}
}

// WithRequestID adds a request stage that sets a unique request ID header.
func WithRequestID(cfg RequestIDConfig) Option {
	return func(c *Client) error {
		c.requestIDHeader = cfg.HeaderName
		if c.requestIDHeader == "" {
			c.requestIDHeader = DefaultRequestIDHeader
		}

		return WithRequestStage(RequestIDStage(cfg))(c)
	}
}

// WithRateLimit adds a request stage that waits for a token from a limiter
// allowing limit requests per second with the given burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return WithRequestStage(RateLimitStage(rate.NewLimiter(limit, burst)))
}

// WithMetrics instruments the transport with request counters, latency
// histograms and an in-flight gauge registered on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) error {
		c.metrics = reg
		return nil
	}
}

// WithCookieJar keeps cookies set by servers and sends them back, scoped by
// the public suffix list.
func WithCookieJar() Option {
	return func(c *Client) error {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return err
		}

		c.jar = jar
		return nil
	}
}

// WithLogger sets the logger. Defaults to discarding all output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithClock sets the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		c.now = now
		return nil
	}
}
