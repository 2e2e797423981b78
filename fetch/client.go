package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitalvas/signfetch/internal/log"
	"github.com/vitalvas/signfetch/paramsign"
)

// Client sends signed requests and normalizes their responses. A Client is
// safe for concurrent use; its configuration is fixed at construction.
type Client struct {
	config         Config
	signer         paramsign.Signer
	httpClient     *http.Client
	requestStages  []RequestStage
	responseStages []ResponseStage
	logger         *slog.Logger
	now            func() time.Time

	// requestIDHeader is logged with each request when set.
	requestIDHeader string

	// construction-only settings
	metrics prometheus.Registerer
	jar     http.CookieJar
}

// Request describes one outgoing request.
type Request struct {
	// Method defaults to GET.
	Method string

	// URL is appended to the client's base URL and base path.
	URL string

	// Params are encoded into the query string. Slice values become
	// repeated keys; nil values are skipped.
	Params map[string]any

	// Data is the request body. Strings, byte slices and readers are sent
	// as-is; anything else is encoded as JSON.
	Data any

	// Header holds per-request headers, applied over the client headers.
	Header http.Header
}

// New creates a client with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: DefaultConfig(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	if err := c.buildSigner(); err != nil {
		return nil, err
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   c.config.Timeout,
			Jar:       c.jar,
		}
	}

	if c.metrics != nil {
		hc := *c.httpClient
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		instrumented, err := instrumentTransport(c.metrics, base)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hc.Transport = instrumented
		c.httpClient = &hc
	}

	return c, nil
}

func (c *Client) buildSigner() error {
	c.signer = nil
	if c.config.Auth.IsZero() {
		return nil
	}

	signer, err := paramsign.NewSigner(c.config.Algorithm, c.config.Auth.SigningKey())
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	c.signer = signer

	return nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.config.Clone()
}

// clone returns a shallow copy of c sharing its HTTP client and stages.
func (c *Client) clone() *Client {
	next := *c
	next.config = c.config.Clone()
	next.requestStages = slices.Clip(c.requestStages)
	next.responseStages = slices.Clip(c.responseStages)

	return &next
}

// WithAuth returns a client that signs with creds. c is left unchanged.
func (c *Client) WithAuth(creds paramsign.Credentials) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	next := c.clone()
	next.config.Auth = creds

	if err := next.buildSigner(); err != nil {
		return nil, err
	}

	return next, nil
}

// WithHeader returns a client that additionally sends header on every
// request. c is left unchanged.
func (c *Client) WithHeader(header http.Header) *Client {
	next := c.clone()
	next.config.Header = mergeHeader(next.config.Header, header)

	return next
}

// Get sends a GET request with params encoded in the query string.
func (c *Client) Get(ctx context.Context, target string, params map[string]any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: target, Params: params})
}

// Post sends a POST request with data as the body.
func (c *Client) Post(ctx context.Context, target string, data any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: target, Data: data})
}

// Put sends a PUT request with data as the body.
func (c *Client) Put(ctx context.Context, target string, data any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, URL: target, Data: data})
}

// Patch sends a PATCH request with data as the body.
func (c *Client) Patch(ctx context.Context, target string, data any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, URL: target, Data: data})
}

// Delete sends a DELETE request with data as the body.
func (c *Client) Delete(ctx context.Context, target string, data any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, URL: target, Data: data})
}

// Raw sends req as-is, bypassing the base URL, stages and normalization.
func (c *Client) Raw(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}

// Do sends req through the request stages, signs it, and returns the
// normalized response body. Failures are returned as *Error, except for
// requests that cannot be built.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := c.now()

	res, err := c.send(httpReq)
	if err != nil {
		c.logger.Warn("request failed", c.logAttrs(httpReq,
			"error", err,
		)...)
		return nil, err
	}

	body, err := Normalize(res, c.config.SuccessStatus)

	sent := res.Request
	if sent == nil {
		sent = httpReq
	}

	attrs := c.logAttrs(sent,
		"http_status", res.StatusCode,
		"duration_ms", c.now().Sub(start).Milliseconds(),
		"ok", err == nil,
	)
	c.logger.Debug("request completed", attrs...)

	if c.logger.Enabled(ctx, log.LevelTrace) {
		c.logger.Log(ctx, log.LevelTrace, "response body", append(attrs, "body", string(res.Body))...)
	}

	return body, err
}

// logAttrs returns the common log fields for r followed by extra.
func (c *Client) logAttrs(r *http.Request, extra ...any) []any {
	attrs := []any{"method", r.Method, "url", r.URL.Redacted()}

	if c.requestIDHeader != "" {
		if id := r.Header.Get(c.requestIDHeader); id != "" {
			attrs = append(attrs, log.RequestIDKey, id)
		}
	}

	return append(attrs, extra...)
}

// send runs the request stages, the signing stage and the transport, then
// the response stages.
func (c *Client) send(r *http.Request) (*Response, error) {
	r, err := runRequestStages(r, c.requestStages)
	if err != nil {
		return nil, noResponseError(err)
	}

	if err := c.sign(r); err != nil {
		return nil, noResponseError(err)
	}

	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, noResponseError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	return runResponseStages(&Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Request:    r,
	}, c.responseStages)
}

// sign is the final request stage. It is a no-op without credentials.
func (c *Client) sign(r *http.Request) error {
	if c.signer == nil {
		return nil
	}

	return paramsign.SignRequest(r, paramsign.SignConfig{
		Signer:      c.signer,
		Credentials: c.config.Auth,
		Policy:      c.config.Policy,
		IncludeURL:  c.config.IncludeURL,
		IncludeUser: c.config.IncludeUser,
		Now:         c.now,
	})
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(c.config.BaseURL + c.config.BasePath + req.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid url: %w", err)
	}

	if len(req.Params) > 0 {
		query := target.Query()
		for k, v := range req.Params {
			addQueryValue(query, k, v)
		}
		target.RawQuery = query.Encode()
	}

	body, err := encodeBody(req.Data)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to create request: %w", err)
	}

	httpReq.Header = mergeHeader(c.config.Header, req.Header)

	return httpReq, nil
}

func addQueryValue(query url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case []any:
		for _, el := range v {
			query.Add(key, paramsign.FormatValue(el))
		}
	case []string:
		for _, el := range v {
			query.Add(key, el)
		}
	default:
		query.Set(key, paramsign.FormatValue(v))
	}
}

func encodeBody(data any) (io.Reader, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(v), nil
	case []byte:
		return bytes.NewReader(v), nil
	case json.RawMessage:
		return bytes.NewReader(v), nil
	case io.Reader:
		return v, nil
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to marshal body: %w", err)
	}

	return bytes.NewReader(encoded), nil
}
