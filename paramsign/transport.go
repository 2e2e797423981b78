package paramsign

import "net/http"

// Transport is an http.RoundTripper that adds the h_token, h_nonce,
// h_timestamp and h_signature headers to every request its Policy selects.
// The signature covers the query, the fields of a JSON object body and the
// injected timestamp.
type Transport struct {
	base   http.RoundTripper
	config SignConfig
}

// NewTransport returns a Transport that signs with cfg and sends through
// base. A nil base uses its own clone of http.DefaultTransport.
func NewTransport(base http.RoundTripper, cfg SignConfig) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:   base,
		config: cfg,
	}
}

// RoundTrip signs a clone of req and sends it. The caller's request is not
// modified. With GetBody set, the body fields are read from a fresh copy so
// the caller's body stays unread; req.Body is closed when signing fails.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			closeBody(req)
			return nil, err
		}

		clone.Body = body
	}

	if err := SignRequest(clone, t.config); err != nil {
		if clone.Body != req.Body {
			closeBody(clone)
		}
		closeBody(req)
		return nil, err
	}

	return t.base.RoundTrip(clone)
}

func closeBody(r *http.Request) {
	if r.Body != nil {
		_ = r.Body.Close()
	}
}
