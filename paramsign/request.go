package paramsign

import (
	"net/http"
	"strconv"
	"time"
)

// Authentication headers set on signed requests.
const (
	HeaderToken     = "h_token"
	HeaderNonce     = "h_nonce"
	HeaderUser      = "h_user"
	HeaderTimestamp = "h_timestamp"
	HeaderSignature = "h_signature"
)

// Contextual fields merged into the signed parameters.
const (
	FieldTimestamp = "__timestamp__"
	FieldURL       = "__url__"
	FieldUser      = "__user__"
)

// ContextFields are the values injected into a request's parameters next to
// its query and body.
type ContextFields struct {
	// Timestamp is the request time in epoch milliseconds.
	Timestamp int64

	// URL, when non-empty, is signed as FieldURL.
	URL string

	// User, when non-empty, is signed as FieldUser.
	User string
}

// SignConfig configures request signing.
type SignConfig struct {
	// Signer produces signatures. Required when Credentials are set.
	Signer Signer

	// Credentials are sent with every signed request. When Token is empty
	// requests pass through unsigned.
	Credentials Credentials

	// Policy selects which request paths are signed.
	Policy Policy

	// IncludeURL signs the request URI as FieldURL.
	IncludeURL bool

	// IncludeUser signs Credentials.User as FieldUser and sends it in
	// HeaderUser.
	IncludeUser bool

	// Now returns the signing time. Defaults to time.Now.
	Now func() time.Time
}

// RequestParams collects the parameters of r that are signed: the fields of
// a JSON object body, then the URL query, on top of the contextual fields.
// Later sources override earlier ones. The body is restored so it can be
// read again.
func RequestParams(r *http.Request, fields ContextFields) (Params, error) {
	return requestParams(r, fields, 0)
}

func requestParams(r *http.Request, fields ContextFields, maxBody int64) (Params, error) {
	ctxParams := Params{FieldTimestamp: fields.Timestamp}
	if fields.URL != "" {
		ctxParams[FieldURL] = fields.URL
	}
	if fields.User != "" {
		ctxParams[FieldUser] = fields.User
	}

	body, err := readAndRestoreBody(r, maxBody)
	if err != nil {
		return nil, err
	}

	bodyParams, err := ParamsFromJSON(body)
	if err != nil {
		// Bodies that are not JSON objects are not signed.
		bodyParams = Params{}
	}

	return Merge(ctxParams, bodyParams, ParamsFromQuery(r.URL.Query())), nil
}

// SignRequest signs r in place and sets the authentication headers. Other
// headers on r are kept. Requests are left untouched when no token is
// configured or the Policy does not apply to the request path.
func SignRequest(r *http.Request, cfg SignConfig) error {
	creds := cfg.Credentials
	if creds.Token == "" || !cfg.Policy.Applies(r.URL.Path) {
		return nil
	}

	if cfg.Signer == nil {
		return ErrNoSigner
	}

	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	timestamp := now().UnixMilli()

	fields := ContextFields{Timestamp: timestamp}
	if cfg.IncludeURL {
		fields.URL = r.URL.RequestURI()
	}
	if cfg.IncludeUser {
		fields.User = creds.User
	}

	params, err := RequestParams(r, fields)
	if err != nil {
		return err
	}

	signature, err := cfg.Signer.Sign(params)
	if err != nil {
		return err
	}

	r.Header.Set(HeaderToken, creds.Token)
	if creds.Nonce != "" {
		r.Header.Set(HeaderNonce, creds.Nonce)
	}
	if fields.User != "" {
		r.Header.Set(HeaderUser, fields.User)
	}
	r.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	r.Header.Set(HeaderSignature, signature)

	return nil
}
