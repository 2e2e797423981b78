package paramsign

import "net/http"

// MiddlewareFunc wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// MiddlewareConfig configures the handler wrapper that checks h_signature
// on incoming requests.
type MiddlewareConfig struct {
	// Verify selects the key per h_token and the timestamp window.
	Verify VerifyConfig

	// OnError receives requests whose headers are missing, stale or signed
	// with the wrong key. Defaults to an empty 401 response.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware rebuilds each request's parameters from its query, JSON body
// and h_timestamp, recomputes the signature with the key resolved for
// h_token, and only calls the wrapped handler when it matches. The body is
// left readable for the handler.
//
// It returns ErrNoResolver if VerifyConfig.Resolver is nil.
func Middleware(cfg MiddlewareConfig) (MiddlewareFunc, error) {
	if cfg.Verify.Resolver == nil {
		return nil, ErrNoResolver
	}

	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	verifyCfg := cfg.Verify

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := VerifyRequest(r, verifyCfg); err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// defaultOnError rejects with 401 and no body.
func defaultOnError(w http.ResponseWriter, _ *http.Request, _ error) {
	w.WriteHeader(http.StatusUnauthorized)
}
