// Package paramsign signs HTTP requests with a deterministic digest over
// their parameters.
//
// A request's query parameters, JSON body fields and a timestamp are merged
// into Params, filtered to values whose JSON text is shorter than
// MaxValueLength, sorted by key and concatenated as "k=v&" pairs. The secret
// key is appended as "key=<secret>" and the result is hashed. The legacy
// scheme uses MD5 and upper-case hex, which existing servers expect; new
// deployments can select HMAC-SHA256 instead.
//
// It provides both client-side signing (via Transport) and server-side
// verification (via Middleware).
//
// # Signing Parameters
//
//	sig := paramsign.Sign(paramsign.Params{"a": 1, "b": "x"}, "k")
//	// sig == upper(md5("a=1&b=x&key=k"))
//
// # Signing Requests
//
// SignRequest adds the h_token, h_nonce, h_timestamp and h_signature
// headers to a request:
//
//	signer, err := paramsign.NewSigner(paramsign.AlgorithmMD5, creds.SigningKey())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = paramsign.SignRequest(req, paramsign.SignConfig{
//	    Signer:      signer,
//	    Credentials: creds,
//	})
//
// # Client Transport
//
// NewTransport creates an http.RoundTripper that signs all outgoing
// requests:
//
//	client := &http.Client{
//	    Transport: paramsign.NewTransport(nil, paramsign.SignConfig{
//	        Signer:      signer,
//	        Credentials: creds,
//	    }),
//	}
//
// # Server Middleware
//
// Middleware verifies signed requests on the receiving side:
//
//	mw, err := paramsign.Middleware(paramsign.MiddlewareConfig{
//	    Verify: paramsign.VerifyConfig{
//	        Resolver: func(_ *http.Request, token string) (paramsign.Signer, error) {
//	            return paramsign.NewSigner(paramsign.AlgorithmMD5, token)
//	        },
//	        MaxAge: 5 * time.Minute,
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handler = mw(handler)
package paramsign
