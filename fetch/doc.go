// Package fetch is an HTTP client for JSON APIs that authenticate requests
// with parameter signatures.
//
// Every request passes through an ordered pipeline: the configured request
// stages, then signing (when credentials are configured), then the
// transport, then the response stages, then normalization. Responses are
// expected to be wrapped in an Envelope; normalization returns the envelope
// body on success and an *Error otherwise.
//
// # Creating a Client
//
//	client, err := fetch.New(
//	    fetch.WithBaseURL("https://api.example.com"),
//	    fetch.WithBasePath("/v1"),
//	    fetch.WithAuth(paramsign.Credentials{Token: token, Nonce: nonce}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Sending Requests
//
//	body, err := client.Get(ctx, "/items", map[string]any{"page": 2})
//	if err != nil {
//	    var fe *fetch.Error
//	    if errors.As(err, &fe) {
//	        log.Printf("status %d: %s", fe.Status, fe.Message)
//	    }
//	    return err
//	}
//
//	items, err := fetch.Decode[[]Item](body)
//
// # Updating Credentials
//
// A Client never changes after construction. WithAuth returns a new Client
// sharing the connection pool:
//
//	client, err = client.WithAuth(paramsign.Credentials{Token: newToken, Nonce: nonce})
//
// # Batches
//
// All sends requests concurrently and fails on the first error:
//
//	bodies, err := client.All(ctx,
//	    fetch.Request{URL: "/a"},
//	    fetch.Request{Method: http.MethodPost, URL: "/b", Data: payload},
//	)
package fetch
