package fetch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitalvas/signfetch/paramsign"
)

var (
	testCreds = paramsign.Credentials{Token: "tok", Nonce: "n1"}
	fixedNow  = time.UnixMilli(1700000000000)
)

func fixedClock() time.Time { return fixedNow }

func writeEnvelope(w http.ResponseWriter, status int, body any, message string) {
	raw, _ := json.Marshal(body)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Envelope{Status: status, Body: raw, Message: message})
}

// newVerifyingServer starts a server that verifies signatures with the
// token as key and echoes the request back in an envelope.
func newVerifyingServer(t *testing.T) *httptest.Server {
	t.Helper()

	mw, err := paramsign.Middleware(paramsign.MiddlewareConfig{
		Verify: paramsign.VerifyConfig{
			Resolver: func(_ *http.Request, token string) (paramsign.Signer, error) {
				return paramsign.NewSigner(paramsign.AlgorithmMD5, token)
			},
		},
		OnError: func(w http.ResponseWriter, _ *http.Request, err error) {
			writeEnvelope(w, http.StatusUnauthorized, nil, err.Error())
		},
	})
	require.NoError(t, err)

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
			"token":  r.Header.Get(paramsign.HeaderToken),
		}, "")
	})

	server := httptest.NewServer(mw(echo))
	t.Cleanup(server.Close)

	return server
}
