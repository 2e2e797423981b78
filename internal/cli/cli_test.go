package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/vitalvas/signfetch/config"
	"github.com/vitalvas/signfetch/fetch"
	"github.com/vitalvas/signfetch/paramsign"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		"SIGNFETCH_BASE_URL", "SIGNFETCH_BASE_PATH", "SIGNFETCH_TIMEOUT",
		"SIGNFETCH_TOKEN", "SIGNFETCH_NONCE", "SIGNFETCH_USER", "SIGNFETCH_SECRET",
		"SIGNFETCH_LOG_LEVEL", "SIGNFETCH_DEBUG", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "signfetch", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	for _, name := range []string{"sign", "verify", "request", "serve", "secret", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersion("dev", "unknown", "unknown") })

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "signfetch 1.2.3 (commit abc123, built 2026-01-01)\n", out)
}

func TestSignCommand(t *testing.T) {
	t.Run("md5 from argument", func(t *testing.T) {
		out, err := run(t, "", "sign", "--key", "k", `{"a":1,"b":"x"}`)
		require.NoError(t, err)
		assert.Equal(t, "9758484A5E52931C8ED842D7794B28BB\n", out)
	})

	t.Run("md5 from stdin", func(t *testing.T) {
		out, err := run(t, `{"b":"x","a":1}`, "sign", "-k", "k")
		require.NoError(t, err)
		assert.Equal(t, "9758484A5E52931C8ED842D7794B28BB\n", out)
	})

	t.Run("empty params", func(t *testing.T) {
		out, err := run(t, "", "sign", "-k", "secret", "{}")
		require.NoError(t, err)
		assert.Equal(t, "80353F06772F9B5C80204F40D0D34FDA\n", out)
	})

	t.Run("canonical", func(t *testing.T) {
		out, err := run(t, "", "sign", "-k", "k", "--canonical", `{"a":1,"b":"x"}`)
		require.NoError(t, err)
		assert.Equal(t, "a=1&b=x&key=k\n", out)
	})

	t.Run("hmac", func(t *testing.T) {
		out, err := run(t, "", "sign", "-k", "k", "-a", "hmac-sha256", `{"a":1,"b":"x"}`)
		require.NoError(t, err)
		assert.Equal(t, "469F9F4FF0B84E7DC96B3DF70E7CDDD63F8E1AAEE719AF4539954446449815C7\n", out)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := run(t, "", "sign", "{}")
		assert.Error(t, err)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := run(t, "", "sign", "-k", "k", "-a", "sha1", "{}")
		assert.ErrorIs(t, err, paramsign.ErrUnsupportedAlgorithm)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := run(t, "", "sign", "-k", "k", "{")
		assert.Error(t, err)
	})

	for _, input := range []string{"[1,2,3]", `"x"`, "42", "null", "", "   "} {
		t.Run("rejects non-object "+input, func(t *testing.T) {
			out, err := run(t, input, "sign", "-k", "secret", "-")
			assert.ErrorIs(t, err, errParamsNotObject)
			assert.Empty(t, out)
		})
	}
}

func TestVerifyCommand(t *testing.T) {
	out, err := run(t, "", "verify", "-k", "k", "-s", "9758484a5e52931c8ed842d7794b28bb", `{"a":1,"b":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)

	_, err = run(t, "", "verify", "-k", "secret", "-s", "80353F06772F9B5C80204F40D0D34FDA", "[1,2,3]")
	assert.ErrorIs(t, err, errParamsNotObject)

	_, err = run(t, "", "verify", "-k", "other", "-s", "9758484A5E52931C8ED842D7794B28BB", `{"a":1,"b":"x"}`)
	assert.ErrorIs(t, err, paramsign.ErrSignatureInvalid)
}

func TestRequestFlagsBuild(t *testing.T) {
	flags := &requestFlags{
		params:  []string{"page=1", "tag=a", "tag=b", "tag=c"},
		headers: []string{"X-Trace: abc"},
		data:    `{"name":"ann"}`,
	}

	req, err := flags.build("post", "/users")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/users", req.URL)
	assert.Equal(t, "1", req.Params["page"])
	assert.Equal(t, []any{"a", "b", "c"}, req.Params["tag"])
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
	assert.Equal(t, json.RawMessage(`{"name":"ann"}`), req.Data)

	_, err = (&requestFlags{params: []string{"novalue"}}).build("GET", "/")
	assert.Error(t, err)

	_, err = (&requestFlags{headers: []string{"bad"}}).build("GET", "/")
	assert.Error(t, err)

	_, err = (&requestFlags{data: "{"}).build("GET", "/")
	assert.Error(t, err)
}

func newTestServer(t *testing.T, keys map[string]string) *httptest.Server {
	t.Helper()

	handler, err := NewServerHandler(ServerConfig{
		Keys:      keys,
		Algorithm: paramsign.AlgorithmMD5,
	})
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

func TestRequestCommand(t *testing.T) {
	server := newTestServer(t, map[string]string{"tok": "tok"})

	t.Run("signed get", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SIGNFETCH_TOKEN", "tok")
		t.Setenv("SIGNFETCH_NONCE", "n1")

		out, err := run(t, "", "request", "get", "/items", "-p", "a=1", "--base-url", server.URL)
		require.NoError(t, err)

		var got echo
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "GET", got.Method)
		assert.Equal(t, "/items", got.Path)
		assert.Equal(t, "tok", got.Token)
		assert.Equal(t, "1", got.Params["a"])
	})

	t.Run("signed post", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SIGNFETCH_BASE_URL", server.URL)
		t.Setenv("SIGNFETCH_TOKEN", "tok")
		t.Setenv("SIGNFETCH_NONCE", "n1")

		out, err := run(t, "", "request", "POST", "/items", "-d", `{"name":"ann","n":2}`)
		require.NoError(t, err)

		var got echo
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "POST", got.Method)
		assert.Equal(t, "ann", got.Params["name"])
		assert.EqualValues(t, 2, got.Params["n"])
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SIGNFETCH_TOKEN", "tok")
		t.Setenv("SIGNFETCH_NONCE", "n1")
		t.Setenv("SIGNFETCH_SECRET", "wrong")

		_, err := run(t, "", "request", "GET", "/items", "--base-url", server.URL)

		var fetchErr *fetch.Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, 401, fetchErr.Status)
	})
}

func TestServerHandler(t *testing.T) {
	t.Run("requires keys", func(t *testing.T) {
		_, err := NewServerHandler(ServerConfig{})
		assert.Error(t, err)
	})

	t.Run("rejects bad algorithm", func(t *testing.T) {
		_, err := NewServerHandler(ServerConfig{Keys: map[string]string{"tok": "k"}, Algorithm: "sha1"})
		assert.ErrorIs(t, err, paramsign.ErrUnsupportedAlgorithm)
	})

	server := newTestServer(t, map[string]string{"tok": "secret"})

	client, err := fetch.New(
		fetch.WithBaseURL(server.URL),
		fetch.WithAuth(paramsign.Credentials{Token: "tok", Nonce: "n", Secret: "secret"}),
	)
	require.NoError(t, err)

	t.Run("accepts signed request", func(t *testing.T) {
		raw, err := client.Get(context.Background(), "/echo", map[string]any{"q": "v"})
		require.NoError(t, err)

		got, err := fetch.Decode[echo](raw)
		require.NoError(t, err)
		assert.Equal(t, "v", got.Params["q"])
		assert.NotContains(t, got.Params, paramsign.FieldTimestamp)
	})

	t.Run("rejects unknown token", func(t *testing.T) {
		other, err := client.WithAuth(paramsign.Credentials{Token: "nobody", Nonce: "n", Secret: "secret"})
		require.NoError(t, err)

		_, err = other.Get(context.Background(), "/echo", nil)

		var fetchErr *fetch.Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, 401, fetchErr.Status)
	})

	t.Run("rejects unsigned request", func(t *testing.T) {
		anon, err := fetch.New(fetch.WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = anon.Get(context.Background(), "/echo", nil)

		var fetchErr *fetch.Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, 401, fetchErr.Status)
	})
}

func TestSecretCommand(t *testing.T) {
	keyring.MockInit()

	out, err := run(t, "", "secret", "set", "cli-token", "tok_123")
	require.NoError(t, err)
	assert.Equal(t, "stored keyring:cli-token\n", out)

	val, err := config.ResolveSecret(context.Background(), "keyring:cli-token")
	require.NoError(t, err)
	assert.Equal(t, "tok_123", val)

	_, err = run(t, "from-stdin\n", "secret", "set", "cli-stdin")
	require.NoError(t, err)

	val, err = config.ResolveSecret(context.Background(), "keyring:cli-stdin")
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", val)

	out, err = run(t, "", "secret", "delete", "cli-token")
	require.NoError(t, err)
	assert.Equal(t, "deleted keyring:cli-token\n", out)

	_, err = run(t, "", "secret", "delete", "cli-token")
	assert.ErrorIs(t, err, config.ErrSecretNotFound)
}

func TestRecoverEnvelope(t *testing.T) {
	handler := recoverEnvelope(slog.New(slog.DiscardHandler), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env fetch.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.Equal(t, "Internal Server Error", env.Message)
}
