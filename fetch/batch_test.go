package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPathServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/fail") {
			writeEnvelope(w, 500, nil, "failed")
			return
		}

		writeEnvelope(w, http.StatusOK, r.URL.Path, "")
	}))
	t.Cleanup(server.Close)

	return server
}

func TestClientAll(t *testing.T) {
	server := newPathServer(t)
	ctx := context.Background()

	client, err := New(WithBaseURL(server.URL))
	require.NoError(t, err)

	t.Run("empty input", func(t *testing.T) {
		results, err := client.All(ctx)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("results keep input order", func(t *testing.T) {
		results, err := client.All(ctx,
			Request{URL: "/a"},
			Request{URL: "/b"},
			Request{Method: http.MethodPost, URL: "/c", Data: map[string]int{"x": 1}},
		)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.JSONEq(t, `"/a"`, string(results[0]))
		assert.JSONEq(t, `"/b"`, string(results[1]))
		assert.JSONEq(t, `"/c"`, string(results[2]))
	})

	t.Run("first failure is returned", func(t *testing.T) {
		_, err := client.All(ctx, Request{URL: "/a"}, Request{URL: "/fail"})

		var fe *Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 500, fe.Status)
		assert.Equal(t, "failed", fe.Message)
	})
}

func TestClientBatch(t *testing.T) {
	server := newPathServer(t)
	ctx := context.Background()

	client, err := New(WithBaseURL(server.URL))
	require.NoError(t, err)

	single := Request{Method: "get", URL: "/x"}

	t.Run("single request equals one-element slice", func(t *testing.T) {
		fromSingle, err := client.Batch(ctx, single)
		require.NoError(t, err)

		fromSlice, err := client.Batch(ctx, []Request{single})
		require.NoError(t, err)

		assert.Equal(t, fromSlice, fromSingle)
		assert.Equal(t, []json.RawMessage{json.RawMessage(`"/x"`)}, fromSingle)
	})

	t.Run("pointer forms", func(t *testing.T) {
		fromPtr, err := client.Batch(ctx, &single)
		require.NoError(t, err)
		assert.Len(t, fromPtr, 1)

		fromPtrs, err := client.Batch(ctx, []*Request{&single, &single})
		require.NoError(t, err)
		assert.Len(t, fromPtrs, 2)
	})

	t.Run("empty slice", func(t *testing.T) {
		results, err := client.Batch(ctx, []Request{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("invalid arguments fail before sending", func(t *testing.T) {
		for _, items := range []any{nil, "x", 42, map[string]any{"url": "/x"}, (*Request)(nil), []*Request{nil}} {
			_, err := client.Batch(ctx, items)
			assert.ErrorIs(t, err, ErrInvalidBatch, "%T", items)
		}
	})
}
