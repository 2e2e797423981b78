package paramsign

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signatureRegex = regexp.MustCompile(`^[0-9A-F]{32}$`)

func TestSign(t *testing.T) {
	t.Run("empty params hashes only the key", func(t *testing.T) {
		assert.Equal(t, "80353F06772F9B5C80204F40D0D34FDA", Sign(Params{}, "secret"))
		assert.Equal(t, Sign(nil, "secret"), Sign(Params{}, "secret"))
	})

	t.Run("known vector", func(t *testing.T) {
		params := Params{"a": 1, "b": "x"}

		assert.Equal(t, "a=1&b=x&key=k", CanonicalString(params, "k"))
		assert.Equal(t, "9758484A5E52931C8ED842D7794B28BB", Sign(params, "k"))
	})

	t.Run("timestamp field sorts first", func(t *testing.T) {
		params := Params{"b": "x", "a": 1, FieldTimestamp: int64(1700000000000)}

		assert.Equal(t, "__timestamp__=1700000000000&a=1&b=x&key=tok", CanonicalString(params, "tok"))
		assert.Equal(t, "B2295E684F369E8717F385EB5F5D8CA1", Sign(params, "tok"))
	})

	t.Run("returns 32 upper-case hex characters", func(t *testing.T) {
		sig := Sign(Params{"q": "search", "page": 2, "ok": true}, "secret")
		assert.Regexp(t, signatureRegex, sig)
	})

	t.Run("deterministic", func(t *testing.T) {
		params := Params{"a": 1, "b": []any{"x", "y"}, "c": nil}
		first := Sign(params, "k")

		for range 10 {
			assert.Equal(t, first, Sign(params, "k"))
		}
	})

	t.Run("different keys produce different signatures", func(t *testing.T) {
		params := Params{"a": 1}
		assert.NotEqual(t, Sign(params, "k1"), Sign(params, "k2"))
	})

	t.Run("insertion order does not matter", func(t *testing.T) {
		a := Params{}
		b := Params{}

		keys := []string{"zeta", "alpha", "mid", "Beta", "_under"}
		for i, k := range keys {
			a[k] = i
		}
		for i := len(keys) - 1; i >= 0; i-- {
			b[keys[i]] = i
		}

		assert.Equal(t, Sign(a, "k"), Sign(b, "k"))
	})

	t.Run("keys sort byte-wise", func(t *testing.T) {
		params := Params{"b": 1, "B": 2, "a": 3, "_": 4}
		assert.Equal(t, "B=2&_=4&a=3&b=1&key=k", CanonicalString(params, "k"))
	})

	t.Run("long values are excluded", func(t *testing.T) {
		base := Params{"a": 1}
		withLong := Params{"a": 1, "blob": strings.Repeat("x", 62)}

		assert.Equal(t, Sign(base, "k"), Sign(withLong, "k"))
	})

	t.Run("value just under the limit is included", func(t *testing.T) {
		base := Params{"a": 1}
		withShort := Params{"a": 1, "blob": strings.Repeat("x", 61)}

		assert.NotEqual(t, Sign(base, "k"), Sign(withShort, "k"))
	})

	t.Run("long nested values are excluded", func(t *testing.T) {
		list := make([]any, 40)
		for i := range list {
			list[i] = i
		}

		base := Params{"a": 1}
		withList := Params{"a": 1, "list": list}

		assert.Equal(t, Sign(base, "k"), Sign(withList, "k"))
	})

	t.Run("changing an included value changes the signature", func(t *testing.T) {
		assert.NotEqual(t,
			Sign(Params{"a": 1, "b": "x"}, "k"),
			Sign(Params{"a": 2, "b": "x"}, "k"),
		)
	})

	t.Run("unencodable values are excluded", func(t *testing.T) {
		base := Params{"a": 1}
		withFunc := Params{"a": 1, "fn": func() {}}

		assert.Equal(t, Sign(base, "k"), Sign(withFunc, "k"))
	})

	t.Run("safe for concurrent use", func(t *testing.T) {
		params := Params{"a": 1, "b": "x"}
		want := Sign(params, "k")

		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, want, Sign(params, "k"), fmt.Sprintf("goroutine %d", i))
			}()
		}
		wg.Wait()
	})
}

func TestCanonicalBase(t *testing.T) {
	assert.Equal(t, "", canonicalBase(Params{}))
	assert.Equal(t, "a=1&b=x", canonicalBase(Params{"b": "x", "a": 1}))
}

func TestSignedKeys(t *testing.T) {
	keys := signedKeys(Params{
		"c":    "short",
		"a":    1,
		"long": strings.Repeat("y", 100),
	})

	require.Len(t, keys, 2)
	assert.Equal(t, []string{"a", "c"}, keys)
}
