package paramsign

import (
	"crypto/md5"
	"encoding/hex"
	"slices"
	"strings"
)

// MaxValueLength is the exclusive upper bound on the JSON text length of a
// value included in the signature. Longer values are not authenticated.
const MaxValueLength = 64

// Sign returns the legacy signature of params under key: the upper-case hex
// MD5 digest of CanonicalString(params, key). It has no side effects and is
// safe for concurrent use.
func Sign(params Params, key string) string {
	sum := md5.Sum([]byte(CanonicalString(params, key)))

	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// CanonicalString returns the string that Sign hashes:
//
//	k1=v1&k2=v2&...&key=<key>
//
// Keys are sorted byte-wise and values are rendered with FormatValue. Keys
// whose value has a JSON length of MaxValueLength or more are skipped.
func CanonicalString(params Params, key string) string {
	var sb strings.Builder
	writePairs(&sb, params)
	sb.WriteString("key=")
	sb.WriteString(key)

	return sb.String()
}

// canonicalBase returns the sorted "k=v" pairs joined with "&", without the
// key suffix.
func canonicalBase(params Params) string {
	var sb strings.Builder
	writePairs(&sb, params)

	return strings.TrimSuffix(sb.String(), "&")
}

func writePairs(sb *strings.Builder, params Params) {
	for _, k := range signedKeys(params) {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(FormatValue(params[k]))
		sb.WriteByte('&')
	}
}

// signedKeys returns the keys of params eligible for signing, sorted.
func signedKeys(params Params) []string {
	keys := make([]string, 0, len(params))

	for k, v := range params {
		n, ok := JSONLength(v)
		if !ok || n >= MaxValueLength {
			continue
		}
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
