package paramsign

import (
	"bytes"
	"encoding/json"
	"maps"
	"net/url"
)

// Params is the set of request inputs considered for signing: query
// parameters, body fields and injected contextual fields. Insertion order is
// irrelevant; the canonical form sorts keys.
type Params map[string]any

// Merge returns a new Params holding the union of bags. Keys in later bags
// override keys in earlier ones.
func Merge(bags ...Params) Params {
	out := make(Params)
	for _, bag := range bags {
		maps.Copy(out, bag)
	}

	return out
}

// ParamsFromQuery converts url.Values into Params. A key with a single value
// maps to that string; a repeated key maps to a []any of its strings.
func ParamsFromQuery(values url.Values) Params {
	out := make(Params, len(values))

	for k, vs := range values {
		switch len(vs) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			out[k] = list
		}
	}

	return out
}

// ParamsFromJSON decodes a JSON object into Params. Numbers are kept as
// json.Number so their text is signed exactly as sent. Bodies that are empty
// or not a JSON object yield empty Params and no error.
func ParamsFromJSON(body []byte) (Params, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Params{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out Params
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}

	if out == nil {
		out = Params{}
	}

	return out, nil
}
