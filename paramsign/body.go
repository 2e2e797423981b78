package paramsign

import (
	"bytes"
	"io"
	"net/http"
)

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so the body can be consumed again downstream. When limit is
// positive, bodies longer than limit fail with ErrBodyTooLarge.
func readAndRestoreBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	var reader io.Reader = r.Body
	if limit > 0 {
		reader = io.LimitReader(r.Body, limit+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	if limit > 0 && int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}

	return body, nil
}
