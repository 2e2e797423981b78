package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// All sends reqs concurrently and returns their bodies in input order. The
// first failure cancels the remaining requests and is returned. An empty
// input yields an empty result.
func (c *Client) All(ctx context.Context, reqs ...Request) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)

	for i, req := range reqs {
		g.Go(func() error {
			body, err := c.Do(ctx, req)
			if err != nil {
				return err
			}

			results[i] = body
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Batch is All for a dynamically typed argument. items may be a Request, a
// *Request, a []Request or a []*Request; anything else fails with
// ErrInvalidBatch before any request is sent.
func (c *Client) Batch(ctx context.Context, items any) ([]json.RawMessage, error) {
	var reqs []Request

	switch v := items.(type) {
	case Request:
		reqs = []Request{v}
	case *Request:
		if v == nil {
			return nil, ErrInvalidBatch
		}
		reqs = []Request{*v}
	case []Request:
		reqs = v
	case []*Request:
		reqs = make([]Request, 0, len(v))
		for i, r := range v {
			if r == nil {
				return nil, fmt.Errorf("%w: nil request at index %d", ErrInvalidBatch, i)
			}
			reqs = append(reqs, *r)
		}
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidBatch, items)
	}

	return c.All(ctx, reqs...)
}
