package fetch

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RequestStage transforms an outgoing request. Returning an error aborts
// the request; it surfaces as an Error with StatusNoResponse.
type RequestStage func(r *http.Request) (*http.Request, error)

// ResponseStage transforms a received response before normalization.
// Returning an error aborts normalization; errors that are not an *Error
// surface as an Error carrying the HTTP status.
type ResponseStage func(res *Response) (*Response, error)

// RateLimitStage returns a RequestStage that blocks until limiter allows
// the request or the request context is done.
func RateLimitStage(limiter *rate.Limiter) RequestStage {
	return func(r *http.Request) (*http.Request, error) {
		if err := limiter.Wait(r.Context()); err != nil {
			return nil, err
		}

		return r, nil
	}
}

func runRequestStages(r *http.Request, stages []RequestStage) (*http.Request, error) {
	for _, stage := range stages {
		next, err := stage(r)
		if err != nil {
			return nil, err
		}

		if next != nil {
			r = next
		}
	}

	return r, nil
}

func runResponseStages(res *Response, stages []ResponseStage) (*Response, error) {
	for _, stage := range stages {
		next, err := stage(res)
		if err != nil {
			if fe, ok := err.(*Error); ok {
				return nil, fe
			}

			return nil, &Error{Status: res.StatusCode, Message: err.Error(), Err: err}
		}

		if next != nil {
			res = next
		}
	}

	return res, nil
}
