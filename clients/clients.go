package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// HTTP talks to the model services. Every call is retried with exponential
// backoff on transport errors and 5xx answers.
type HTTP struct {
	c        *http.Client
	maxTries uint
	initial  time.Duration
}

func NewHTTP(timeout time.Duration, maxRetries int) *HTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTP{
		c:        &http.Client{Timeout: timeout},
		maxTries: uint(maxRetries) + 1,
		initial:  500 * time.Millisecond,
	}
}

// StatusError is a non-200 answer from a service.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d %s: %s", e.Service, e.Code, http.StatusText(e.Code), e.Body)
}

// do sends the request built by newReq and decodes a JSON answer into out.
// newReq is called once per attempt so bodies can be replayed.
func (h *HTTP) do(ctx context.Context, service string, newReq func() (*http.Request, error), out any) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = h.initial

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		req, err := newReq()
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		resp, err := h.c.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			serr := &StatusError{Service: service, Code: resp.StatusCode, Body: string(body)}
			if resp.StatusCode >= 500 {
				return struct{}{}, serr
			}
			return struct{}{}, backoff.Permanent(serr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%s decode: %w", service, err))
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(h.maxTries))
	return err
}
