package analytics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"FinSignal/pkg/breaker"

	"github.com/go-resty/resty/v2"
)

// HTTPServiceBase posts JSON to a remote analysis service behind a breaker.
// Transport errors and 5xx answers are retried; 4xx answers are not.
type HTTPServiceBase struct {
	client *resty.Client
	cb     *breaker.Breaker
}

// NewHTTPServiceBase makes up to attempts tries per call (at least one).
func NewHTTPServiceBase(baseURL string, timeout time.Duration, attempts int, cb *breaker.Breaker) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if attempts < 1 {
		attempts = 1
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(attempts - 1).
		SetRetryWaitTime(50 * time.Millisecond).
		SetRetryMaxWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &HTTPServiceBase{client: client, cb: cb}
}

// PostJSON posts payload to path and decodes the JSON answer into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload, dest interface{}) error {
	send := func() (struct{}, error) {
		resp, err := b.client.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(dest).
			ForceContentType("application/json").
			Post(path)
		if err != nil {
			return struct{}{}, err
		}
		if resp.IsError() {
			return struct{}{}, fmt.Errorf("status %d", resp.StatusCode())
		}
		return struct{}{}, nil
	}

	var err error
	if b.cb != nil {
		_, err = breaker.Do(b.cb, send)
	} else {
		_, err = send()
	}
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
