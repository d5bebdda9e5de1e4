// Package feargreed fetches the crypto Fear & Greed index.
package feargreed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/breaker"

	"github.com/go-resty/resty/v2"
)

const DefaultURL = "https://api.alternative.me/fng/"

type Client struct {
	client *resty.Client
	url    string
	cb     *breaker.Breaker
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.SetTimeout(d)
		}
	}
}

func WithBreaker(b *breaker.Breaker) Option {
	return func(c *Client) { c.cb = b }
}

func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		client: resty.New().SetTimeout(10 * time.Second),
		url:    url,
		cb:     breaker.New("feargreed"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// FearGreed returns the latest index reading.
func (c *Client) FearGreed(ctx context.Context) (*models.FearGreedReading, error) {
	return breaker.Do(c.cb, func() (*models.FearGreedReading, error) {
		return c.fetch(ctx)
	})
}

func (c *Client) fetch(ctx context.Context) (*models.FearGreedReading, error) {
	var out fngResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		SetResult(&out).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fear greed request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fear greed status %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("fear greed: empty data")
	}

	d := out.Data[0]
	value, err := strconv.Atoi(d.Value)
	if err != nil {
		return nil, fmt.Errorf("fear greed value %q: %w", d.Value, err)
	}
	reading := &models.FearGreedReading{Value: value, Classification: d.ValueClassification}
	if ts, err := strconv.ParseInt(d.Timestamp, 10, 64); err == nil {
		reading.Timestamp = time.Unix(ts, 0).UTC()
	}
	return reading, nil
}

var _ domsvc.SentimentSource = (*Client)(nil)
