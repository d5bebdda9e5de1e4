// Package breaker wraps sony/gobreaker for outbound calls.
package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

type Config struct {
	Name                string
	ConsecutiveFailures uint32
	Interval            time.Duration
	Timeout             time.Duration
	OnStateChange       func(name string, from, to string)
}

type Option func(*Config)

func WithConsecutiveFailures(n uint32) Option {
	return func(c *Config) { c.ConsecutiveFailures = n }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

func WithInterval(d time.Duration) Option {
	return func(c *Config) { c.Interval = d }
}

func WithStateChange(fn func(name, from, to string)) Option {
	return func(c *Config) { c.OnStateChange = fn }
}

type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New trips after 3 consecutive failures and probes again after 60s.
func New(name string, opts ...Option) *Breaker {
	cfg := &Config{
		Name:                name,
		ConsecutiveFailures: 3,
		Interval:            60 * time.Second,
		Timeout:             60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	st := gobreaker.Settings{
		Name:     cfg.Name,
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}
	if cfg.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from.String(), to.String())
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker. Rejections are reported as ErrOpen.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrOpen
	}
	return v, err
}

// Do is Execute with a typed result.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	v, err := b.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func (b *Breaker) State() string { return b.cb.State().String() }
