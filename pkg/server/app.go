package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/queue"
)

// Verifier periodically reconciles derived state until ctx is done.
type Verifier interface {
	RunVerifier(ctx context.Context, interval time.Duration)
}

// Broadcaster is a push channel that must release its subscribers on exit.
type Broadcaster interface {
	Close()
}

// Option configures App.
type Option func(*App)

func WithHTTPServer(s *xhttp.Server) Option {
	return func(a *App) { a.httpServer = s }
}

// WithKafkaConsumer attaches a consumer; nil leaves Kafka ingestion off.
func WithKafkaConsumer(c *pkgkafka.Consumer) Option {
	return func(a *App) { a.consumer = c }
}

// WithQueue attaches the delayed job queue; nil leaves it off.
func WithQueue(q *queue.RedisQueue) Option {
	return func(a *App) { a.queue = q }
}

func WithHub(b Broadcaster) Option {
	return func(a *App) { a.hub = b }
}

// WithVerifier runs v every interval. A non-positive interval disables it.
func WithVerifier(v Verifier, interval time.Duration) Option {
	return func(a *App) {
		a.verifier = v
		a.verifyEvery = interval
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	httpServer  *xhttp.Server
	consumer    *pkgkafka.Consumer
	queue       *queue.RedisQueue
	hub         Broadcaster
	verifier    Verifier
	verifyEvery time.Duration

	wg sync.WaitGroup
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, opts ...Option) *App {
	a := &App{cfg: cfg, l: l}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until ctx is cancelled or an
// interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	if a.httpServer == nil {
		return errors.New("http server is not configured")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			return err
		}
		a.l.Info("settlement queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started",
			applogger.String("bars_topic", a.cfg.Kafka.BarsTopic),
			applogger.String("settlements_topic", a.cfg.Kafka.SettlementsTopic))
	}

	if a.verifier != nil && a.verifyEvery > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.verifier.RunVerifier(bg, a.verifyEvery)
		}()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops inbound traffic first, then background workers.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.l.Warn("queue stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.wg.Wait()

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
