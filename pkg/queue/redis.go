package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"FinSignal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const promoteBatch = 100

var ErrNotRunning = errors.New("queue: not running")

// RedisQueue keeps ready messages in a list, delayed and retried messages in
// a sorted set scored by due time in milliseconds, and exhausted messages in
// a dead letter list.
type RedisQueue struct {
	l      *logger.Logger
	cfg    Config
	client *redis.Client
	prefix string

	newID func() string
	now   func() time.Time

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*RedisQueue)

// WithKeyPrefix namespaces the queue keys. Default "queue".
func WithKeyPrefix(prefix string) Option {
	return func(q *RedisQueue) {
		if prefix != "" {
			q.prefix = prefix
		}
	}
}

func NewRedisQueue(l *logger.Logger, cfg *Config, client *redis.Client, opts ...Option) *RedisQueue {
	q := &RedisQueue{
		l:      l,
		cfg:    cfg.withDefaults(),
		client: client,
		prefix: "queue",
		newID:  uuid.NewString,
		now:    time.Now,
		jobs:   make(map[string]Job),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// RegisterJob binds a job to its type. A second job for the same type is
// ignored.
func (q *RedisQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dup := q.jobs[job.Type()]; dup {
		q.l.Warn("job already registered", logger.String("type", job.Type()))
		return
	}
	q.jobs[job.Type()] = job
}

// Start pings Redis and launches the workers and the delayed message promoter.
func (q *RedisQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("queue: already running")
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := q.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	q.wg.Add(1)
	go q.promoteLoop(ctx)

	q.l.Info("queue started",
		logger.Int("workers", q.cfg.Workers),
		logger.String("prefix", q.prefix))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs until ctx expires.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.l.Info("queue stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue stop: %w", ctx.Err())
	}
}

// Enqueue makes a message ready now.
func (q *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	data, err := q.encode(msgType, payload)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.readyKey(), data).Err()
}

// EnqueueAt delays a message until at. Delivery lags by up to one poll
// interval.
func (q *RedisQueue) EnqueueAt(ctx context.Context, msgType string, payload interface{}, at time.Time) error {
	data, err := q.encode(msgType, payload)
	if err != nil {
		return err
	}
	return q.schedule(ctx, data, at)
}

func (q *RedisQueue) encode(msgType string, payload interface{}) (string, error) {
	q.mu.RLock()
	running := q.running
	_, known := q.jobs[msgType]
	q.mu.RUnlock()
	if !running {
		return "", ErrNotRunning
	}
	if !known {
		return "", fmt.Errorf("queue: no job registered for type %q", msgType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	env := envelope{ID: q.newID(), Type: msgType, Payload: raw, EnqueuedAt: q.now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (q *RedisQueue) schedule(ctx context.Context, data string, at time.Time) error {
	return q.client.ZAdd(ctx, q.delayedKey(), redis.Z{Score: float64(at.UnixMilli()), Member: data}).Err()
}

func (q *RedisQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		res, err := q.client.BRPop(ctx, q.cfg.BlockTimeout, q.readyKey()).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			q.l.Error("brpop", logger.Error(err))
			sleepCtx(ctx, time.Second)
			continue
		}
		if len(res) == 2 {
			q.process(ctx, res[1])
		}
	}
}

// process runs one message and decides its fate on failure.
func (q *RedisQueue) process(ctx context.Context, data string) {
	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		q.l.Error("drop undecodable message", logger.Error(err))
		return
	}

	q.mu.RLock()
	job, ok := q.jobs[env.Type]
	q.mu.RUnlock()
	if !ok {
		q.l.Error("no job for message", logger.String("type", env.Type), logger.String("id", env.ID))
		q.bury(ctx, env)
		return
	}

	err := job.Handle(ctx, env.Payload)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// shutting down; run it again after restart
		q.retry(context.Background(), env, q.now())
		return
	}

	q.l.Warn("job failed",
		logger.String("job", job.Name()),
		logger.String("id", env.ID),
		logger.Int("attempt", env.Attempts+1),
		logger.Error(err))

	if env.Attempts >= q.cfg.RetryLimit {
		q.bury(ctx, env)
		return
	}
	env.Attempts++
	q.retry(ctx, env, q.now().Add(q.cfg.RetryDelay))
}

func (q *RedisQueue) retry(ctx context.Context, env envelope, at time.Time) {
	data, err := json.Marshal(env)
	if err == nil {
		err = q.schedule(ctx, string(data), at)
	}
	if err != nil {
		q.l.Error("schedule retry", logger.String("id", env.ID), logger.Error(err))
	}
}

func (q *RedisQueue) bury(ctx context.Context, env envelope) {
	data, err := json.Marshal(env)
	if err == nil {
		err = q.client.LPush(ctx, q.deadKey(), string(data)).Err()
	}
	if err != nil {
		q.l.Error("dead letter", logger.String("id", env.ID), logger.Error(err))
	}
}

func (q *RedisQueue) promoteLoop(ctx context.Context) {
	defer q.wg.Done()
	t := time.NewTicker(q.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := q.promoteDue(ctx); err != nil && ctx.Err() == nil {
				q.l.Error("promote delayed messages", logger.Error(err))
			}
		}
	}
}

// promoteDue moves due delayed messages to the ready list. Only the caller
// whose ZREM succeeds pushes a member, so several instances can poll the
// same set.
func (q *RedisQueue) promoteDue(ctx context.Context) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(q.now().UnixMilli(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		n, err := q.client.ZRem(ctx, q.delayedKey(), member).Result()
		if err != nil {
			return moved, err
		}
		if n == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.readyKey(), member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func (q *RedisQueue) readyKey() string   { return q.prefix + ":ready" }
func (q *RedisQueue) delayedKey() string { return q.prefix + ":delayed" }
func (q *RedisQueue) deadKey() string    { return q.prefix + ":dlq" }

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
