package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"FinSignal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*consumerSettings)

type consumerSettings struct {
	reader     kafka.ReaderConfig
	workers    int
	buffer     int
	retries    int
	backoffMin time.Duration
	backoffMax time.Duration
	dlqTopic   string
	l          *logger.Logger
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(s *consumerSettings) { s.reader.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(s *consumerSettings) {
		if groupID != "" {
			s.reader.GroupID = groupID
		}
	}
}

// WithConsumerWorkers sets the number of lanes. Messages of one partition
// always land on the same lane.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(s *consumerSettings) {
		if count > 0 {
			s.workers = count
		}
	}
}

// WithConsumerRetry sets how many times a failed message is retried and the
// backoff range between attempts.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(s *consumerSettings) {
		s.retries = max
		s.backoffMin = backoffMin
		s.backoffMax = backoffMax
	}
}

// WithConsumerDLQ forwards exhausted messages to topic. Without it they stay
// uncommitted and are redelivered after a rebalance.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(s *consumerSettings) { s.dlqTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(s *consumerSettings) {
		if minBytes > 0 {
			s.reader.MinBytes = minBytes
		}
		if maxBytes > 0 {
			s.reader.MaxBytes = maxBytes
		}
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(s *consumerSettings) {
		if n > 0 {
			s.buffer = n
		}
	}
}

func WithConsumerLogger(l *logger.Logger) ConsumerOption {
	return func(s *consumerSettings) {
		if l != nil {
			s.l = l
		}
	}
}

// Consumer fetches registered topics and hands messages to a fixed set of
// lanes. A lane is picked by hashing topic and partition, so one partition is
// processed in offset order while different partitions run in parallel.
type Consumer struct {
	s        consumerSettings
	l        *logger.Logger
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	lanes    []chan kafka.Message
	dlq      *kafka.Writer
	hook     ConsumerHook

	ctx      context.Context
	cancel   context.CancelFunc
	fetchers sync.WaitGroup
	workers  sync.WaitGroup
	stopOnce sync.Once
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	s := consumerSettings{
		reader: kafka.ReaderConfig{
			GroupID:  "finsignal",
			MinBytes: 1,
			MaxBytes: 10e6,
		},
		workers:    1,
		buffer:     10,
		retries:    3,
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
		l:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if len(s.reader.Brokers) == 0 {
		return nil, errors.New("kafka consumer: brokers are required")
	}

	initConsumerMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		s:        s,
		l:        s.l,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		hook:     NoopHook{},
		ctx:      ctx,
		cancel:   cancel,
	}
	if s.dlqTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:     kafka.TCP(s.reader.Brokers...),
			Topic:    s.dlqTopic,
			Balancer: &kafka.Hash{},
		}
	}
	return c, nil
}

// RegisterHandler binds handler to its topic. The first registration wins.
// Must be called before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, dup := c.handlers[topic]; dup {
		c.l.Warn("kafka consumer: duplicate handler ignored", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens one reader per topic and launches the lanes.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}

	c.lanes = make([]chan kafka.Message, c.s.workers)
	for i := range c.lanes {
		lane := make(chan kafka.Message, c.s.buffer)
		c.lanes[i] = lane
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			for msg := range lane {
				c.handle(msg)
			}
		}()
	}

	for topic := range c.handlers {
		rc := c.s.reader
		rc.Topic = topic
		reader := kafka.NewReader(rc)
		c.readers[topic] = reader

		c.fetchers.Add(1)
		go func() {
			defer c.fetchers.Done()
			c.fetch(topic, reader)
		}()
	}

	// lanes close only after every fetcher has returned
	go func() {
		c.fetchers.Wait()
		for _, lane := range c.lanes {
			close(lane)
		}
	}()

	c.l.Info("kafka consumer: started",
		logger.Int("topics", len(c.handlers)),
		logger.Int("lanes", len(c.lanes)))
	return nil
}

// Stop cancels fetching, lets the lanes drain what they already hold and then
// closes the readers. It returns early with an error if ctx expires first.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		c.cancel()

		drained := make(chan struct{})
		go func() {
			c.fetchers.Wait()
			c.workers.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer: stop: %w", ctx.Err())
		}

		for topic, reader := range c.readers {
			if cerr := reader.Close(); cerr != nil {
				c.l.Warn("kafka consumer: close reader", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.l.Warn("kafka consumer: close dlq writer", logger.Error(cerr))
			}
		}
		if err == nil {
			c.l.Info("kafka consumer: stopped")
		}
	})
	return err
}

func (c *Consumer) fetch(topic string, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.l.Warn("kafka consumer: fetch failed", logger.String("topic", topic), logger.Error(err))
			if !c.sleep(c.s.backoffMin) {
				return
			}
			continue
		}

		lane := c.lanes[laneIndex(msg.Topic, msg.Partition, len(c.lanes))]
		select {
		case lane <- msg:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(lane)))
		case <-c.ctx.Done():
			return
		}
	}
}

func laneIndex(topic string, partition, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	_, _ = h.Write([]byte(strconv.Itoa(partition)))
	return int(h.Sum32() % uint32(n))
}

// handle runs the handler with retries, dead-letters on exhaustion and
// commits. A message is committed when it succeeded or reached the DLQ.
func (c *Consumer) handle(msg kafka.Message) {
	handler, ok := c.handlers[msg.Topic]
	if !ok {
		return
	}
	start := time.Now()

	var err error
	attempts := 0
	for {
		attempts++
		if err = c.attempt(handler, msg); err == nil || attempts > c.s.retries {
			break
		}
		if !c.sleep(backoffWithJitter(c.s.backoffMin, c.s.backoffMax, attempts)) {
			return
		}
	}

	result := "ok"
	commit := err == nil
	if err != nil {
		result = "error"
		c.l.Error("kafka consumer: handler failed",
			logger.String("topic", msg.Topic),
			logger.Int("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		commit = c.deadLetter(msg, err)
	}

	if commit {
		if reader := c.readers[msg.Topic]; reader != nil {
			c.commit(reader, msg)
		}
	}
	consumerHandled.WithLabelValues(msg.Topic, result).Inc()
	consumerHandleLatency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) attempt(handler MessageHandler, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	ctx, err := c.hook.BeforeHandle(context.Background(), msg.Topic, msg)
	if err != nil {
		return err
	}
	err = handler.Handle(ctx, msg.Value)
	safeAfter(c.hook, ctx, msg.Topic, msg, err)
	return err
}

func (c *Consumer) deadLetter(msg kafka.Message, cause error) bool {
	if c.dlq == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "source_topic", Value: []byte(msg.Topic)},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
	})
	if err != nil {
		c.l.Error("kafka consumer: dlq write failed", logger.String("topic", c.s.dlqTopic), logger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) commit(reader *kafka.Reader, msg kafka.Message) {
	const tries = 3
	var err error
	for i := 1; i <= tries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, i))
	}
	c.l.Error("kafka consumer: commit failed",
		logger.String("topic", msg.Topic),
		logger.Int64("offset", msg.Offset),
		logger.Error(err))
}

// sleep waits d or until the consumer stops. It reports whether d elapsed.
func (c *Consumer) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// backoffWithJitter doubles min per attempt, caps at max and subtracts up to
// half of the result at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int64N(half))
	}
	return d
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandled       *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerOnce          sync.Once
)

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "finsignal_kafka_consumer_queue_depth", Help: "Messages waiting in a consumer lane"},
			[]string{"topic"},
		)
		consumerHandled = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "finsignal_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "finsignal_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
