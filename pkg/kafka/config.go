package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerOption adjusts the underlying writer before it is used.
type ProducerOption func(*producerSettings)

type producerSettings struct {
	brokers     []string
	compression string
	w           *kafka.Writer
}

// newProducerSettings favours durability: acks from all replicas, gzip, and
// key hashing so one asset's events stay ordered.
func newProducerSettings() *producerSettings {
	return &producerSettings{
		compression: "gzip",
		w: &kafka.Writer{
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Gzip,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  10 * time.Second,
			BatchSize:    100,
			BatchBytes:   1 << 20,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(s *producerSettings) { s.brokers = brokers }
}

// WithCompression accepts gzip, snappy, lz4 or zstd; anything else means gzip.
func WithCompression(name string) ProducerOption {
	return func(s *producerSettings) {
		s.w.Compression = parseCompression(name)
		s.compression = s.w.Compression.String()
	}
}

// WithRequiredAcks takes -1 (all), 0 (none) or 1 (leader).
func WithRequiredAcks(acks int) ProducerOption {
	return func(s *producerSettings) { s.w.RequiredAcks = kafka.RequiredAcks(acks) }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(s *producerSettings) {
		if n > 0 {
			s.w.MaxAttempts = n
		}
	}
}

func WithBatchSize(n int) ProducerOption {
	return func(s *producerSettings) {
		if n > 0 {
			s.w.BatchSize = n
		}
	}
}

func WithBatchBytes(n int) ProducerOption {
	return func(s *producerSettings) {
		if n > 0 {
			s.w.BatchBytes = int64(n)
		}
	}
}

// WithBatchTimeout is the linger before a partial batch is sent.
func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(s *producerSettings) {
		if d > 0 {
			s.w.BatchTimeout = d
		}
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(s *producerSettings) {
		if write > 0 {
			s.w.WriteTimeout = write
		}
		if read > 0 {
			s.w.ReadTimeout = read
		}
	}
}

// WithAsync makes writes fire-and-forget; errors are then only counted.
func WithAsync(async bool) ProducerOption {
	return func(s *producerSettings) { s.w.Async = async }
}

// WithHashByKey keeps per-key ordering. Off, batches go to the least loaded
// partition.
func WithHashByKey(hash bool) ProducerOption {
	return func(s *producerSettings) {
		if hash {
			s.w.Balancer = &kafka.Hash{}
		} else {
			s.w.Balancer = &kafka.LeastBytes{}
		}
	}
}

func WithAutoCreateTopics(on bool) ProducerOption {
	return func(s *producerSettings) { s.w.AllowAutoTopicCreation = on }
}

func parseCompression(name string) kafka.Compression {
	switch strings.ToLower(name) {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
