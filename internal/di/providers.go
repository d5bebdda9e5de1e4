package di

import (
	"context"
	"fmt"
	"time"

	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/handler/api"
	"FinSignal/internal/handler/ws"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/service/feargreed"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/analytics"
	"FinSignal/internal/services/fusion"
	"FinSignal/internal/services/instruments"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/cache"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/queue"
	"FinSignal/pkg/server"

	"github.com/jmoiron/sqlx"
	kafkago "github.com/segmentio/kafka-go"
)

// Toolkit is the subset of the graph used by one-shot CLI commands.
type Toolkit struct {
	Market      domrepo.MarketData
	Engine      *fusion.Engine
	Performance *usecase.PerformanceUseCase
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and the bar tables.
// Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.BarSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvideBarStore picks ClickHouse when available, else an in-process store.
func ProvideBarStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.BarStore {
	if ch == nil {
		l.Warn("clickhouse disabled, keeping bars in memory", applogger.Int("capacity", cfg.Market.MemoryBars))
		return internalrepo.NewMemoryBarStore(cfg.Market.MemoryBars)
	}
	store := internalrepo.NewCHBarStore(ch)
	store.SetLogger(l.With(applogger.String("component", "bar_store")))
	return store
}

// ProvideMarketData resolves instrument labels to feed symbols on top of bar storage.
func ProvideMarketData(cfg *config.Config, bars domrepo.BarStore) domrepo.MarketData {
	return internalrepo.NewInstrumentSource(bars, instruments.DataSymbol, instruments.IsOTC, cfg.Market.OTCVariance)
}

// ProvideDecisionStore opens the configured decision store.
func ProvideDecisionStore(cfg *config.Config, l *applogger.Logger) (domrepo.DecisionStore, func(), error) {
	if cfg.Storage.Driver == "memory" {
		l.Warn("decision store is in memory, history is lost on restart")
		return internalrepo.NewMemoryDecisionStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)

	store := internalrepo.NewPostgresDecisionStore(db, cfg.Storage.QueryTimeout)
	if err := store.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("postgres schema: %w", err)
	}
	return store, func() { _ = db.Close() }, nil
}

// ProvideRedisCache connects to Redis. Returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCacheService falls back to a process-local cache without Redis.
func ProvideCacheService(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache()
	}
	return rc
}

func ProvidePerformanceCache(c cache.Service) domrepo.PerformanceCache {
	return internalrepo.NewPerformanceCache(c)
}

func ProvideLocker(c cache.Service) usecase.Locker {
	return c
}

// ProvideKafkaProducer creates a Kafka producer and, when configured, ships
// aggregated error logs through it. Returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Logging.Collector.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      producer,
		})
	}

	return producer, func() {
		l.RemoveCollector()
		_ = producer.Close()
	}, nil
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l.With(applogger.String("component", "ws_hub")))
}

// ProvideDecisionPublishers lists every sink for decision events.
func ProvideDecisionPublishers(cfg *config.Config, producer *pkgkafka.Producer, hub *ws.Hub) []domrepo.DecisionPublisher {
	pubs := []domrepo.DecisionPublisher{hub}
	if producer != nil {
		pubs = append(pubs, internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.DecisionsTopic))
	}
	return pubs
}

// ProvideStructureAnalyzer returns nil when no structure service is configured.
func ProvideStructureAnalyzer(cfg *config.Config) domsvc.StructureAnalyzer {
	if !cfg.Structure.Enabled {
		return nil
	}
	return analytics.NewHTTPStructureAnalyzer(cfg.Structure.URL, analytics.StructureConfig{
		Timeout: cfg.Structure.Timeout,
		Retries: cfg.Structure.Retries,
	})
}

// ProvideSentimentSource returns nil when the fear/greed feed is disabled.
func ProvideSentimentSource(cfg *config.Config) domsvc.SentimentSource {
	if !cfg.Sentiment.Enabled {
		return nil
	}
	return feargreed.NewClient(cfg.Sentiment.URL, feargreed.WithTimeout(cfg.Sentiment.Timeout))
}

// ProvideFusionEngine maps the fusion section onto the engine policy.
func ProvideFusionEngine(
	cfg *config.Config,
	structure domsvc.StructureAnalyzer,
	sentiment domsvc.SentimentSource,
	l *applogger.Logger,
) (*fusion.Engine, error) {
	fc := fusion.Config{
		MinBars:             cfg.Fusion.MinBars,
		BaseConfidence:      cfg.Fusion.BaseConfidence,
		MaxConfidence:       cfg.Fusion.MaxConfidence,
		DefaultVolatility:   cfg.Fusion.DefaultVolatility,
		HighVolatility:      cfg.Fusion.HighVolatility,
		MidVolatility:       cfg.Fusion.MidVolatility,
		RSIOversold:         cfg.Fusion.RSIOversold,
		RSIOverbought:       cfg.Fusion.RSIOverbought,
		OTCExpiries:         cfg.Fusion.OTCExpiries,
		StandardExpiries:    cfg.Fusion.StandardExpiries,
		CollaboratorTimeout: cfg.Fusion.CollaboratorTimeout,
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("fusion config: %w", err)
	}

	opts := []fusion.Option{fusion.WithLogger(l.With(applogger.String("component", "fusion")))}
	if structure != nil {
		opts = append(opts, fusion.WithStructureAnalyzer(structure))
	}
	if sentiment != nil {
		opts = append(opts, fusion.WithSentimentSource(sentiment))
	}
	return fusion.NewEngine(fc, opts...), nil
}

func ProvidePerformanceUseCase(
	store domrepo.DecisionStore,
	pc domrepo.PerformanceCache,
	locker usecase.Locker,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PerformanceUseCase {
	return usecase.NewPerformanceUseCase(store, pc, locker, m, l.With(applogger.String("component", "performance")))
}

func ProvideSettlementUseCase(
	cfg *config.Config,
	store domrepo.DecisionStore,
	bars domrepo.BarStore,
	perf *usecase.PerformanceUseCase,
	m domrepo.Metrics,
	l *applogger.Logger,
	pubs []domrepo.DecisionPublisher,
) *usecase.SettlementUseCase {
	// outcomes are judged on feed prices, never on OTC-jittered ones
	closes := internalrepo.NewInstrumentSource(bars, instruments.DataSymbol, instruments.IsOTC, false)
	rule := usecase.CloseRule{
		Timeframe: domrepo.Timeframe(cfg.Market.Timeframe),
		MaxLag:    cfg.Settlement.MaxCloseLag,
	}
	payoff := usecase.Payoff{Stake: cfg.Settlement.Stake, Payout: cfg.Settlement.Payout}
	return usecase.NewSettlementUseCase(store, closes, rule, perf, payoff, m, l.With(applogger.String("component", "settlement")), pubs...)
}

// ProvideSettlementQueue creates the delayed job queue for automatic
// settlement. Returns nil unless Redis is enabled and auto settlement is on.
func ProvideSettlementQueue(cfg *config.Config, rc *cache.RedisCache, settle *usecase.SettlementUseCase, l *applogger.Logger) *queue.RedisQueue {
	if rc == nil || !cfg.Settlement.Auto {
		return nil
	}
	q := queue.NewRedisQueue(
		l.With(applogger.String("component", "settlement_queue")),
		&queue.Config{
			Workers:      cfg.Queue.Workers,
			RetryLimit:   cfg.Queue.RetryLimit,
			RetryDelay:   cfg.Queue.RetryDelay,
			PollInterval: cfg.Queue.PollInterval,
		},
		rc.Client(),
		queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"),
	)
	q.RegisterJob(usecase.NewSettlementJob(settle))
	return q
}

func ProvideSettlementScheduler(cfg *config.Config, q *queue.RedisQueue) domrepo.SettlementScheduler {
	if q == nil {
		return nil
	}
	return internalrepo.NewQueueSettlementScheduler(q, cfg.Settlement.Grace)
}

func ProvideSignalGenerator(
	cfg *config.Config,
	market domrepo.MarketData,
	engine *fusion.Engine,
	store domrepo.DecisionStore,
	pubs []domrepo.DecisionPublisher,
	scheduler domrepo.SettlementScheduler,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.SignalGenerator {
	opts := []usecase.GeneratorOption{
		usecase.WithPublishers(pubs...),
		usecase.WithLookback(cfg.Market.Lookback, domrepo.Timeframe(cfg.Market.Timeframe)),
	}
	if scheduler != nil {
		opts = append(opts, usecase.WithScheduler(scheduler))
	}
	return usecase.NewSignalGenerator(market, engine, store, m, l.With(applogger.String("component", "generator")), opts...)
}

func ProvideSignalsQuery(store domrepo.DecisionStore) *usecase.SignalsQueryUseCase {
	return usecase.NewSignalsQueryUseCase(store)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func ProvideSignalsHandler(
	l *applogger.Logger,
	gen *usecase.SignalGenerator,
	settle *usecase.SettlementUseCase,
	query *usecase.SignalsQueryUseCase,
	perf *usecase.PerformanceUseCase,
	limiter *ratelimit.Limiter,
) *api.SignalsEchoHandler {
	return api.NewSignalsEchoHandler(l.With(applogger.String("component", "api")), gen, settle, query, perf, limiter)
}

// ProvideHTTPServer mounts the API and the WebSocket stream on one Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.SignalsEchoHandler, hub *ws.Hub) *xhttp.Server {
	return xhttp.NewServer(xhttp.Handlers{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	)
}

// ProvideKafkaConsumer subscribes to bar and settlement topics. Returns nil
// when Kafka is disabled.
func ProvideKafkaConsumer(
	cfg *config.Config,
	bars domrepo.BarStore,
	settle *usecase.SettlementUseCase,
	m domrepo.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka_consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	consumer.RegisterHandler(usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, bars, domrepo.Timeframe(cfg.Market.Timeframe), m))
	consumer.RegisterHandler(usecase.NewKafkaSettlementHandler(cfg.Kafka.SettlementsTopic, settle))
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		After: func(_ context.Context, topic string, _ kafkago.Message, err error) {
			if err != nil {
				m.RecordError("consume:" + topic)
			}
		},
	})
	return consumer, nil
}

// ProvideApp assembles the long-running service.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	hub *ws.Hub,
	perf *usecase.PerformanceUseCase,
) *server.App {
	return server.New(cfg, l,
		server.WithHTTPServer(httpServer),
		server.WithKafkaConsumer(consumer),
		server.WithQueue(q),
		server.WithHub(hub),
		server.WithVerifier(perf, cfg.Settlement.VerifyInterval),
	)
}
