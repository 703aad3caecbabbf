package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"DashPull/internal/domain/repository"
	"DashPull/internal/handler/api"
	"DashPull/internal/handler/ws"
	"DashPull/internal/livecache"
	internalrepo "DashPull/internal/repository"
	"DashPull/internal/service/ratelimit"
	"DashPull/internal/session"
	"DashPull/internal/trading"
	"DashPull/internal/usecase"
	pkgch "DashPull/pkg/clickhouse"
	"DashPull/pkg/config"
	pkgkafka "DashPull/pkg/kafka"
	"DashPull/pkg/logger"
	"DashPull/pkg/metrics"
	"DashPull/pkg/queue"
	"DashPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates a Redis client, or nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideSessionStore selects the token store backend from config.
func ProvideSessionStore(cfg *config.Config, rdb *redis.Client) (session.Store, error) {
	switch cfg.Session.Store {
	case "memory":
		return session.NewMemoryStore(), nil
	case "file":
		return session.NewFileStore(cfg.Session.TokenFile), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session store redis requires a redis client")
		}
		return session.NewRedisStore(rdb, cfg.Session.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// ProvideGuard creates the session guard.
func ProvideGuard(store session.Store) *session.Guard {
	return session.NewGuard(store)
}

// ProvideTradingClient creates the backend client with bearer tokens
// sourced from the guard.
func ProvideTradingClient(cfg *config.Config, guard *session.Guard) *trading.Client {
	return trading.New(cfg.Trading.BaseURL, cfg.Trading.Timeout, guard.Token)
}

// ProvideRegistry builds the resource descriptor set.
func ProvideRegistry(cfg *config.Config) *usecase.Registry {
	return usecase.NewRegistry(cfg)
}

// ProvideCacheStore creates the live resource cache.
func ProvideCacheStore(client *trading.Client, l *logger.Logger, m repository.Metrics) *livecache.Store {
	return livecache.NewStore(client, l, livecache.WithMetrics(m))
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideUpdatePublisher creates the resource-update feed, or nil without Kafka.
func ProvideUpdatePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.UpdatePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaUpdatePublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates a ClickHouse client with the archive
// schema applied, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.ArchiveSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideArchiver creates the trade archiver, or nil without ClickHouse.
func ProvideArchiver(ch *pkgch.Client, cfg *config.Config) repository.Archiver {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseArchiver(ch.DB(), cfg.ClickHouse.Table)
}

// ProvideQueue creates the Redis-backed job queue with the backtest
// worker registered, or nil when disabled.
func ProvideQueue(cfg *config.Config, rdb *redis.Client, l *logger.Logger, job *usecase.BacktestJob) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rdb == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryDelay: cfg.Queue.Retry,
	}, rdb, queue.ModeProducerConsumer)
	q.RegisterJob(job)
	return q
}

// ProvideQueueService narrows the queue for the mutator. A nil queue
// stays nil through the interface so inline fallback works.
func ProvideQueueService(q *queue.RedisQueue) queue.QueueService {
	if q == nil {
		return nil
	}
	return q
}

// ProvideBacktestJob creates the queued backtest worker.
func ProvideBacktestJob(client *trading.Client, store *livecache.Store, reg *usecase.Registry, l *logger.Logger) *usecase.BacktestJob {
	return usecase.NewBacktestJob(client, store, reg, l)
}

// ProvideMutator creates the mutation use case.
func ProvideMutator(client *trading.Client, store *livecache.Store, reg *usecase.Registry, qs queue.QueueService, l *logger.Logger) *usecase.Mutator {
	return usecase.NewMutator(client, store, reg, qs, l)
}

// ProvideLimiter creates the mutation rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New(5, 1)
}

// ProvideHub creates the websocket push hub.
func ProvideHub(l *logger.Logger, reg *usecase.Registry) *ws.Hub {
	return ws.NewHub(l, reg)
}

// ProvideHandler creates the dashboard HTTP handler.
func ProvideHandler(
	l *logger.Logger,
	store *livecache.Store,
	reg *usecase.Registry,
	mut *usecase.Mutator,
	client *trading.Client,
	guard *session.Guard,
	limiter *ratelimit.Limiter,
	archiver repository.Archiver,
) *api.DashboardHandler {
	return api.NewDashboardHandler(l, store, reg, mut, client, guard, limiter, archiver)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	store *livecache.Store,
	reg *usecase.Registry,
	handler *api.DashboardHandler,
	hub *ws.Hub,
	guard *session.Guard,
	q *queue.RedisQueue,
	pub repository.UpdatePublisher,
	archiver repository.Archiver,
	ch *pkgch.Client,
	m repository.Metrics,
) *server.App {
	return server.New(cfg, l, store, reg, handler, hub, guard, q, pub, archiver, ch, m)
}
