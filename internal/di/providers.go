package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"FinTrain/internal/domain/repository"
	"FinTrain/internal/domain/service"
	"FinTrain/internal/handler/api"
	"FinTrain/internal/handler/ws"
	internalrepo "FinTrain/internal/repository"
	"FinTrain/internal/service/ratelimit"
	"FinTrain/internal/services/failures"
	"FinTrain/internal/services/features"
	"FinTrain/internal/services/importance"
	"FinTrain/internal/services/nn"
	"FinTrain/internal/services/window"
	"FinTrain/internal/usecase"
	"FinTrain/pkg/cache"
	pkgch "FinTrain/pkg/clickhouse"
	"FinTrain/pkg/config"
	xhttp "FinTrain/pkg/http"
	pkgkafka "FinTrain/pkg/kafka"
	applogger "FinTrain/pkg/logger"
	"FinTrain/pkg/metrics"
	"FinTrain/pkg/queue"
	"FinTrain/pkg/server"
	xutil "FinTrain/pkg/util"
)

// Lock TTL of a running training scope; a full batch over every unit fits well inside it.
const trainLockTTL = 6 * time.Hour

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger creates the application logger. Error entries are aggregated
// and shipped to the logging topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.FlushInterval,
			CountThreshold: cfg.Logging.CountThreshold,
			Topic:          cfg.Logging.Topic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, pkgch.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the Redis client shared by the queue, the cache and the failure store.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	client, err := cache.NewRedisClient(context.Background(),
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideCache creates the Redis-backed cache used for window lookups and job locks.
func ProvideCache(client *redis.Client, cfg *config.Config) cache.Service {
	return cache.NewRedisCache(client, cfg.Redis.Prefix+":cache")
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, _ kafka.Message, _ error) {
			rec.RecordError("consume:" + topic)
		},
	})
	return consumer, nil
}

// ProvideMarketHistory creates the ClickHouse candle reader.
func ProvideMarketHistory(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.MarketHistory {
	return internalrepo.NewCHMarketHistory(ch, cfg.ClickHouse.HistoryLimit, l)
}

// ProvideCorrectiveStore creates the wrong-prediction store.
func ProvideCorrectiveStore(ch *pkgch.Client, l *applogger.Logger) repository.CorrectiveStore {
	return internalrepo.NewCHCorrectiveStore(ch, l)
}

// ProvideResultLog creates the training log and feature-importance sink.
func ProvideResultLog(ch *pkgch.Client) *internalrepo.CHResultLog {
	return internalrepo.NewCHResultLog(ch)
}

// ProvideFailureStore creates the Redis failure store.
func ProvideFailureStore(client *redis.Client, cfg *config.Config) repository.FailureStore {
	return internalrepo.NewRedisFailureStore(client, cfg.Redis.Prefix+":failures")
}

// ProvideArtifactStore creates the on-disk model store.
func ProvideArtifactStore(cfg *config.Config) (repository.ArtifactStore, error) {
	store, err := internalrepo.NewFileArtifactStore(cfg.Artifacts.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	return store, nil
}

// ProvideOutcomePublisher creates the Kafka outcome publisher.
func ProvideOutcomePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.OutcomePublisher {
	return internalrepo.NewKafkaOutcomePublisher(producer, cfg.Kafka.OutcomesTopic)
}

// ProvideFailureMemory wraps the failure store.
func ProvideFailureMemory(store repository.FailureStore, l *applogger.Logger) *failures.Memory {
	return failures.NewMemory(store, l)
}

// ProvideFeatureEngineer creates the candle feature engineer.
func ProvideFeatureEngineer() service.FeatureEngineer {
	return features.NewEngineer()
}

// ProvideDatasetBuilder creates the sequence/label builder.
func ProvideDatasetBuilder() service.DatasetBuilder {
	return features.NewBuilder()
}

// ProvideWindowSearcher returns the HTTP optimizer client when a service URL
// is configured and the static per-horizon table otherwise.
func ProvideWindowSearcher(cfg *config.Config, c cache.Service, l *applogger.Logger) service.WindowSearcher {
	if cfg.Window.ServiceURL == "" {
		return window.NewStaticSearcher(nil)
	}
	return window.NewHTTPSearcher(cfg.Window.ServiceURL, cfg.Window.Timeout, cfg.Window.Attempts,
		window.WithCache(windowCache(cfg, c), cfg.Window.CacheTTL),
		window.WithLogger(l),
	)
}

// windowCache picks the window cache: a process-local LRU by default, or the
// shared Redis cache.
func windowCache(cfg *config.Config, shared cache.Service) cache.Service {
	if cfg.Window.Cache == "redis" {
		return shared
	}
	size := cfg.Window.CacheSize
	if size <= 0 {
		size = 1024
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(size))
}

// ProvideModelFactory creates the sequence classifier factory.
func ProvideModelFactory(cfg *config.Config) service.ModelFactory {
	return nn.NewFactory(cfg.Training.NumClasses,
		nn.WithHiddenSize(cfg.Training.HiddenSize),
		nn.WithLearningRate(cfg.Training.LearningRate),
		nn.WithSeed(cfg.Training.Seed),
	)
}

// ProvideImportance creates the permutation importance calculator.
func ProvideImportance(cfg *config.Config) service.ImportanceCalculator {
	return importance.NewPermutation(cfg.Training.Seed, 1)
}

// ProvideTrainingConfig maps the training section onto the usecase config.
func ProvideTrainingConfig(cfg *config.Config) usecase.Config {
	t := cfg.Training
	return usecase.Config{
		Architectures:              t.Architectures,
		NumClasses:                 t.NumClasses,
		CorrectivePasses:           t.CorrectivePasses,
		PrimaryEpochs:              t.PrimaryEpochs,
		CorrectiveBatchSize:        t.CorrectiveBatchSize,
		PrimaryBatchSize:           t.PrimaryBatchSize,
		MinFeatureRows:             t.MinFeatureRows,
		MinSequences:               t.MinSequences,
		ValidationFraction:         t.ValidationFraction,
		FrequentFailureThreshold:   t.FrequentFailureThreshold,
		OverfitLabelDiversityLimit: t.OverfitLabelDiversityLimit,
		Seed:                       t.Seed,
	}
}

// ProvideCurator creates the sample curator.
func ProvideCurator(
	history repository.MarketHistory,
	engineer service.FeatureEngineer,
	windows service.WindowSearcher,
	builder service.DatasetBuilder,
	corrective repository.CorrectiveStore,
	memory *failures.Memory,
	tcfg usecase.Config,
	l *applogger.Logger,
) *usecase.Curator {
	return usecase.NewCurator(history, engineer, windows, builder, corrective, memory, tcfg, l)
}

// ProvideOrchestrator creates the per-unit training orchestrator.
func ProvideOrchestrator(
	cfg *config.Config,
	curator *usecase.Curator,
	factory service.ModelFactory,
	artifacts repository.ArtifactStore,
	results *internalrepo.CHResultLog,
	calc service.ImportanceCalculator,
	rec *metrics.Recorder,
	tcfg usecase.Config,
	l *applogger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(curator, factory, artifacts, tcfg,
		usecase.WithResultLogger(results),
		usecase.WithImportance(calc, results),
		usecase.WithMetrics(rec),
		usecase.WithLocation(xutil.LoadZone(cfg.Artifacts.Timezone, cfg.Artifacts.FallbackOffsetHours)),
		usecase.WithLogger(l),
	)
}

// ProvideHub creates the websocket outcome hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideBatchDriver creates the batch driver over every configured unit.
func ProvideBatchDriver(
	cfg *config.Config,
	orchestrator *usecase.Orchestrator,
	publisher repository.OutcomePublisher,
	hub *ws.Hub,
	l *applogger.Logger,
) *usecase.BatchDriver {
	return usecase.NewBatchDriver(orchestrator, cfg.Training.Symbols, cfg.Training.Horizons, l,
		usecase.WithWorkers(cfg.Training.Workers),
		usecase.WithOutcomePublisher(publisher),
		usecase.WithNotifier(hub),
	)
}

// ProvideWrongPredictionHandler registers the handler for wrong-prediction events.
func ProvideWrongPredictionHandler(
	cfg *config.Config,
	store repository.CorrectiveStore,
	failureStore repository.FailureStore,
	rec *metrics.Recorder,
	l *applogger.Logger,
) *usecase.WrongPredictionHandler {
	return usecase.NewWrongPredictionHandler(cfg.Kafka.WrongTopic, store, failureStore, rec, l)
}

// ProvideTrainJob creates the queued training job.
func ProvideTrainJob(driver *usecase.BatchDriver, locks cache.Service, l *applogger.Logger) *usecase.TrainJob {
	return usecase.NewTrainJob(driver, locks, trainLockTTL, l)
}

// ProvideQueue creates the Redis job queue.
func ProvideQueue(cfg *config.Config, client *redis.Client, l *applogger.Logger) *queue.RedisQueue {
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
}

// ProvideCooldown creates the trigger cooldown gate.
func ProvideCooldown() *ratelimit.Cooldown {
	return ratelimit.New(time.Now)
}

// ProvideTrainingHandler creates the training HTTP API.
func ProvideTrainingHandler(
	cfg *config.Config,
	l *applogger.Logger,
	jobs *queue.RedisQueue,
	cooldown *ratelimit.Cooldown,
	artifacts repository.ArtifactStore,
	ch *pkgch.Client,
	rdb *redis.Client,
) *api.TrainingEchoHandler {
	checks := map[string]api.HealthCheck{
		"clickhouse": ch.Health,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
	return api.NewTrainingEchoHandler(l, jobs, cooldown, cfg.Cooldown.All, cfg.Cooldown.Unit, artifacts, checks)
}

// ProvideHTTPServer creates the Echo server with every HTTP handler.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	training *api.TrainingEchoHandler,
	hub *ws.Hub,
) *xhttp.Server {
	return xhttp.NewServer(l, []xhttp.Handler{training, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(reg, reg),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	wrong *usecase.WrongPredictionHandler,
	jobs *queue.RedisQueue,
	trainJob *usecase.TrainJob,
	hub *ws.Hub,
	driver *usecase.BatchDriver,
	ch *pkgch.Client,
	rdb *redis.Client,
	producer *pkgkafka.Producer,
) *server.App {
	consumer.RegisterHandler(wrong)
	jobs.RegisterJob(trainJob)
	return server.New(cfg, l,
		server.WithHTTPServer(httpServer),
		server.WithConsumer(consumer),
		server.WithQueue(jobs),
		server.WithHub(hub),
		server.WithRunner(driver),
		server.WithClosers(
			server.NamedCloser{Name: "kafka producer", Close: producer.Close},
			server.NamedCloser{Name: "clickhouse", Close: ch.Close},
			server.NamedCloser{Name: "redis", Close: rdb.Close},
		),
	)
}

var (
	_ repository.Metrics      = (*metrics.Recorder)(nil)
	_ usecase.OutcomeNotifier = (*ws.Hub)(nil)
	_ usecase.UnitTrainer     = (*usecase.Orchestrator)(nil)
	_ usecase.UnitFailer      = (*usecase.Orchestrator)(nil)
	_ server.Runner           = (*usecase.BatchDriver)(nil)
	_ server.Hub              = (*ws.Hub)(nil)
)
