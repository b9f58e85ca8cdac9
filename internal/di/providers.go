package di

import (
	"context"
	"fmt"
	"time"

	"PlumbWatch/internal/domain/repository"
	"PlumbWatch/internal/handler/api"
	internalrepo "PlumbWatch/internal/repository"
	"PlumbWatch/internal/service/baseline"
	"PlumbWatch/internal/service/fred"
	"PlumbWatch/internal/service/fxrates"
	"PlumbWatch/internal/service/nyfed"
	"PlumbWatch/internal/service/ratelimit"
	"PlumbWatch/internal/usecase"
	"PlumbWatch/pkg/cache"
	pkgch "PlumbWatch/pkg/clickhouse"
	"PlumbWatch/pkg/config"
	xhttp "PlumbWatch/pkg/http"
	pkgkafka "PlumbWatch/pkg/kafka"
	applogger "PlumbWatch/pkg/logger"
	"PlumbWatch/pkg/metrics"
	"PlumbWatch/pkg/server"
)

// Providers is the upstream priority order: NY Fed, FX feed, FRED.
// Each adapter only answers its own series, so FRED ends up as the
// fallback for both the repo rates and the FX pairs.
type Providers []repository.SeriesProvider

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the outbound client shared by the adapters.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.Timeout),
		xhttp.WithUserAgent("PlumbWatch/1.0"),
	)
}

// ProvideRedisCache connects the shared L2 cache. Nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(10, 2, 4*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

func cacheOptions(rc *cache.RedisCache) []cache.MemoryOption {
	if rc == nil {
		return nil
	}
	return []cache.MemoryOption{cache.WithRemote(rc)}
}

// ProvideFREDClient creates the daily-series adapter.
func ProvideFREDClient(cfg *config.Config, hc *xhttp.Client, l *applogger.Logger, m repository.Metrics, rc *cache.RedisCache) *fred.Client {
	return fred.New(hc,
		fred.WithBaseURL(cfg.Providers.FRED.BaseURL),
		fred.WithAPIKey(cfg.Providers.FRED.APIKey),
		fred.WithTTL(cfg.Cache.DailyTTL),
		fred.WithLogger(l),
		fred.WithMetrics(m),
		fred.WithCacheOptions(cacheOptions(rc)...),
	)
}

// ProvideNYFedClient creates the reference-rate adapter.
func ProvideNYFedClient(cfg *config.Config, hc *xhttp.Client, l *applogger.Logger, m repository.Metrics, rc *cache.RedisCache) *nyfed.Client {
	return nyfed.New(hc,
		nyfed.WithBaseURL(cfg.Providers.NYFed.BaseURL),
		nyfed.WithTTL(cfg.Cache.RealtimeTTL),
		nyfed.WithLogger(l),
		nyfed.WithMetrics(m),
		nyfed.WithCacheOptions(cacheOptions(rc)...),
	)
}

// ProvideFXRatesClient creates the spot FX adapter.
func ProvideFXRatesClient(cfg *config.Config, hc *xhttp.Client, l *applogger.Logger, m repository.Metrics, rc *cache.RedisCache) *fxrates.Client {
	return fxrates.New(hc,
		fxrates.WithBaseURL(cfg.Providers.FXRates.BaseURL),
		fxrates.WithAPIKey(cfg.Providers.FXRates.APIKey),
		fxrates.WithTTL(cfg.Cache.RealtimeTTL),
		fxrates.WithLogger(l),
		fxrates.WithMetrics(m),
		fxrates.WithCacheOptions(cacheOptions(rc)...),
	)
}

// ProvideProviders orders the adapters by priority.
func ProvideProviders(ny *nyfed.Client, fr *fred.Client, fx *fxrates.Client) Providers {
	return Providers{ny, fx, fr}
}

// ProvideBaseline creates the fallback generator.
func ProvideBaseline() *baseline.Generator {
	return baseline.New(uint64(time.Now().UnixNano()))
}

// ProvideHistoryStore creates the in-memory daily window.
func ProvideHistoryStore(cfg *config.Config) *internalrepo.HistoryStore {
	return internalrepo.NewHistoryStore(cfg.History.MaxEntries)
}

// ProvideAggregator creates the snapshot aggregator.
func ProvideAggregator(providers Providers, gen *baseline.Generator, l *applogger.Logger, m repository.Metrics) *usecase.Aggregator {
	return usecase.NewAggregator(providers, gen,
		usecase.WithAggregatorLogger(l),
		usecase.WithAggregatorMetrics(m),
	)
}

// ProvideClickHouseClient connects and prepares the archive schema. Nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(true),
		pkgch.WithMaxExecTime(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.SnapshotSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideSnapshotArchive wraps the ClickHouse client. Nil when disabled.
func ProvideSnapshotArchive(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHSnapshotArchive {
	if client == nil {
		return nil
	}
	archive := internalrepo.NewCHSnapshotArchive(client, cfg.ClickHouse.Database)
	archive.SetLogger(l)
	return archive
}

// ProvideKafkaProducer creates a Kafka producer. Nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(1),
		pkgkafka.WithBatchTimeout(10*time.Millisecond),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideStressPublisher publishes stress events. Nil when Kafka is disabled.
func ProvideStressPublisher(producer *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaStressPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaStressPublisher(producer, cfg.Kafka.Topic)
}

// ProvideStreamHub creates the WebSocket broadcaster.
func ProvideStreamHub(cfg *config.Config, l *applogger.Logger) *api.StreamHub {
	return api.NewStreamHub(l, cfg.Server.CORSOrigins)
}

// ProvideMarketMonitor assembles the refresh pipeline and its sinks.
func ProvideMarketMonitor(
	agg *usecase.Aggregator,
	history *internalrepo.HistoryStore,
	gen *baseline.Generator,
	fr *fred.Client,
	archive *internalrepo.CHSnapshotArchive,
	publisher *internalrepo.KafkaStressPublisher,
	hub *api.StreamHub,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.MarketMonitor {
	opts := []usecase.MonitorOption{
		usecase.WithDailySource(fr),
		usecase.WithSinks(hub),
		usecase.WithMonitorLogger(l),
		usecase.WithMonitorMetrics(m),
	}
	if archive != nil {
		opts = append(opts, usecase.WithArchive(archive), usecase.WithSinks(archive))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithSinks(publisher))
	}
	return usecase.NewMarketMonitor(agg, history, gen, opts...)
}

// ProvideRateLimiter creates the per-IP sliding-window limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(
		ratelimit.WithWindow(cfg.RateLimit.Window),
		ratelimit.WithCapacity(cfg.RateLimit.Capacity),
	)
}

// ProvideMarketHandler creates the /api handler. Disabled infrastructure is
// reported as such on /api/health.
func ProvideMarketHandler(
	l *applogger.Logger,
	monitor *usecase.MarketMonitor,
	providers Providers,
	rc *cache.RedisCache,
	archive *internalrepo.CHSnapshotArchive,
	producer *pkgkafka.Producer,
	hub *api.StreamHub,
) *api.MarketEchoHandler {
	opts := []api.HandlerOption{
		api.WithProviders(providers...),
		api.WithStream(hub),
	}
	// typed nils would report as configured
	if rc != nil {
		opts = append(opts, api.WithInfra("redis", rc))
	} else {
		opts = append(opts, api.WithInfra("redis", nil))
	}
	if archive != nil {
		opts = append(opts, api.WithInfra("clickhouse", archive))
	} else {
		opts = append(opts, api.WithInfra("clickhouse", nil))
	}
	if producer != nil {
		opts = append(opts, api.WithInfra("kafka", producer))
	} else {
		opts = append(opts, api.WithInfra("kafka", nil))
	}
	return api.NewMarketEchoHandler(l, monitor, opts...)
}

// ProvideApp creates the application server and registers resources for shutdown.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.MarketEchoHandler,
	monitor *usecase.MarketMonitor,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	hub *api.StreamHub,
	ny *nyfed.Client,
	fr *fred.Client,
	fx *fxrates.Client,
	rc *cache.RedisCache,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, l, handler, monitor, limiter, m)
	app.OnClose("stream", hub)
	app.OnClose("nyfed", ny)
	app.OnClose("fred", fr)
	app.OnClose("fxrates", fx)
	if producer != nil {
		app.OnClose("kafka", producer)
	}
	if chClient != nil {
		app.OnClose("clickhouse", chClient)
	}
	if rc != nil {
		app.OnClose("redis", rc)
	}
	return app
}
