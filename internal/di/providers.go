package di

import (
	"context"
	"fmt"
	"time"

	"TrendPulse/internal/domain/repository"
	internalrepo "TrendPulse/internal/repository"
	"TrendPulse/internal/service/binance"
	"TrendPulse/internal/service/telegram"
	"TrendPulse/internal/usecase"
	pkgcache "TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	pkgkafka "TrendPulse/pkg/kafka"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/metrics"
	"TrendPulse/pkg/server"

	"github.com/google/wire"
)

// ProviderSet groups all providers for wire-based initialization.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideRedisCache,
	ProvideModelStore,
	ProvideMarketData,
	ProvideClickHouseClient,
	ProvideHistoryStore,
	ProvideKafkaProducer,
	ProvideSignalPublisher,
	ProvideNotifier,
	ProvideTickerCache,
	ProvideTickerCollector,
	ProvideScanner,
	ProvideApp,
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the shared Redis client used for model
// persistence and result caching.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	cache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache, nil
}

// ProvideModelStore creates the Redis model store.
func ProvideModelStore(cache *pkgcache.RedisCache) repository.ModelStore {
	return internalrepo.NewRedisModelStore(cache)
}

// ProvideMarketData creates the Binance REST client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return binance.New(
		cfg.Binance.RestURL,
		cfg.Binance.QuoteAsset,
		cfg.Binance.MinQuoteVolume,
		cfg.Binance.Timeout,
	)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when history
// storage is disabled.
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
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.scan_results (
			cycle_ts DateTime,
			symbol String,
			direction String,
			score Int32,
			confidence Int32,
			change_pct Float64,
			atr Float64,
			book_imbalance Float64,
			last_price Float64
		) ENGINE=MergeTree ORDER BY (symbol, cycle_ts)`, db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideHistoryStore creates ClickHouse scan-history storage, or nil when
// disabled.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseHistoryStore(chClient.DB(), cfg.ClickHouse.Database+".scan_results")
}

// ProvideKafkaProducer creates a Kafka producer, or nil when publishing is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
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
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher creates the Kafka signal publisher, or nil when
// publishing is disabled.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideNotifier creates the Telegram notifier, or nil when disabled.
func ProvideNotifier(cfg *config.Config) repository.Notifier {
	if !cfg.Telegram.Enabled {
		return nil
	}
	return telegram.New(cfg.Telegram.APIURL, cfg.Telegram.Token, cfg.Telegram.ChatID)
}

// ProvideTickerCache creates the shared last-price cache.
func ProvideTickerCache() *usecase.TickerCache {
	return usecase.NewTickerCache()
}

// ProvideTickerCollector creates the live panel-price collector, or nil when
// no stream URL is configured.
func ProvideTickerCollector(cfg *config.Config, cache *usecase.TickerCache, m repository.Metrics, l *applogger.Logger) *usecase.TickerCollector {
	if cfg.Binance.WebSocketURL == "" {
		return nil
	}
	stream := binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Scan.PanelSymbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
	return usecase.NewTickerCollector(stream, cache, m, l)
}

// ProvideScanner wires the scan cycle orchestrator.
func ProvideScanner(
	cfg *config.Config,
	market repository.MarketData,
	store repository.ModelStore,
	history repository.HistoryStore,
	publisher repository.SignalPublisher,
	notifier repository.Notifier,
	m repository.Metrics,
	l *applogger.Logger,
	prices *usecase.TickerCache,
) *usecase.Scanner {
	return usecase.NewScanner(cfg, market, store, history, publisher, notifier, m, l, prices)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scanner *usecase.Scanner,
	collector *usecase.TickerCollector,
	publisher repository.SignalPublisher,
	history repository.HistoryStore,
	chClient *pkgch.Client,
	cache *pkgcache.RedisCache,
) *server.App {
	return server.New(cfg, l, scanner, collector, publisher, history, chClient, cache)
}

// InitializeApp composes the full dependency graph. Kept hand-rolled so the
// binary builds without the wire generator; ProviderSet mirrors it for wire
// users.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	l, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	m := ProvideMetrics()

	cache, err := ProvideRedisCache(cfg)
	if err != nil {
		return nil, err
	}
	store := ProvideModelStore(cache)
	market := ProvideMarketData(cfg)

	chClient, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	history := ProvideHistoryStore(chClient, cfg)

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	publisher := ProvideSignalPublisher(producer, cfg)

	// Aggregated error logs ride the same Kafka producer when one exists.
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      &kafkaLogSink{producer: producer},
		})
	}

	notifier := ProvideNotifier(cfg)
	prices := ProvideTickerCache()
	collector := ProvideTickerCollector(cfg, prices, m, l)
	scanner := ProvideScanner(cfg, market, store, history, publisher, notifier, m, l, prices)

	return ProvideApp(cfg, l, scanner, collector, publisher, history, chClient, cache), nil
}

// kafkaLogSink adapts the Kafka producer to the logger's Publisher interface.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s *kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}
