package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TrendPulse/internal/domain/repository"
	"TrendPulse/internal/handler/api"
	"TrendPulse/internal/usecase"
	pkgcache "TrendPulse/pkg/cache"
	pkgch "TrendPulse/pkg/clickhouse"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	applogger "TrendPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	scanner    *usecase.Scanner
	collector  *usecase.TickerCollector
	publisher  repository.SignalPublisher
	history    repository.HistoryStore
	chClient   *pkgch.Client
	cache      *pkgcache.RedisCache
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. collector, publisher,
// history and chClient may be nil when the corresponding backend is disabled.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	scanner *usecase.Scanner,
	collector *usecase.TickerCollector,
	publisher repository.SignalPublisher,
	history repository.HistoryStore,
	chClient *pkgch.Client,
	cache *pkgcache.RedisCache,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		scanner:   scanner,
		collector: collector,
		publisher: publisher,
		history:   history,
		chClient:  chClient,
		cache:     cache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	if err := a.scanner.LoadModel(ctx); err != nil {
		l.Error("model load failed, starting with defaults", applogger.Error(err))
	}

	handler := api.NewScanEchoHandler(l, a.scanner, a.history)
	a.httpServer = xhttp.NewServer(handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			// Live panel prices are a nicety; the scanner works without them.
			l.Warn("ticker collector start failed", applogger.Error(err))
		} else {
			l.Info("ticker collector started", applogger.Strings("symbols", a.cfg.Scan.PanelSymbols))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("scanner ready", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			l.Warn("ticker collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("kafka close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
