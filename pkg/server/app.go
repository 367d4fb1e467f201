package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TradePulse/internal/engine/trend"
	"TradePulse/internal/service/notify"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	trend      *trend.Machine
	maintainer *usecase.Maintainer
	events     *usecase.EventSink
	dispatcher *notify.Dispatcher
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	tm *trend.Machine,
	maintainer *usecase.Maintainer,
	events *usecase.EventSink,
	dispatcher *notify.Dispatcher,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		handler:    handler,
		trend:      tm,
		maintainer: maintainer,
		events:     events,
		dispatcher: dispatcher,
		cache:      cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Recover confirmed trends before accepting traffic.
	a.trend.WarmStart(ctx)

	go a.maintainer.Run(ctx)

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
		xhttp.WithMetricsPath(metricsPath),
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Drain queued notifications before tearing down backends.
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.events != nil {
		a.events.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
