package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	domrepo "PlumbWatch/internal/domain/repository"
	"PlumbWatch/internal/service/ratelimit"
	"PlumbWatch/internal/usecase"
	"PlumbWatch/pkg/config"
	xhttp "PlumbWatch/pkg/http"
	"PlumbWatch/pkg/http/middleware"
	applogger "PlumbWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

const backfillTimeout = 60 * time.Second

// namedCloser is a resource released at shutdown, in registration order.
type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	monitor    *usecase.MarketMonitor
	refresher  *usecase.Refresher
	limiter    *ratelimit.Limiter
	metrics    domrepo.Metrics
	closers    []namedCloser
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	monitor *usecase.MarketMonitor,
	limiter *ratelimit.Limiter,
	metrics domrepo.Metrics,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		monitor:   monitor,
		refresher: usecase.NewRefresher(monitor, cfg.Refresh.Interval, log),
		limiter:   limiter,
		metrics:   metrics,
	}
}

// OnClose registers c to be closed during shutdown. Nil closers are ignored.
func (a *App) OnClose(name string, c io.Closer) {
	if c == nil {
		return
	}
	a.closers = append(a.closers, namedCloser{name: name, c: c})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve runs until ctx is done, then shuts down.
func (a *App) Serve(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bfCtx, bfCancel := context.WithTimeout(ctx, backfillTimeout)
	n := a.monitor.Backfill(bfCtx)
	bfCancel()
	a.log.Info("history ready", applogger.Int("entries", n))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.limiter.Start(bgCtx)
	}()
	go func() {
		defer wg.Done()
		a.refresher.Run(bgCtx)
	}()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		xhttp.WithLogger(a.log),
		xhttp.WithMiddleware(middleware.RateLimit(a.limiter, middleware.RateLimitConfig{
			Window:     a.limiter.Window(),
			PathPrefix: "/api",
			OnReject:   a.onRateLimited,
		})),
	)
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	cancel()
	wg.Wait()
	return a.shutdown()
}

func (a *App) onRateLimited(c echo.Context) {
	if a.metrics != nil {
		a.metrics.RecordRateLimited()
	}
	a.log.Warn("rate limited",
		applogger.String("remote_ip", c.RealIP()),
		applogger.String("path", c.Path()),
	)
}

// shutdown drains HTTP first, then releases infrastructure in registration order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
