package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"PlumbWatch/internal/domain/models"
	domrepo "PlumbWatch/internal/domain/repository"
	xhttp "PlumbWatch/pkg/http"
	applogger "PlumbWatch/pkg/logger"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	healthTimeout = 2 * time.Second

	serviceConfigured = "configured"
	serviceDisabled   = "disabled"
	serviceUp         = "up"
	serviceDown       = "down"
)

// MarketService is the read side served over HTTP.
type MarketService interface {
	MarketData(ctx context.Context, region models.Region) (*models.MarketData, error)
	Historical(ctx context.Context, days int) (*models.HistoricalData, error)
	RepoRates(ctx context.Context) (*models.RepoRatesView, error)
	ReserveScarcity(ctx context.Context) (*models.ReserveScarcityView, error)
	FedFacilities(ctx context.Context) (*models.FacilitiesView, error)
	MoneyMarketSpreads(ctx context.Context) (*models.SpreadsView, error)
	StressIndicators(ctx context.Context) (*models.StressView, error)
	Last() *models.MarketData
}

type HandlerOption func(*MarketEchoHandler)

// WithProviders reports each provider as configured or disabled on /api/health.
func WithProviders(providers ...domrepo.SeriesProvider) HandlerOption {
	return func(h *MarketEchoHandler) { h.providers = append(h.providers, providers...) }
}

// WithInfra reports name as up or down. A nil checker reports disabled.
func WithInfra(name string, hc domrepo.HealthChecker) HandlerOption {
	return func(h *MarketEchoHandler) {
		h.infra = append(h.infra, infraCheck{name: name, hc: hc})
	}
}

// WithStream serves the WebSocket push stream on /api/stream.
func WithStream(hub *StreamHub) HandlerOption {
	return func(h *MarketEchoHandler) { h.hub = hub }
}

func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(h *MarketEchoHandler) { h.now = now }
}

type infraCheck struct {
	name string
	hc   domrepo.HealthChecker
}

// MarketEchoHandler serves the /api routes.
type MarketEchoHandler struct {
	logger    *applogger.Logger
	svc       MarketService
	providers []domrepo.SeriesProvider
	infra     []infraCheck
	hub       *StreamHub
	now       func() time.Time
}

func NewMarketEchoHandler(logger *applogger.Logger, svc MarketService, opts ...HandlerOption) *MarketEchoHandler {
	h := &MarketEchoHandler{logger: logger, svc: svc, now: time.Now}
	if h.logger == nil {
		h.logger = applogger.Nop()
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market-data", h.MarketData)
	g.GET("/historical-data", h.HistoricalData)
	g.GET("/repo-rates", h.RepoRates)
	g.GET("/reserve-scarcity", h.ReserveScarcity)
	g.GET("/fed-facilities", h.FedFacilities)
	g.GET("/money-market-spreads", h.MoneyMarketSpreads)
	g.GET("/stress-indicators", h.StressIndicators)
	g.GET("/health", h.Health)
	if h.hub != nil {
		g.GET("/stream", h.hub.Handle(h.svc.Last))
	}
}

func (h *MarketEchoHandler) MarketData(c echo.Context) error {
	req := &models.MarketDataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}

	res, err := h.svc.MarketData(c.Request().Context(), models.Region(req.Region))
	if err != nil {
		return h.fail(c, "market data", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) HistoricalData(c echo.Context) error {
	req := &models.HistoricalDataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.AppErrorResponse(c, verr)
	}
	days, err := parseDays(req.Days)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.svc.Historical(c.Request().Context(), days)
	if err != nil {
		return h.fail(c, "historical data", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) RepoRates(c echo.Context) error {
	res, err := h.svc.RepoRates(c.Request().Context())
	if err != nil {
		return h.fail(c, "repo rates", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) ReserveScarcity(c echo.Context) error {
	res, err := h.svc.ReserveScarcity(c.Request().Context())
	if err != nil {
		return h.fail(c, "reserve scarcity", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) FedFacilities(c echo.Context) error {
	res, err := h.svc.FedFacilities(c.Request().Context())
	if err != nil {
		return h.fail(c, "fed facilities", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) MoneyMarketSpreads(c echo.Context) error {
	res, err := h.svc.MoneyMarketSpreads(c.Request().Context())
	if err != nil {
		return h.fail(c, "money market spreads", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) StressIndicators(c echo.Context) error {
	res, err := h.svc.StressIndicators(c.Request().Context())
	if err != nil {
		return h.fail(c, "stress indicators", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Health always answers ok; services carry the per-dependency state.
func (h *MarketEchoHandler) Health(c echo.Context) error {
	services := make(map[string]string, len(h.providers)+len(h.infra))
	for _, p := range h.providers {
		state := serviceDisabled
		if p.Configured() {
			state = serviceConfigured
		}
		services[string(p.Name())] = state
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	var mu sync.Mutex
	var g errgroup.Group
	for _, ic := range h.infra {
		if ic.hc == nil {
			mu.Lock()
			services[ic.name] = serviceDisabled
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			state := serviceUp
			if err := ic.hc.Health(ctx); err != nil {
				state = serviceDown
				h.logger.Warn("health check failed",
					applogger.String("service", ic.name),
					applogger.Error(err),
				)
			}
			mu.Lock()
			services[ic.name] = state
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return xhttp.SuccessResponse(c, models.Health{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Services:  services,
	})
}

func (h *MarketEchoHandler) fail(c echo.Context, op string, err error) error {
	h.logger.Error(op+" usecase error",
		applogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		applogger.Error(err),
	)
	return xhttp.AppErrorResponse(c, err)
}

// parseDays accepts 1..MaxHistoryDays. Empty means the default.
func parseDays(raw string) (int, error) {
	if raw == "" {
		return models.DefaultHistoryDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, xhttp.NewAppError("ERR_INVALID_DAYS", "days", "days must be a positive integer", http.StatusBadRequest).
			WithParam("value", raw)
	}
	if days > models.MaxHistoryDays {
		return 0, xhttp.BadRequestErrorf("days must be less than or equal to %d", models.MaxHistoryDays).
			WithParam("max", models.MaxHistoryDays)
	}
	return days, nil
}
