package api

import (
	"strconv"
	"strings"
	"time"

	models "TradePulse/internal/domain/models"
	"TradePulse/internal/engine/ledger"
	"TradePulse/internal/engine/trend"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"
	"TradePulse/pkg/ratelimit"
	"TradePulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// listCacheTTL bounds how long a trade listing may lag the ledger. Listings
// are read-through cached; mutations are not invalidated, they age out.
const listCacheTTL = 2 * time.Second

// RateLimitConfig is the per-symbol webhook flood guard.
type RateLimitConfig struct {
	Enabled      bool
	Capacity     float64
	RefillPerSec float64
}

// WebhookHandler exposes the ingest webhook plus read-only trade and trend
// queries over Echo.
type WebhookHandler struct {
	logger    *xlogger.Logger
	processor *usecase.SignalProcessor
	ledger    *ledger.Ledger
	trend     *trend.Machine
	limiter   *ratelimit.Limiter
	rlCfg     RateLimitConfig
	cache     cache.Service
}

func NewWebhookHandler(
	logger *xlogger.Logger,
	processor *usecase.SignalProcessor,
	lg *ledger.Ledger,
	tm *trend.Machine,
	rlCfg RateLimitConfig,
	cs cache.Service,
) *WebhookHandler {
	return &WebhookHandler{
		logger:    logger,
		processor: processor,
		ledger:    lg,
		trend:     tm,
		limiter:   ratelimit.New(),
		rlCfg:     rlCfg,
		cache:     cs,
	}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook", h.Webhook)
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/trades", h.Trades)
	g.GET("/trades/open", h.OpenTrades)
	g.GET("/trend/:symbol", h.Trend)
}

// Webhook ingests one signal. The response reports what the signal changed:
// classification, opened trades, closed trades, and trend state.
func (h *WebhookHandler) Webhook(c echo.Context) error {
	req := &models.WebhookRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if h.rlCfg.Enabled && !h.limiter.Allow(symbol, h.rlCfg.Capacity, h.rlCfg.RefillPerSec) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many signals for symbol"))
	}

	receivedAt := util.ParseTimeDefault(req.Time, time.Now())
	res, err := h.processor.Process(c.Request().Context(), symbol, req.Signal, receivedAt)
	if err != nil {
		h.logger.Error("signal processing error",
			xlogger.String("symbol", symbol),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Trades lists trades, optionally filtered by symbol and status.
func (h *WebhookHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var status models.TradeStatus
	switch req.Status {
	case "open":
		status = models.TradeOpen
	case "closed":
		status = models.TradeClosed
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	rows := h.listTrades(c, symbol, status, req.Limit)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// OpenTrades lists open trades only.
func (h *WebhookHandler) OpenTrades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	rows := h.listTrades(c, symbol, models.TradeOpen, req.Limit)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// listTrades serves listings through the cache, falling back to the ledger
// on a miss and storing the result for listCacheTTL.
func (h *WebhookHandler) listTrades(c echo.Context, symbol string, status models.TradeStatus, limit int) []models.TradeSummary {
	ctx := c.Request().Context()
	key := "trades:" + symbol + ":" + string(status) + ":" + strconv.Itoa(limit)

	var rows []models.TradeSummary
	if err := h.cache.Get(ctx, key, &rows); err == nil {
		return rows
	}

	rows = h.ledger.List(symbol, status, limit)
	if err := h.cache.Set(ctx, key, rows, listCacheTTL); err != nil {
		h.logger.Warn("trade listing cache store failed",
			xlogger.String("key", key),
			xlogger.Error(err))
	}
	return rows
}

// Trend reports the confirmed trend direction for one symbol.
func (h *WebhookHandler) Trend(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}

	dir := h.trend.Current(symbol)
	if dir == models.DirectionUnknown {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no confirmed trend for symbol"))
	}
	return xhttp.SuccessResponse(c, &models.TrendResponse{Symbol: symbol, Direction: dir})
}

// Health is the liveness probe.
func (h *WebhookHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":      "ok",
		"open_trades": h.ledger.OpenCount(""),
	})
}
