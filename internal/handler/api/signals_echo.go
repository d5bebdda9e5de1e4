package api

import (
	"errors"
	"net/http"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/service/metrics"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/instruments"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler serves the signal, performance and asset endpoints.
type SignalsEchoHandler struct {
	logger  *xlogger.Logger
	gen     *usecase.SignalGenerator
	settle  *usecase.SettlementUseCase
	query   *usecase.SignalsQueryUseCase
	perf    *usecase.PerformanceUseCase
	limiter *ratelimit.Limiter
}

func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	gen *usecase.SignalGenerator,
	settle *usecase.SettlementUseCase,
	query *usecase.SignalsQueryUseCase,
	perf *usecase.PerformanceUseCase,
	limiter *ratelimit.Limiter,
) *SignalsEchoHandler {
	metrics.Register()
	return &SignalsEchoHandler{logger: logger, gen: gen, settle: settle, query: query, perf: perf, limiter: limiter}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/signals/generate", h.Generate)
	g.GET("/signals/current", h.Current)
	g.GET("/signals/history", h.History)
	g.POST("/signals/:id/settle", h.Settle)
	g.GET("/performance", h.Performance)
	g.GET("/assets", h.Assets)
}

func (h *SignalsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *SignalsEchoHandler) Generate(c echo.Context) error {
	start := time.Now()
	failed := false
	defer func() { metrics.Observe("generate", start, failed) }()

	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		h.logger.Warn("signals.generate rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.TooManyRequestsResponse(c)
	}

	req := &models.GenerateSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ev, err := h.gen.Generate(c.Request().Context(), req.Asset)
	if err != nil {
		if errors.Is(err, models.ErrInputFault) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INPUT_FAULT", "asset", err.Error(), http.StatusUnprocessableEntity))
		}
		failed = true
		h.logger.Error("generate usecase error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewGenerateResponse(ev))
}

func (h *SignalsEchoHandler) Current(c echo.Context) error {
	start := time.Now()
	req := &models.CurrentSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.Current(c.Request().Context(), req.Limit)
	metrics.Observe("current", start, err != nil)
	if err != nil {
		h.logger.Error("current usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *SignalsEchoHandler) History(c echo.Context) error {
	start := time.Now()
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.History(c.Request().Context(), *req)
	metrics.Observe("history", start, err != nil)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Settle(c echo.Context) error {
	start := time.Now()
	req := &models.SettleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	d, err := h.settle.Settle(c.Request().Context(), req.ID, models.Result(req.Result), req.ProfitLoss)
	switch {
	case err == nil:
		metrics.Observe("settle", start, false)
		return xhttp.SuccessResponse(c, d)
	case errors.Is(err, models.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("signal %d not found", req.ID))
	case errors.Is(err, models.ErrAlreadySettled):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("signal already settled").WithParam("id", req.ID))
	case errors.Is(err, models.ErrInvalidResult):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("result must be WIN or LOSS"))
	default:
		metrics.Observe("settle", start, true)
		h.logger.Error("settle usecase error", xlogger.Int64("id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}

func (h *SignalsEchoHandler) Performance(c echo.Context) error {
	start := time.Now()
	agg, err := h.perf.Get(c.Request().Context())
	metrics.Observe("performance", start, err != nil)
	if err != nil {
		h.logger.Error("performance usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, models.NewPerformanceResponse(agg))
}

func (h *SignalsEchoHandler) Assets(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, instruments.Catalog())
}
