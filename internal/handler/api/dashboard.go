package api

import (
	"net/http"
	"time"

	"DashPull/internal/analytics"
	"DashPull/internal/domain/models"
	domrepo "DashPull/internal/domain/repository"
	"DashPull/internal/livecache"
	"DashPull/internal/service/ratelimit"
	"DashPull/internal/session"
	"DashPull/internal/trading"
	"DashPull/internal/usecase"
	xhttp "DashPull/pkg/http"
	xlogger "DashPull/pkg/logger"
	"DashPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves cached backend state, mutations and the
// derived analytics of the dashboard views.
type DashboardHandler struct {
	logger   *xlogger.Logger
	store    *livecache.Store
	registry *usecase.Registry
	mutator  *usecase.Mutator
	backend  *trading.Client
	guard    *session.Guard
	limiter  *ratelimit.Limiter
	archiver domrepo.Archiver // nil when archival is disabled
}

func NewDashboardHandler(
	logger *xlogger.Logger,
	store *livecache.Store,
	registry *usecase.Registry,
	mutator *usecase.Mutator,
	backend *trading.Client,
	guard *session.Guard,
	limiter *ratelimit.Limiter,
	archiver domrepo.Archiver,
) *DashboardHandler {
	return &DashboardHandler{
		logger:   logger,
		store:    store,
		registry: registry,
		mutator:  mutator,
		backend:  backend,
		guard:    guard,
		limiter:  limiter,
		archiver: archiver,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	auth := e.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/session", h.Session)

	g := e.Group("/view", h.guard.Middleware("/auth/login"))
	g.GET("/resources", h.Resources)
	g.GET("/archive/trades", h.ArchivedTrades)
	g.GET("/analytics/drawdown", h.AnalyticsDrawdown)
	g.GET("/analytics/stats", h.AnalyticsStats)
	g.POST("/analytics/compare", h.AnalyticsCompare)
	g.POST("/trades/close", h.CloseTrade)
	g.POST("/trades/close-all", h.CloseAllTrades)
	g.PUT("/settings", h.UpdateSettings)
	g.POST("/backtest/run", h.RunBacktest)
	g.POST("/backtest/compare", h.CompareBacktests)
	g.GET("/:resource", h.Resource)
}

// ResourceView is a resource snapshot as served to a dashboard panel.
type ResourceView struct {
	Resource  string      `json:"resource"`
	Value     interface{} `json:"value"`
	FetchedAt *time.Time  `json:"fetched_at,omitempty"`
	Stale     bool        `json:"stale"`
	Error     string      `json:"error,omitempty"`
}

func (h *DashboardHandler) snapshotView(name string, snap livecache.Snapshot) *ResourceView {
	view := &ResourceView{
		Resource: name,
		Value:    snap.Value,
		Stale:    snap.Stale,
	}
	if !snap.FetchedAt.IsZero() {
		t := snap.FetchedAt
		view.FetchedAt = &t
	}
	if snap.Err != nil {
		view.Error = snap.Err.Error()
	}
	return view
}

// Resource serves the cached snapshot of one named resource. On-demand
// resources are refreshed when their cached value is stale.
func (h *DashboardHandler) Resource(c echo.Context) error {
	name := c.Param("resource")
	d, ok := h.registry.Descriptor(name)
	if !ok {
		return xhttp.NotFoundResponse(c, "unknown resource: "+name)
	}

	key := d.Key()
	snap, found := h.store.Snapshot(key)
	if (!found || snap.Stale) && d.Interval <= 0 {
		h.store.Ensure(d)
		if err := h.store.Refresh(c.Request().Context(), key); err != nil {
			h.logger.Warn("on-demand refresh failed",
				xlogger.String("resource", name), xlogger.Error(err))
		}
		snap, _ = h.store.Snapshot(key)
	}

	return xhttp.SuccessResponse(c, h.snapshotView(name, snap))
}

// Resources reports the freshness of every registered resource.
func (h *DashboardHandler) Resources(c echo.Context) error {
	out := make([]*ResourceView, 0, len(h.registry.Names()))
	for _, name := range h.registry.Names() {
		snap, _ := h.store.Snapshot(h.registry.Key(name))
		view := h.snapshotView(name, snap)
		view.Value = nil // freshness listing only
		out = append(out, view)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *DashboardHandler) allow(op string) bool {
	return h.limiter == nil || h.limiter.Allow(op)
}

func tooManyResponse(c echo.Context, op string) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests, "too many "+op+" requests")
}

// ArchivedTrades reads closed trades back from long-horizon storage.
func (h *DashboardHandler) ArchivedTrades(c echo.Context) error {
	if h.archiver == nil {
		return xhttp.NotFoundResponse(c, "trade archive is disabled")
	}

	now := time.Now()
	from := util.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, -1, 0))
	to := util.ParseTimeDefault(c.QueryParam("to"), now)
	limit := util.ClampInt(util.ParseIntDefault(c.QueryParam("limit"), 100), 1, 1000)

	trades, err := h.archiver.RecentTrades(c.Request().Context(), c.QueryParam("instrument"), from, to, limit)
	if err != nil {
		h.logger.Error("archive query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

// CloseTradeRequest asks for one open trade to be closed.
type CloseTradeRequest struct {
	TradeID string `json:"trade_id" validate:"required"`
}

func (h *DashboardHandler) CloseTrade(c echo.Context) error {
	if !h.allow("close") {
		return tooManyResponse(c, "close")
	}
	req := &CloseTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.mutator.CloseTrade(c.Request().Context(), req.TradeID)
	if err != nil {
		h.logger.Error("close trade failed", xlogger.String("trade_id", req.TradeID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) CloseAllTrades(c echo.Context) error {
	if !h.allow("close") {
		return tooManyResponse(c, "close")
	}
	res, err := h.mutator.CloseAllTrades(c.Request().Context())
	if err != nil {
		h.logger.Error("close all failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) UpdateSettings(c echo.Context) error {
	req := &models.SettingsUpdate{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.mutator.UpdateSettings(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("settings update failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) RunBacktest(c echo.Context) error {
	if !h.allow("backtest") {
		return tooManyResponse(c, "backtest")
	}
	req := &trading.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	run, queued, err := h.mutator.RunBacktest(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("backtest failed", xlogger.String("pair", req.Pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if queued {
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"status": "queued"})
	}
	return xhttp.SuccessResponse(c, run)
}

func (h *DashboardHandler) CompareBacktests(c echo.Context) error {
	if !h.allow("backtest") {
		return tooManyResponse(c, "backtest")
	}
	req := &trading.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cmp, err := h.mutator.CompareBacktests(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("backtest compare failed", xlogger.String("pair", req.Pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cmp)
}

// AnalyticsDrawdown computes the max drawdown of the cached equity curve.
func (h *DashboardHandler) AnalyticsDrawdown(c echo.Context) error {
	snap, ok := h.store.Snapshot(h.registry.Key(usecase.ResourceEquityCurve))
	if !ok || snap.Value == nil {
		return xhttp.NotFoundResponse(c, "equity curve not loaded yet")
	}
	curve, ok := snap.Value.(*[]models.EquityPoint)
	if !ok {
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, analytics.Drawdown(*curve))
}

// AnalyticsStats aggregates win/loss statistics from cached trade history.
func (h *DashboardHandler) AnalyticsStats(c echo.Context) error {
	snap, ok := h.store.Snapshot(h.registry.Key(usecase.ResourceHistory))
	if !ok || snap.Value == nil {
		return xhttp.NotFoundResponse(c, "trade history not loaded yet")
	}
	list, ok := snap.Value.(*models.TradeList)
	if !ok {
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, analytics.AggregateStats(list.Trades))
}

// CompareRunsRequest carries two stored runs to diff locally.
type CompareRunsRequest struct {
	Baseline models.BacktestRun `json:"baseline" validate:"required"`
	Modified models.BacktestRun `json:"modified" validate:"required"`
}

func (h *DashboardHandler) AnalyticsCompare(c echo.Context) error {
	req := &CompareRunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, analytics.CompareRuns(req.Baseline, req.Modified))
}

// LoginRequest carries dashboard credentials forwarded to the backend.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login proxies credentials to the backend and stores the issued token.
func (h *DashboardHandler) Login(c echo.Context) error {
	req := &LoginRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backend.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login rejected", xlogger.String("username", req.Username), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if err := h.guard.SetToken(res.AccessToken); err != nil {
		h.logger.Error("token store failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	claims, _ := h.guard.Claims()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"authenticated": true,
		"subject":       claims.Subject,
		"expires_at":    claims.Expiry,
	})
}

// Logout drops the stored token. Safe to call when not logged in.
func (h *DashboardHandler) Logout(c echo.Context) error {
	if err := h.guard.RemoveToken(); err != nil {
		h.logger.Error("token clear failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"authenticated": false})
}

// Session reports current admission state without mutating anything.
func (h *DashboardHandler) Session(c echo.Context) error {
	out := map[string]interface{}{
		"authenticated": h.guard.IsAuthenticated(),
	}
	if claims, ok := h.guard.Claims(); ok {
		out["subject"] = claims.Subject
		out["expires_at"] = claims.Expiry
	}
	return xhttp.SuccessResponse(c, out)
}
