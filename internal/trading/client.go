package trading

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"DashPull/internal/domain/models"
	apphttp "DashPull/pkg/http"
)

// Client is a typed client for the trading backend API. All calls carry
// the current session token as a bearer header.
type Client struct {
	http *apphttp.Client
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, timeout time.Duration, token apphttp.TokenSource) *Client {
	return &Client{
		http: apphttp.NewClient(
			apphttp.WithBaseURL(baseURL),
			apphttp.WithTimeout(timeout),
			apphttp.WithTokenSource(token),
		),
	}
}

// Fetch retrieves the raw payload of one backend resource. It is the
// fetch path used by the live cache.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodGet,
		URL:         path,
		QueryParams: query,
	}, &body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	return c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:      apphttp.MethodGet,
		URL:         path,
		QueryParams: query,
	}, dest)
}

// Account returns the current account summary.
func (c *Client) Account(ctx context.Context) (*models.Account, error) {
	var out models.Account
	if err := c.get(ctx, "/api/account", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns backend system status.
func (c *Client) Status(ctx context.Context) (*models.SystemStatus, error) {
	var out models.SystemStatus
	if err := c.get(ctx, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenTrades returns currently open trades.
func (c *Client) OpenTrades(ctx context.Context) (*models.TradeList, error) {
	var out models.TradeList
	if err := c.get(ctx, "/api/trades/open", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TradeHistory returns closed trades, newest first.
func (c *Client) TradeHistory(ctx context.Context, limit, offset int) (*models.TradeList, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out models.TradeList
	if err := c.get(ctx, "/api/trades/history", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Performance returns the aggregated performance report over the last
// days of trading.
func (c *Client) Performance(ctx context.Context, days int) (*models.PerformanceReport, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out models.PerformanceReport
	if err := c.get(ctx, "/api/performance", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EquityCurve returns daily equity points.
func (c *Client) EquityCurve(ctx context.Context, days int) ([]models.EquityPoint, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out []models.EquityPoint
	if err := c.get(ctx, "/api/equity-curve", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// News returns the economic news calendar, optionally filtered by impact.
func (c *Client) News(ctx context.Context, impact string) (*models.NewsCalendar, error) {
	q := url.Values{}
	if impact != "" {
		q.Set("impact", impact)
	}
	var out models.NewsCalendar
	if err := c.get(ctx, "/api/news", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NewsToday returns only today's calendar entries.
func (c *Client) NewsToday(ctx context.Context) (*models.NewsCalendar, error) {
	var out models.NewsCalendar
	if err := c.get(ctx, "/api/news/today", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Activity returns the recent backend activity log.
func (c *Client) Activity(ctx context.Context, limit int, level string) (*models.ActivityLog, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if level != "" {
		q.Set("level", level)
	}
	var out models.ActivityLog
	if err := c.get(ctx, "/api/activity", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signals returns recent strategy signals.
func (c *Client) Signals(ctx context.Context, limit int, approvedOnly bool) (*models.SignalList, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if approvedOnly {
		q.Set("approved_only", "true")
	}
	var out models.SignalList
	if err := c.get(ctx, "/api/signals", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExternalSignals returns third-party signals above a confidence floor.
func (c *Client) ExternalSignals(ctx context.Context, minConfidence float64) (*models.ExternalSignalList, error) {
	q := url.Values{}
	if minConfidence > 0 {
		q.Set("min_confidence", strconv.FormatFloat(minConfidence, 'f', -1, 64))
	}
	var out models.ExternalSignalList
	if err := c.get(ctx, "/api/external-signals", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CorrelationStatus returns pair correlation blocking state.
func (c *Client) CorrelationStatus(ctx context.Context) (*models.CorrelationStatus, error) {
	var out models.CorrelationStatus
	if err := c.get(ctx, "/api/correlation-status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settings returns current strategy settings.
func (c *Client) Settings(ctx context.Context) (*models.Settings, error) {
	var out models.Settings
	if err := c.get(ctx, "/api/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings applies a partial settings update and returns the set
// of fields the backend accepted.
func (c *Client) UpdateSettings(ctx context.Context, update *models.SettingsUpdate) (*models.SettingsUpdateResult, error) {
	var out models.SettingsUpdateResult
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPut,
		URL:    "/api/settings",
		Body:   update,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginResult is the token envelope returned by the backend login endpoint.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. The token is not
// stored here; persisting it is the session guard's job.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method:  apphttp.MethodPost,
		URL:     "/api/auth/login",
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    map[string]string{"username": username, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseResult is the backend's response to a single-trade close.
type CloseResult struct {
	Status     string  `json:"status"`
	TradeID    string  `json:"trade_id,omitempty"`
	ProfitLoss float64 `json:"profit_loss,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// CloseAllResult is the backend's response to a close-all.
type CloseAllResult struct {
	Status      string `json:"status"`
	ClosedCount int    `json:"closed_count"`
}

// CloseTrade asks the backend to close one open trade.
func (c *Client) CloseTrade(ctx context.Context, tradeID string) (*CloseResult, error) {
	var out CloseResult
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    "/api/trades/close",
		Body:   map[string]string{"trade_id": tradeID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseAllTrades asks the backend to flatten every open position.
func (c *Client) CloseAllTrades(ctx context.Context) (*CloseAllResult, error) {
	var out CloseAllResult
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    "/api/trades/close-all",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BacktestRequest parameterizes a backtest run. Nil overrides keep the
// backend's configured value.
type BacktestRequest struct {
	Pair            string   `json:"pair" validate:"required"`
	StartDate       string   `json:"start_date" validate:"required"`
	EndDate         string   `json:"end_date" validate:"required"`
	ATRMultiplier   *float64 `json:"atr_multiplier,omitempty" validate:"omitempty,gt=0"`
	RiskPerTrade    *float64 `json:"risk_per_trade,omitempty" validate:"omitempty,gt=0,lte=10"`
	RiskRewardRatio *float64 `json:"risk_reward_ratio,omitempty" validate:"omitempty,gt=0"`
}

// BacktestRuns lists stored backtest runs, newest first.
func (c *Client) BacktestRuns(ctx context.Context, limit int) (*models.BacktestRunList, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out models.BacktestRunList
	if err := c.get(ctx, "/api/backtest/runs", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunBacktest executes a backtest on the backend and returns the stored run.
func (c *Client) RunBacktest(ctx context.Context, req *BacktestRequest) (*models.BacktestRun, error) {
	var out models.BacktestRun
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    "/api/backtest/run",
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompareBacktests runs the baseline strategy and a modified variant over
// the same window and returns both runs plus their diff.
func (c *Client) CompareBacktests(ctx context.Context, req *BacktestRequest) (*models.Comparison, error) {
	var out models.Comparison
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    "/api/backtest/compare",
		Body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
