package usecase

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"DashPull/internal/domain/models"
	"DashPull/internal/livecache"
	"DashPull/pkg/config"
)

// Resource names the dashboard's cached backend resources.
const (
	ResourceAccount     = "account"
	ResourceOpenTrades  = "open_trades"
	ResourceStatus      = "status"
	ResourceHistory     = "history"
	ResourcePerformance = "performance"
	ResourceSignals     = "signals"
	ResourceExternal    = "external_signals"
	ResourceNews        = "news"
	ResourceActivity    = "activity"
	ResourceCorrelation = "correlation"
	ResourceEquityCurve = "equity_curve"
	ResourceSettings    = "settings"
	ResourceBacktests   = "backtests"
)

func decodeInto[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &v, nil
}

// Registry maps resource names to cache descriptors. Poll intervals come
// from config; settings and backtests are on-demand only.
type Registry struct {
	descriptors map[string]livecache.Descriptor
	order       []string
}

// NewRegistry builds the full descriptor set for a dashboard instance.
func NewRegistry(cfg *config.Config) *Registry {
	r := cfg.Resources

	reg := &Registry{descriptors: make(map[string]livecache.Descriptor)}
	add := func(name string, d livecache.Descriptor) {
		reg.descriptors[name] = d
		reg.order = append(reg.order, name)
	}

	add(ResourceAccount, livecache.Descriptor{
		Path:     "/api/account",
		Interval: r.Account,
		Decode:   decodeInto[models.Account],
	})
	add(ResourceOpenTrades, livecache.Descriptor{
		Path:     "/api/trades/open",
		Interval: r.OpenTrades,
		Decode:   decodeInto[models.TradeList],
	})
	add(ResourceStatus, livecache.Descriptor{
		Path:     "/api/status",
		Interval: r.Status,
		Decode:   decodeInto[models.SystemStatus],
	})
	add(ResourceHistory, livecache.Descriptor{
		Path:     "/api/trades/history",
		Query:    url.Values{"limit": {strconv.Itoa(r.HistoryLimit)}},
		Interval: r.History,
		Decode:   decodeInto[models.TradeList],
	})
	add(ResourcePerformance, livecache.Descriptor{
		Path:     "/api/performance",
		Interval: r.Performance,
		Decode:   decodeInto[models.PerformanceReport],
	})
	add(ResourceSignals, livecache.Descriptor{
		Path:     "/api/signals",
		Interval: r.Signals,
		Decode:   decodeInto[models.SignalList],
	})
	add(ResourceExternal, livecache.Descriptor{
		Path:     "/api/external-signals",
		Interval: r.External,
		Decode:   decodeInto[models.ExternalSignalList],
	})
	add(ResourceNews, livecache.Descriptor{
		Path:     "/api/news",
		Interval: r.News,
		Decode:   decodeInto[models.NewsCalendar],
	})
	add(ResourceActivity, livecache.Descriptor{
		Path:     "/api/activity",
		Query:    url.Values{"limit": {strconv.Itoa(r.ActivityLimit)}},
		Interval: r.Activity,
		Decode:   decodeInto[models.ActivityLog],
	})
	add(ResourceCorrelation, livecache.Descriptor{
		Path:     "/api/correlation-status",
		Interval: r.Correlation,
		Decode:   decodeInto[models.CorrelationStatus],
	})
	add(ResourceEquityCurve, livecache.Descriptor{
		Path:     "/api/equity-curve",
		Interval: r.EquityCurve,
		Decode:   decodeInto[[]models.EquityPoint],
	})
	add(ResourceSettings, livecache.Descriptor{
		Path:   "/api/settings",
		Decode: decodeInto[models.Settings],
	})
	add(ResourceBacktests, livecache.Descriptor{
		Path:   "/api/backtest/runs",
		Decode: decodeInto[models.BacktestRunList],
	})

	return reg
}

// Descriptor returns the descriptor registered under name.
func (r *Registry) Descriptor(name string) (livecache.Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Key returns the cache key of a named resource, or "" if unknown.
func (r *Registry) Key(name string) string {
	d, ok := r.descriptors[name]
	if !ok {
		return ""
	}
	return d.Key()
}

// Names lists resources in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
