package models

import "time"

// Account is the broker account summary.
type Account struct {
	Balance         float64 `json:"balance"`
	NAV             float64 `json:"nav"`
	UnrealizedPL    float64 `json:"unrealized_pl"`
	MarginUsed      float64 `json:"margin_used"`
	MarginAvailable float64 `json:"margin_available"`
	OpenTradeCount  int     `json:"open_trade_count"`
}

// DailyStats summarises today's trading activity.
type DailyStats struct {
	TradesToday int     `json:"trades_today"`
	WinsToday   int     `json:"wins_today"`
	LossesToday int     `json:"losses_today"`
	PnLToday    float64 `json:"pnl_today"`
}

// SystemStatus is the top-bar status block of the dashboard.
type SystemStatus struct {
	BotRunning         bool       `json:"bot_running"`
	PaperTrading       bool       `json:"paper_trading"`
	UptimeHours        float64    `json:"uptime_hours"`
	SignalGeneration   bool       `json:"signal_generation_running"`
	ExternalSignals    bool       `json:"external_signals_running"`
	LastSignalTime     *time.Time `json:"last_signal_time"`
	LastSignalPair     string     `json:"last_signal_pair,omitempty"`
	LastSignalType     string     `json:"last_signal_type,omitempty"`
	CanTrade           bool       `json:"can_trade"`
	CanTradeReason     string     `json:"can_trade_reason"`
	ActiveSessions     []string   `json:"active_sessions"`
	ConsecutiveLosses  int        `json:"consecutive_losses"`
	CooldownUntil      *time.Time `json:"cooldown_until"`
	Daily              DailyStats `json:"daily_stats"`
}

// ActivityEntry is one row of the backend's activity log.
type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
}

// ActivityLog is the envelope of the activity endpoint.
type ActivityLog struct {
	Count int             `json:"count"`
	Logs  []ActivityEntry `json:"logs"`
}
