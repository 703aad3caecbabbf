package models

// PerformanceReport is the backend's pre-computed closed-trade statistics
// plus the equity curve derived from the trade sequence. The analytics
// engine recomputes the same figures locally from raw trades; this shape
// is what the backend serves on /api/performance.
type PerformanceReport struct {
	TotalTrades       int           `json:"total_trades"`
	WinningTrades     int           `json:"winning_trades"`
	LosingTrades      int           `json:"losing_trades"`
	WinRate           float64       `json:"win_rate"`
	ProfitFactor      float64       `json:"profit_factor"`
	TotalProfit       float64       `json:"total_profit"`
	TotalLoss         float64       `json:"total_loss"`
	NetProfit         float64       `json:"net_profit"`
	MaxDrawdown       float64       `json:"max_drawdown"`
	AvgWin            float64       `json:"avg_win"`
	AvgLoss           float64       `json:"avg_loss"`
	BestTrade         float64       `json:"best_trade"`
	WorstTrade        float64       `json:"worst_trade"`
	ConsecutiveWins   int           `json:"max_consecutive_wins"`
	ConsecutiveLosses int           `json:"max_consecutive_losses"`
	Expectancy        float64       `json:"expectancy"`
	EquityCurve       []EquityPoint `json:"equity_curve"`
}
