package models

// BacktestRun is one completed backtest as stored by the backend.
type BacktestRun struct {
	RunID        int64         `json:"run_id,omitempty"`
	Pair         string        `json:"pair"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	TotalTrades  int           `json:"total_trades"`
	Wins         int           `json:"wins"`
	Losses       int           `json:"losses"`
	WinRate      float64       `json:"win_rate"`
	ProfitFactor float64       `json:"profit_factor"`
	NetProfit    float64       `json:"net_profit"`
	MaxDrawdown  float64       `json:"max_drawdown"`
	AvgWin       float64       `json:"avg_win"`
	AvgLoss      float64       `json:"avg_loss"`
	SharpeRatio  float64       `json:"sharpe_ratio,omitempty"`
	Trades       []Trade       `json:"trades,omitempty"`
	EquityCurve  []EquityPoint `json:"equity_curve,omitempty"`
}

// BacktestRunList is the envelope of the backtest runs endpoint.
type BacktestRunList struct {
	Count int           `json:"count"`
	Runs  []BacktestRun `json:"runs"`
}

// RunDiff holds signed modified-minus-baseline deltas of the scalar
// metrics two runs are compared on.
type RunDiff struct {
	TotalTradesDiff int     `json:"total_trades_diff"`
	NetProfitDiff   float64 `json:"net_profit_diff"`
	MaxDrawdownDiff float64 `json:"max_drawdown_diff"`
}

// Comparison pairs a baseline run with a modified-parameters run.
// Comparisons are ephemeral: computed on demand, never cached.
type Comparison struct {
	Baseline BacktestRun `json:"baseline"`
	Modified BacktestRun `json:"modified"`
	Diff     RunDiff     `json:"diff"`
}
