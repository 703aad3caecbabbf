package analytics

import "DashPull/internal/domain/models"

// CompareRuns packages two already-computed backtest runs with the signed
// deltas of their scalar metrics (modified minus baseline). It never runs
// a backtest itself; the runs may come from any two parameter sets.
func CompareRuns(baseline, modified models.BacktestRun) models.Comparison {
	return models.Comparison{
		Baseline: baseline,
		Modified: modified,
		Diff: models.RunDiff{
			TotalTradesDiff: modified.TotalTrades - baseline.TotalTrades,
			NetProfitDiff:   modified.NetProfit - baseline.NetProfit,
			MaxDrawdownDiff: modified.MaxDrawdown - baseline.MaxDrawdown,
		},
	}
}
