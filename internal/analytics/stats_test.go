package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DashPull/internal/domain/models"
)

func closedTrades(pnls ...float64) []models.Trade {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trades := make([]models.Trade, len(pnls))
	for i, pl := range pnls {
		ct := base.Add(time.Duration(i) * time.Hour)
		exit := 1.1
		trades[i] = models.Trade{
			ID:         int64(i + 1),
			Instrument: "EUR_USD",
			Direction:  models.DirectionLong,
			EntryPrice: 1.0,
			ExitPrice:  &exit,
			ProfitLoss: pl,
			OpenTime:   ct.Add(-time.Hour),
			CloseTime:  &ct,
		}
	}
	return trades
}

func TestAggregateStatsEmpty(t *testing.T) {
	s := AggregateStats(nil)
	assert.Equal(t, 0, s.TotalTrades)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.Equal(t, 0.0, s.Expectancy)
}

func TestAggregateStatsBasic(t *testing.T) {
	s := AggregateStats(closedTrades(10, -5, 20))
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 25.0, s.NetProfit)
	assert.InDelta(t, 66.67, s.WinRate, 0.01)
	assert.Equal(t, 15.0, s.AvgWin)
	assert.Equal(t, 5.0, s.AvgLoss)
	assert.Equal(t, 20.0, s.BestTrade)
	assert.Equal(t, -5.0, s.WorstTrade)
	assert.InDelta(t, 30.0/5.0, s.ProfitFactor, 1e-9)
}

func TestAggregateStatsNoLossesSentinel(t *testing.T) {
	s := AggregateStats(closedTrades(10, 5))
	assert.Equal(t, ProfitFactorNoLosses, s.ProfitFactor)
	assert.Equal(t, 100.0, s.WinRate)
}

func TestAggregateStatsAllLosses(t *testing.T) {
	s := AggregateStats(closedTrades(-10, -5))
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.Equal(t, 7.5, s.AvgLoss)
	// Expectancy is the full average loss when every trade loses.
	assert.InDelta(t, -7.5, s.Expectancy, 1e-9)
}

func TestAggregateStatsLongestStreaks(t *testing.T) {
	// W W L W W W L L
	s := AggregateStats(closedTrades(1, 2, -1, 3, 4, 5, -2, -3))
	assert.Equal(t, 3, s.ConsecutiveWins)
	assert.Equal(t, 2, s.ConsecutiveLosses)
}

func TestAggregateStatsBreakevenBreaksStreak(t *testing.T) {
	s := AggregateStats(closedTrades(1, 2, 0, 3))
	assert.Equal(t, 2, s.ConsecutiveWins)
	assert.Equal(t, 0, s.ConsecutiveLosses)
	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 3, s.WinningTrades)
}

func TestAggregateStatsIgnoresOpenTrades(t *testing.T) {
	trades := closedTrades(10, -5)
	trades = append(trades, models.Trade{ID: 99, Instrument: "GBP_USD", ProfitLoss: 7})
	s := AggregateStats(trades)
	assert.Equal(t, 2, s.TotalTrades)
	assert.Equal(t, 5.0, s.NetProfit)
}

func TestAggregateStatsExpectancy(t *testing.T) {
	s := AggregateStats(closedTrades(10, -5, 20))
	want := (s.WinRate/100)*s.AvgWin - (1-s.WinRate/100)*s.AvgLoss
	assert.InDelta(t, want, s.Expectancy, 1e-9)
}

func TestEquityCurveCumulative(t *testing.T) {
	trades := closedTrades(10, -5, 20)
	pts := EquityCurve(trades)
	require.Len(t, pts, 3)
	assert.Equal(t, 10.0, pts[0].Equity)
	assert.Equal(t, 5.0, pts[1].Equity)
	assert.Equal(t, 25.0, pts[2].Equity)
	assert.Equal(t, "2024-03-01", pts[0].Date)
}

func TestSharpeRatioDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(nil))
	assert.Equal(t, 0.0, SharpeRatio([]float64{1}))
	assert.Equal(t, 0.0, SharpeRatio([]float64{2, 2, 2}))
}

func TestSharpeRatioPositive(t *testing.T) {
	got := SharpeRatio([]float64{1, 2, 3, 2, 1, 2})
	assert.Greater(t, got, 0.0)
}

func TestCompareRunsDiff(t *testing.T) {
	a := models.BacktestRun{Pair: "EUR_USD", TotalTrades: 40, NetProfit: 1200.5, MaxDrawdown: -300}
	b := models.BacktestRun{Pair: "EUR_USD", TotalTrades: 32, NetProfit: 1550.25, MaxDrawdown: -180}
	cmp := CompareRuns(a, b)
	assert.Equal(t, -8, cmp.Diff.TotalTradesDiff)
	assert.InDelta(t, b.NetProfit-a.NetProfit, cmp.Diff.NetProfitDiff, 1e-9)
	assert.InDelta(t, b.MaxDrawdown-a.MaxDrawdown, cmp.Diff.MaxDrawdownDiff, 1e-9)
	assert.Equal(t, a, cmp.Baseline)
	assert.Equal(t, b, cmp.Modified)
}

func TestCompareRunsZeroRuns(t *testing.T) {
	cmp := CompareRuns(models.BacktestRun{}, models.BacktestRun{})
	assert.Equal(t, models.RunDiff{}, cmp.Diff)
}
