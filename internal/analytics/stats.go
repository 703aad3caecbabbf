package analytics

import (
	"sort"

	mstats "github.com/montanaflynn/stats"

	"DashPull/internal/domain/models"
	"DashPull/pkg/util"
)

// ProfitFactorNoLosses is the sentinel the backend reports when a trade
// set has no losing trades. Kept identical here so locally derived and
// backend-served figures agree.
const ProfitFactorNoLosses = 999.0

// Stats are the aggregate figures over a set of closed trades.
// ConsecutiveWins/Losses are the longest streaks found in chronological
// close order, not the streak currently running.
type Stats struct {
	TotalTrades       int     `json:"total_trades"`
	WinningTrades     int     `json:"winning_trades"`
	LosingTrades      int     `json:"losing_trades"`
	WinRate           float64 `json:"win_rate"`
	ProfitFactor      float64 `json:"profit_factor"`
	NetProfit         float64 `json:"net_profit"`
	AvgWin            float64 `json:"avg_win"`
	AvgLoss           float64 `json:"avg_loss"`
	BestTrade         float64 `json:"best_trade"`
	WorstTrade        float64 `json:"worst_trade"`
	ConsecutiveWins   int     `json:"consecutive_wins"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	Expectancy        float64 `json:"expectancy"`
}

// AggregateStats computes Stats over closed trades. Open trades (nil
// CloseTime) are ignored. The input slice is not modified.
func AggregateStats(trades []models.Trade) Stats {
	closed := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Closed() {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].CloseTime.Before(*closed[j].CloseTime)
	})

	s := Stats{TotalTrades: len(closed)}
	if len(closed) == 0 {
		return s
	}

	var grossProfit, grossLoss float64
	curWins, curLosses := 0, 0
	s.BestTrade = closed[0].ProfitLoss
	s.WorstTrade = closed[0].ProfitLoss

	for _, t := range closed {
		pl := t.ProfitLoss
		s.NetProfit += pl
		if pl > s.BestTrade {
			s.BestTrade = pl
		}
		if pl < s.WorstTrade {
			s.WorstTrade = pl
		}

		switch {
		case pl > 0:
			s.WinningTrades++
			grossProfit += pl
			curWins++
			curLosses = 0
			if curWins > s.ConsecutiveWins {
				s.ConsecutiveWins = curWins
			}
		case pl < 0:
			s.LosingTrades++
			grossLoss += -pl
			curLosses++
			curWins = 0
			if curLosses > s.ConsecutiveLosses {
				s.ConsecutiveLosses = curLosses
			}
		default:
			// Breakeven trades break both streaks.
			curWins, curLosses = 0, 0
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100

	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		s.ProfitFactor = ProfitFactorNoLosses
	}

	if s.WinningTrades > 0 {
		s.AvgWin = grossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = grossLoss / float64(s.LosingTrades)
	}

	s.Expectancy = (s.WinRate/100)*s.AvgWin - (1-s.WinRate/100)*s.AvgLoss
	return s
}

// EquityCurve builds the cumulative-PnL curve from closed trades taken in
// close order. Each point is dated by the trade's close day.
func EquityCurve(trades []models.Trade) []models.EquityPoint {
	closed := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Closed() {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].CloseTime.Before(*closed[j].CloseTime)
	})

	curve := make([]models.EquityPoint, 0, len(closed))
	running := 0.0
	for _, t := range closed {
		running += t.ProfitLoss
		curve = append(curve, models.EquityPoint{
			Date:   util.DayKey(*t.CloseTime),
			Equity: running,
		})
	}
	return curve
}

// SharpeRatio computes mean/stddev over per-trade returns. Returns 0 for
// fewer than two samples or zero variance.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, err := mstats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := mstats.StandardDeviationSample(returns)
	if err != nil || sd == 0 {
		return 0
	}
	return mean / sd
}
