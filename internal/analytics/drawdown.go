// Package analytics holds the pure transforms the dashboard derives its
// figures from. Every function is a deterministic function of its inputs,
// performs no I/O, and is total: degenerate input (empty slices, single
// points, zero losses) yields a zeroed or sentinel result, never a panic.
package analytics

import "DashPull/internal/domain/models"

// DrawdownResult describes the largest peak-to-trough decline of an
// equity curve. Indexes are -1 when drawdown is undefined (fewer than
// two points).
type DrawdownResult struct {
	MaxDrawdown float64 `json:"max_drawdown"`
	PeakIndex   int     `json:"peak_index"`
	TroughIndex int     `json:"trough_index"`
	PeakValue   float64 `json:"peak_value"`
	Pct         float64 `json:"pct"`
}

// Drawdown scans the curve once, tracking the running maximum and the
// index at which it was last set. The drawdown at each point is measured
// against that peak; the largest such decline wins.
func Drawdown(curve []models.EquityPoint) DrawdownResult {
	if len(curve) < 2 {
		return DrawdownResult{PeakIndex: -1, TroughIndex: -1}
	}

	peak := curve[0].Equity
	peakIdx := 0

	res := DrawdownResult{PeakIndex: -1, TroughIndex: -1}
	for i, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
			peakIdx = i
		}
		dd := peak - p.Equity
		if dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
			res.PeakIndex = peakIdx
			res.TroughIndex = i
			res.PeakValue = peak
		}
	}

	if res.MaxDrawdown > 0 && res.PeakValue > 0 {
		res.Pct = res.MaxDrawdown / res.PeakValue * 100
	}
	return res
}
