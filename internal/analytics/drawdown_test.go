package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"DashPull/internal/domain/models"
)

func curve(vals ...float64) []models.EquityPoint {
	pts := make([]models.EquityPoint, len(vals))
	for i, v := range vals {
		pts[i] = models.EquityPoint{Date: "2024-01-01", Equity: v}
	}
	return pts
}

func TestDrawdownEmpty(t *testing.T) {
	res := Drawdown(nil)
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Equal(t, -1, res.PeakIndex)
	assert.Equal(t, -1, res.TroughIndex)
}

func TestDrawdownSinglePoint(t *testing.T) {
	res := Drawdown(curve(100))
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Equal(t, -1, res.TroughIndex)
}

func TestDrawdownFlat(t *testing.T) {
	res := Drawdown(curve(100, 100))
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Equal(t, 0.0, res.Pct)
}

func TestDrawdownPeakTrough(t *testing.T) {
	res := Drawdown(curve(100, 50, 120))
	assert.Equal(t, 50.0, res.MaxDrawdown)
	assert.Equal(t, 0, res.PeakIndex)
	assert.Equal(t, 1, res.TroughIndex)
	assert.Equal(t, 100.0, res.PeakValue)
	assert.Equal(t, 50.0, res.Pct)
}

func TestDrawdownLaterPeakWins(t *testing.T) {
	// Second decline is deeper measured from the second, higher peak.
	res := Drawdown(curve(100, 90, 150, 60))
	assert.Equal(t, 90.0, res.MaxDrawdown)
	assert.Equal(t, 2, res.PeakIndex)
	assert.Equal(t, 3, res.TroughIndex)
	assert.Equal(t, 150.0, res.PeakValue)
	assert.InDelta(t, 60.0, res.Pct, 1e-9)
}

func TestDrawdownMonotonicRise(t *testing.T) {
	res := Drawdown(curve(10, 20, 30, 40))
	assert.Equal(t, 0.0, res.MaxDrawdown)
}

func TestDrawdownBounds(t *testing.T) {
	curves := [][]models.EquityPoint{
		curve(100, 0),
		curve(5, 3, 8, 1, 9),
		curve(1, 1, 1),
		curve(1000, 999, 1001, 998),
	}
	for _, c := range curves {
		res := Drawdown(c)
		assert.GreaterOrEqual(t, res.MaxDrawdown, 0.0)
		assert.GreaterOrEqual(t, res.Pct, 0.0)
		assert.LessOrEqual(t, res.Pct, 100.0)
	}
}
