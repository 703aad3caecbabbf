package models

import "time"

// Direction of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Trade is a single position as reported by the trading backend. Open
// trades have ExitPrice and CloseTime set to nil; the backend is the
// source of truth for the open/closed transition, this layer only holds
// the last polled snapshot.
type Trade struct {
	ID          int64      `json:"id"`
	Instrument  string     `json:"instrument"`
	Direction   Direction  `json:"direction"`
	Units       float64    `json:"units"`
	EntryPrice  float64    `json:"entry_price"`
	ExitPrice   *float64   `json:"exit_price"`
	ProfitLoss  float64    `json:"profit_loss"`
	ProfitPips  float64    `json:"profit_pips"`
	OpenTime    time.Time  `json:"open_time"`
	CloseTime   *time.Time `json:"close_time"`
	CloseReason string     `json:"close_reason,omitempty"`
	StopLoss    float64    `json:"stop_loss,omitempty"`
	TakeProfit  float64    `json:"take_profit,omitempty"`
}

// Closed reports whether the trade has been closed.
func (t *Trade) Closed() bool {
	return t.CloseTime != nil
}

// TradeList is the envelope used by the trades endpoints.
type TradeList struct {
	Count  int     `json:"count"`
	Trades []Trade `json:"trades"`
}

// EquityPoint is one sample of the equity curve. The sequence is
// chronological; the first element is the starting balance. Curves are
// replaced wholesale on each fetch, never mutated in place.
type EquityPoint struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}
