package models

import "time"

// Signal is an internally generated trading signal.
type Signal struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Instrument string    `json:"instrument"`
	Action     string    `json:"action"` // buy | sell
	Confidence float64   `json:"confidence"`
	Approved   bool      `json:"approved"`
	Source     string    `json:"source,omitempty"`
}

// SignalList is the envelope of the signals endpoint.
type SignalList struct {
	Count   int      `json:"count"`
	Signals []Signal `json:"signals"`
}

// ExternalSignal comes from a third-party signal provider, imported by
// the backend on request.
type ExternalSignal struct {
	Provider   string    `json:"provider"`
	Instrument string    `json:"instrument"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// ExternalSignalList is the envelope of the external-signals endpoint.
type ExternalSignalList struct {
	Count   int              `json:"count"`
	Signals []ExternalSignal `json:"signals"`
}

// CorrelationStatus reports which instrument pairs the backend currently
// considers too correlated to hold simultaneously.
type CorrelationStatus struct {
	Threshold float64             `json:"threshold"`
	Blocked   [][2]string         `json:"blocked_pairs"`
	Matrix    map[string]float64  `json:"matrix,omitempty"`
	UpdatedAt *time.Time          `json:"updated_at"`
}
