package models

import "time"

// NewsEvent is one calendar entry from the backend's news feed.
type NewsEvent struct {
	Title    string    `json:"title"`
	Country  string    `json:"country"`
	Date     time.Time `json:"date"`
	Impact   string    `json:"impact"` // low | medium | high
	Forecast string    `json:"forecast,omitempty"`
	Previous string    `json:"previous,omitempty"`
}

// NewsCalendar is the envelope of the news endpoints.
type NewsCalendar struct {
	Count       int         `json:"count"`
	LastRefresh *time.Time  `json:"last_refresh"`
	Events      []NewsEvent `json:"events"`
}
