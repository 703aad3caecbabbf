package repository

import (
	"context"
	"time"

	"DashPull/internal/domain/models"
)

// UpdatePublisher emits a resource-update event after each successful
// fetch so downstream consumers (audit, replay) can follow the live feed.
type UpdatePublisher interface {
	PublishUpdate(ctx context.Context, key string, fetchedAt time.Time, payload any) error
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// Archiver persists closed trades pulled from the trade-history resource
// into long-horizon storage.
type Archiver interface {
	ArchiveTrades(ctx context.Context, trades []models.Trade) error
	RecentTrades(ctx context.Context, instrument string, from, to time.Time, limit int) ([]models.Trade, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters for the live-state layer.
type Metrics interface {
	RecordFetch(key, outcome string)
	RecordFetchLatency(key string, seconds float64)
	RecordStale(key string, stale bool)
	RecordSubscribers(key string, n int)
	RecordError(kind string)
}
