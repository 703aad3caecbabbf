package usecase

import (
	"context"
	"time"

	"DashPull/internal/domain/models"
	"DashPull/internal/domain/repository"
	"DashPull/internal/livecache"
	"DashPull/pkg/logger"
)

const archiveTimeout = 10 * time.Second

// NewArchiveHook returns an update hook that copies closed trades from
// each trade-history refresh into the archiver. Runs async; archival
// failures are logged and never disturb the cache.
func NewArchiveHook(archiver repository.Archiver, registry *Registry, log *logger.Logger) livecache.UpdateHook {
	historyKey := registry.Key(ResourceHistory)

	return func(key string, snap livecache.Snapshot) {
		if key != historyKey || snap.Err != nil || snap.Value == nil {
			return
		}
		list, ok := snap.Value.(*models.TradeList)
		if !ok || len(list.Trades) == 0 {
			return
		}

		trades := make([]models.Trade, len(list.Trades))
		copy(trades, list.Trades)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := archiver.ArchiveTrades(ctx, trades); err != nil {
				log.Warn("trade archival failed",
					logger.Int("trades", len(trades)),
					logger.Error(err),
				)
			}
		}()
	}
}

// NewPublishHook returns an update hook forwarding applied fetches to an
// update publisher. Fetch failures are not published; the last good value
// already went out.
func NewPublishHook(pub repository.UpdatePublisher, log *logger.Logger) livecache.UpdateHook {
	return func(key string, snap livecache.Snapshot) {
		if snap.Err != nil || snap.Value == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := pub.PublishUpdate(ctx, key, snap.FetchedAt, snap.Value); err != nil {
				log.Warn("update publish failed",
					logger.String("resource", key),
					logger.Error(err),
				)
			}
		}()
	}
}
