package usecase

import (
	"context"
	"errors"
	"fmt"

	"DashPull/internal/domain/models"
	"DashPull/internal/livecache"
	"DashPull/internal/trading"
	"DashPull/pkg/logger"
	"DashPull/pkg/queue"
)

// BacktestJobType is the queue message type for asynchronous backtests.
const BacktestJobType = "backtest.run"

// Mutator performs write operations against the trading backend and
// refreshes the cached resources those writes invalidate. A failed call
// leaves the cache untouched.
type Mutator struct {
	backend  *trading.Client
	store    *livecache.Store
	registry *Registry
	queue    queue.QueueService
	log      *logger.Logger
}

// NewMutator wires a mutator. queue may be nil; backtests then run inline.
func NewMutator(backend *trading.Client, store *livecache.Store, registry *Registry, q queue.QueueService, log *logger.Logger) *Mutator {
	return &Mutator{backend: backend, store: store, registry: registry, queue: q, log: log}
}

// refresh forces a re-fetch of named resources. Resources nobody has
// subscribed to yet are skipped.
func (m *Mutator) refresh(ctx context.Context, names ...string) {
	for _, name := range names {
		key := m.registry.Key(name)
		if key == "" {
			continue
		}
		if err := m.store.Refresh(ctx, key); err != nil && !errors.Is(err, livecache.ErrUnknownKey) {
			m.log.Warn("post-mutation refresh failed",
				logger.String("resource", name),
				logger.Error(err),
			)
		}
	}
}

// CloseTrade closes one open trade and refreshes positions, account and
// performance views.
func (m *Mutator) CloseTrade(ctx context.Context, tradeID string) (*trading.CloseResult, error) {
	if tradeID == "" {
		return nil, fmt.Errorf("trade_id required")
	}
	res, err := m.backend.CloseTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	m.refresh(ctx, ResourceOpenTrades, ResourceAccount, ResourcePerformance)
	return res, nil
}

// CloseAllTrades flattens every open position.
func (m *Mutator) CloseAllTrades(ctx context.Context) (*trading.CloseAllResult, error) {
	res, err := m.backend.CloseAllTrades(ctx)
	if err != nil {
		return nil, err
	}
	m.refresh(ctx, ResourceOpenTrades, ResourceAccount, ResourcePerformance)
	return res, nil
}

// UpdateSettings applies a partial settings update.
func (m *Mutator) UpdateSettings(ctx context.Context, update *models.SettingsUpdate) (*models.SettingsUpdateResult, error) {
	res, err := m.backend.UpdateSettings(ctx, update)
	if err != nil {
		return nil, err
	}
	m.refresh(ctx, ResourceSettings, ResourceStatus)
	return res, nil
}

// RunBacktest starts a backtest. With a queue configured the run is
// enqueued and processed by a worker; the stored-runs view picks up the
// result on its next refresh. Without a queue the run executes inline.
func (m *Mutator) RunBacktest(ctx context.Context, req *trading.BacktestRequest) (*models.BacktestRun, bool, error) {
	if m.queue != nil {
		if err := m.queue.PublishMessage(ctx, BacktestJobType, req); err != nil {
			return nil, false, fmt.Errorf("enqueue backtest: %w", err)
		}
		return nil, true, nil
	}

	run, err := m.backend.RunBacktest(ctx, req)
	if err != nil {
		return nil, false, err
	}
	m.refresh(ctx, ResourceBacktests)
	return run, false, nil
}

// CompareBacktests runs baseline and variant over the same window. The
// result is never cached.
func (m *Mutator) CompareBacktests(ctx context.Context, req *trading.BacktestRequest) (*models.Comparison, error) {
	return m.backend.CompareBacktests(ctx, req)
}
