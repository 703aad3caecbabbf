package usecase

import (
	"context"
	"errors"
	"fmt"

	"DashPull/internal/livecache"
	"DashPull/internal/trading"
	"DashPull/pkg/logger"
	"DashPull/pkg/queue"
)

// BacktestJob consumes queued backtest requests, runs them against the
// backend and refreshes the stored-runs view.
type BacktestJob struct {
	backend  *trading.Client
	store    *livecache.Store
	registry *Registry
	log      *logger.Logger
}

// NewBacktestJob builds the queue job.
func NewBacktestJob(backend *trading.Client, store *livecache.Store, registry *Registry, log *logger.Logger) *BacktestJob {
	return &BacktestJob{backend: backend, store: store, registry: registry, log: log}
}

func (j *BacktestJob) Name() string { return "backtest-runner" }

func (j *BacktestJob) Type() string { return BacktestJobType }

func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[trading.BacktestRequest](payload)
	if err != nil {
		return fmt.Errorf("backtest payload: %w", err)
	}

	run, err := j.backend.RunBacktest(ctx, req)
	if err != nil {
		return fmt.Errorf("run backtest %s %s..%s: %w", req.Pair, req.StartDate, req.EndDate, err)
	}

	j.log.Info("backtest finished",
		logger.Int64("run_id", run.RunID),
		logger.String("pair", run.Pair),
		logger.Int("total_trades", run.TotalTrades),
		logger.Float64("net_profit", run.NetProfit),
	)

	key := j.registry.Key(ResourceBacktests)
	if err := j.store.Refresh(ctx, key); err != nil && !errors.Is(err, livecache.ErrUnknownKey) {
		j.log.Warn("backtest runs refresh failed", logger.Error(err))
	}
	return nil
}
