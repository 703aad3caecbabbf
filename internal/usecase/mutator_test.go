package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DashPull/internal/livecache"
	"DashPull/internal/trading"
	"DashPull/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

// backend fakes the trading API with counters per path.
type backend struct {
	openFetches int64
	closeCalls  int64
	failClose   bool
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trades/open", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&b.openFetches, 1)
		w.Write([]byte(`{"count":1,"trades":[{"id":"T-1","instrument":"EUR_USD","direction":"long"}]}`))
	})
	mux.HandleFunc("/api/account", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":1000}`))
	})
	mux.HandleFunc("/api/performance", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_trades":0}`))
	})
	mux.HandleFunc("/api/trades/close", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&b.closeCalls, 1)
		if b.failClose {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"trade not found"}`))
			return
		}
		w.Write([]byte(`{"status":"success","trade_id":"T-1","profit_loss":3.2}`))
	})
	return mux
}

func newMutatorFixture(t *testing.T, b *backend) (*Mutator, *livecache.Store, *Registry) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	client := trading.New(srv.URL, 5*time.Second, nil)
	log := testLogger(t)
	store := livecache.NewStore(client, log)
	t.Cleanup(store.Close)

	cfg := defaultConfig(t)
	// keep pollers quiet during the test
	cfg.Resources.OpenTrades = time.Hour
	cfg.Resources.Account = time.Hour
	cfg.Resources.Performance = time.Hour
	reg := NewRegistry(cfg)

	return NewMutator(client, store, reg, nil, log), store, reg
}

func waitForValue(t *testing.T, sub *livecache.Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		snap := sub.Snapshot()
		if !snap.Stale {
			return
		}
		select {
		case <-deadline:
			t.Fatal("no fresh snapshot before deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCloseTradeRefreshesSubscribedViews(t *testing.T) {
	b := &backend{}
	m, store, reg := newMutatorFixture(t, b)

	d, _ := reg.Descriptor(ResourceOpenTrades)
	sub := store.Subscribe(d)
	defer sub.Unsubscribe()
	waitForValue(t, sub)

	before := atomic.LoadInt64(&b.openFetches)
	res, err := m.CloseTrade(context.Background(), "T-1")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)

	assert.Equal(t, int64(1), atomic.LoadInt64(&b.closeCalls))
	assert.Greater(t, atomic.LoadInt64(&b.openFetches), before,
		"close must force an open-trades refresh")
}

func TestCloseTradeFailureLeavesCacheAlone(t *testing.T) {
	b := &backend{failClose: true}
	m, store, reg := newMutatorFixture(t, b)

	d, _ := reg.Descriptor(ResourceOpenTrades)
	sub := store.Subscribe(d)
	defer sub.Unsubscribe()
	waitForValue(t, sub)

	before := atomic.LoadInt64(&b.openFetches)
	_, err := m.CloseTrade(context.Background(), "T-1")
	require.Error(t, err)

	assert.Equal(t, before, atomic.LoadInt64(&b.openFetches),
		"failed mutation must not touch the cache")
}

func TestCloseTradeRequiresID(t *testing.T) {
	b := &backend{}
	m, _, _ := newMutatorFixture(t, b)

	_, err := m.CloseTrade(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt64(&b.closeCalls))
}

func TestRefreshSkipsUnsubscribedResources(t *testing.T) {
	b := &backend{}
	m, _, _ := newMutatorFixture(t, b)

	// no subscriptions at all: refresh of unknown keys must be silent
	res, err := m.CloseTrade(context.Background(), "T-1")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Zero(t, atomic.LoadInt64(&b.openFetches))
}
