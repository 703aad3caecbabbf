package livecache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DashPull/pkg/logger"
)

type countingFetcher struct {
	mu      sync.Mutex
	calls   int64
	payload []byte
	err     error
	gate    chan struct{} // when non-nil, Fetch blocks until closed
}

func (f *countingFetcher) Fetch(_ context.Context, _ string, _ url.Values) ([]byte, error) {
	atomic.AddInt64(&f.calls, 1)
	f.mu.Lock()
	gate := f.gate
	payload, err := f.payload, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return payload, err
}

func (f *countingFetcher) count() int64 { return atomic.LoadInt64(&f.calls) }

func (f *countingFetcher) set(payload []byte, err error) {
	f.mu.Lock()
	f.payload, f.err = payload, err
	f.mu.Unlock()
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func decodeJSON(data []byte) (any, error) {
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func TestDescriptorKeyCanonical(t *testing.T) {
	a := Descriptor{Path: "/api/trades/history", Query: url.Values{"limit": {"100"}, "offset": {"0"}}}
	b := Descriptor{Path: "/api/trades/history", Query: url.Values{"offset": {"0"}, "limit": {"100"}}}
	assert.Equal(t, a.Key(), b.Key())

	c := Descriptor{Path: "/api/account"}
	assert.Equal(t, "/api/account", c.Key())
}

func TestSubscribeDedupesRequests(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{"balance":100}`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/account", Interval: time.Hour, Decode: decodeJSON}

	sub1 := s.Subscribe(d)
	defer sub1.Unsubscribe()
	// Independently constructed descriptor, same key: shares the entry.
	sub2 := s.Subscribe(Descriptor{Path: "/api/account", Interval: time.Hour, Decode: decodeJSON})
	defer sub2.Unsubscribe()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), f.count(), "two subscribers within one interval must share one request")
}

func TestUnsubscribeStopsPolling(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{}`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/status", Interval: 20 * time.Millisecond, Decode: decodeJSON}
	sub := s.Subscribe(d)

	time.Sleep(90 * time.Millisecond)
	require.Greater(t, f.count(), int64(1), "polling should have re-fetched")

	sub.Unsubscribe()
	after := f.count()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, f.count(), "no fetches after last unsubscribe")
}

func TestSnapshotBeforeFirstFetchIsStale(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{}`)}
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()

	s := NewStore(f, testLogger(t))
	defer s.Close()

	sub := s.Subscribe(Descriptor{Path: "/api/news", Interval: time.Hour, Decode: decodeJSON})
	defer sub.Unsubscribe()

	snap := sub.Snapshot()
	assert.True(t, snap.Stale)
	assert.Nil(t, snap.Value)

	close(f.gate)
}

func TestFetchErrorKeepsLastValue(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{"balance":100}`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/account", Interval: time.Hour, Decode: decodeJSON}
	sub := s.Subscribe(d)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool { return !sub.Snapshot().Stale }, time.Second, 5*time.Millisecond)
	good := sub.Snapshot()
	require.NoError(t, good.Err)

	f.set(nil, errors.New("backend down"))
	require.Error(t, s.Refresh(context.Background(), d.Key()))

	snap := sub.Snapshot()
	assert.True(t, snap.Stale)
	assert.Error(t, snap.Err)
	assert.Equal(t, good.Value, snap.Value, "error must not clear the last good value")

	// Recovery on a later fetch clears staleness again.
	f.set([]byte(`{"balance":250}`), nil)
	require.NoError(t, s.Refresh(context.Background(), d.Key()))
	snap = sub.Snapshot()
	assert.False(t, snap.Stale)
	assert.Equal(t, map[string]any{"balance": 250.0}, snap.Value)
}

func TestRefreshJoinsInFlightFetch(t *testing.T) {
	gate := make(chan struct{})
	f := &countingFetcher{payload: []byte(`{}`), gate: gate}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/trades/open", Interval: time.Hour, Decode: decodeJSON}
	sub := s.Subscribe(d)
	defer sub.Unsubscribe()

	// Initial fetch is blocked on the gate.
	require.Eventually(t, func() bool { return f.count() == 1 }, time.Second, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background(), d.Key()) }()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), f.count(), "refresh must attach to the in-flight fetch")

	f.mu.Lock()
	f.gate = nil
	f.mu.Unlock()
	close(gate)

	require.NoError(t, <-done)
	assert.Equal(t, int64(1), f.count())

	// A refresh after completion issues a new request.
	require.NoError(t, s.Refresh(context.Background(), d.Key()))
	assert.Equal(t, int64(2), f.count())
}

func TestRefreshUnknownKey(t *testing.T) {
	s := NewStore(&countingFetcher{}, testLogger(t))
	defer s.Close()
	assert.ErrorIs(t, s.Refresh(context.Background(), "/api/nothing"), ErrUnknownKey)
}

func TestDecodeFailureIsFetchError(t *testing.T) {
	f := &countingFetcher{payload: []byte(`not json`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/settings", Decode: decodeJSON}
	sub := s.Subscribe(d)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool { return sub.Snapshot().Err != nil }, time.Second, 5*time.Millisecond)
	assert.True(t, sub.Snapshot().Stale)
}

func TestSecondSubscriberGetsCachedValueImmediately(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{"n":1}`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/performance", Interval: time.Hour, Decode: decodeJSON}
	sub1 := s.Subscribe(d)
	defer sub1.Unsubscribe()
	require.Eventually(t, func() bool { return !sub1.Snapshot().Stale }, time.Second, 5*time.Millisecond)

	sub2 := s.Subscribe(d)
	defer sub2.Unsubscribe()

	select {
	case snap := <-sub2.Updates():
		assert.Equal(t, map[string]any{"n": 1.0}, snap.Value)
	case <-time.After(time.Second):
		t.Fatal("second subscriber did not receive the cached value")
	}
}

func TestUpdateHookObservesFetches(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{"ok":true}`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	var mu sync.Mutex
	seen := make(map[string]int)
	s.OnUpdate(func(key string, snap Snapshot) {
		mu.Lock()
		seen[key]++
		mu.Unlock()
	})

	d := Descriptor{Path: "/api/activity", Decode: decodeJSON}
	sub := s.Subscribe(d)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[d.Key()] >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestLatestWinsDelivery(t *testing.T) {
	f := &countingFetcher{payload: []byte(`{"v":1}`)}
	s := NewStore(f, testLogger(t))
	defer s.Close()

	d := Descriptor{Path: "/api/equity-curve", Interval: time.Hour, Decode: decodeJSON}
	sub := s.Subscribe(d)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool { return !sub.Snapshot().Stale }, time.Second, 5*time.Millisecond)

	// Two refreshes without the consumer draining: only the newest
	// snapshot remains on the channel.
	f.set([]byte(`{"v":2}`), nil)
	require.NoError(t, s.Refresh(context.Background(), d.Key()))
	f.set([]byte(`{"v":3}`), nil)
	require.NoError(t, s.Refresh(context.Background(), d.Key()))

	var last Snapshot
	for {
		select {
		case snap := <-sub.Updates():
			last = snap
			continue
		default:
		}
		break
	}
	assert.Equal(t, map[string]any{"v": 3.0}, last.Value)
}
