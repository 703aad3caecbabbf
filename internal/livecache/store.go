// Package livecache is the synchronized-resource cache of the live-state
// layer. It keeps one last-known value per resource key, polls each key
// while it has subscribers, and serves stale values while a background
// fetch revalidates them. Errors never clear the last good value: a
// transient backend hiccup dims a panel instead of blanking it.
package livecache

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"DashPull/internal/domain/repository"
	"DashPull/pkg/logger"
)

// Fetcher retrieves the raw payload of one resource from the backend.
type Fetcher interface {
	Fetch(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, path string, query url.Values) ([]byte, error)

func (f FetchFunc) Fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return f(ctx, path, query)
}

// Snapshot is the view-facing state of one resource: the last known
// value (possibly stale), the last fetch error, and when the value was
// obtained. Stale is what views consult to decide between live and
// placeholder rendering.
type Snapshot struct {
	Value     any
	Err       error
	FetchedAt time.Time
	Stale     bool
}

// UpdateHook observes every applied fetch outcome. Hooks run outside the
// entry lock and must not block; the websocket hub, the Kafka update
// feed, and the trade archiver attach here.
type UpdateHook func(key string, snap Snapshot)

type entry struct {
	desc Descriptor

	mu        sync.Mutex
	value     any
	err       error
	fetchedAt time.Time
	fetched   bool
	inFlight  chan struct{} // non-nil while a fetch runs; closed on completion
	subs      map[string]*Subscription
	stopPoll  context.CancelFunc
}

func (e *entry) snapshotLocked() Snapshot {
	return Snapshot{
		Value:     e.value,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     e.err != nil || !e.fetched,
	}
}

// Store owns all cache entries. Entries for distinct keys never touch
// each other's state; within one key the single in-flight fetch is the
// only concurrency control needed.
type Store struct {
	fetcher Fetcher
	log     *logger.Logger
	metrics repository.Metrics

	mu      sync.Mutex
	entries map[string]*entry

	hookMu sync.RWMutex
	hooks  []UpdateHook
}

type StoreOption func(*Store)

// WithMetrics attaches an operational metrics recorder.
func WithMetrics(m repository.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

func NewStore(fetcher Fetcher, log *logger.Logger, opts ...StoreOption) *Store {
	s := &Store{
		fetcher: fetcher,
		log:     log,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnUpdate registers a hook observing applied fetch outcomes.
func (s *Store) OnUpdate(h UpdateHook) {
	s.hookMu.Lock()
	s.hooks = append(s.hooks, h)
	s.hookMu.Unlock()
}

// Subscribe registers interest in a resource. The returned subscription
// carries the last known value immediately (zero Snapshot before the
// first completed fetch) and receives every subsequent update on its
// channel. The first subscriber for a key arms the polling loop; the
// poll stops when the last one unsubscribes.
func (s *Store) Subscribe(d Descriptor) *Subscription {
	key := d.Key()

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{desc: d, subs: make(map[string]*Subscription)}
		s.entries[key] = e
	}
	s.mu.Unlock()

	sub := &Subscription{
		id:      uuid.NewString(),
		key:     key,
		store:   s,
		entry:   e,
		updates: make(chan Snapshot, 1),
	}

	e.mu.Lock()
	first := len(e.subs) == 0
	e.subs[sub.id] = sub
	snap := e.snapshotLocked()
	n := len(e.subs)
	e.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSubscribers(key, n)
	}

	// Prime the channel so a late-mounting view renders the cached value
	// without waiting for the next tick.
	if snap.FetchedAt != (time.Time{}) || snap.Err != nil {
		sub.push(snap)
	}

	if first {
		s.startPolling(e)
	}
	return sub
}

// Ensure creates the entry for d if missing, without subscribing and
// without arming the poll loop. On-demand resources are registered this
// way so Refresh can reach them before anyone subscribes.
func (s *Store) Ensure(d Descriptor) {
	key := d.Key()
	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		s.entries[key] = &entry{desc: d, subs: make(map[string]*Subscription)}
	}
	s.mu.Unlock()
}

// Refresh forces an out-of-band fetch for key, bypassing the poll timer.
// If a fetch is already in flight it attaches to that fetch instead of
// issuing a duplicate request, and returns once it completes.
func (s *Store) Refresh(ctx context.Context, key string) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownKey
	}

	e.mu.Lock()
	if ch := e.inFlight; ch != nil {
		e.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
		err := e.err
		e.mu.Unlock()
		return err
	}
	ch := make(chan struct{})
	e.inFlight = ch
	e.mu.Unlock()

	s.doFetch(ctx, e, ch)

	e.mu.Lock()
	err := e.err
	e.mu.Unlock()
	return err
}

// Snapshot returns the current state for key without subscribing.
func (s *Store) Snapshot(key string) (Snapshot, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return Snapshot{Stale: true}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), true
}

// Close stops every poll loop. Subscriptions become inert.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.mu.Lock()
		if e.stopPoll != nil {
			e.stopPoll()
			e.stopPoll = nil
		}
		e.mu.Unlock()
	}
}

func (s *Store) startPolling(e *entry) {
	if e.desc.Interval <= 0 {
		// On-demand resource: fetch once so the first subscriber is not
		// left on a zero snapshot forever, then stay quiet.
		go func() {
			if ch, ok := e.begin(); ok {
				s.doFetch(context.Background(), e, ch)
			}
		}()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.stopPoll = cancel
	e.mu.Unlock()

	go s.pollLoop(ctx, e)
}

func (s *Store) pollLoop(ctx context.Context, e *entry) {
	if ch, ok := e.begin(); ok {
		s.doFetch(ctx, e, ch)
	}

	ticker := time.NewTicker(e.desc.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick that finds a fetch in flight is skipped, not queued.
			ch, ok := e.begin()
			if !ok {
				continue
			}
			s.doFetch(ctx, e, ch)
		}
	}
}

// begin claims the single in-flight slot. ok is false when another fetch
// is already running.
func (e *entry) begin() (chan struct{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight != nil {
		return nil, false
	}
	ch := make(chan struct{})
	e.inFlight = ch
	return ch, true
}

// doFetch performs one fetch cycle and applies the outcome. The caller
// must hold the in-flight slot (ch from begin); it is released here.
func (s *Store) doFetch(ctx context.Context, e *entry, ch chan struct{}) {
	key := e.desc.Key()
	start := time.Now()

	raw, err := s.fetcher.Fetch(ctx, e.desc.Path, e.desc.Query)
	var value any
	if err == nil && e.desc.Decode != nil {
		value, err = e.desc.Decode(raw)
	} else if err == nil {
		value = raw
	}

	e.mu.Lock()
	if err != nil {
		// Keep the last good value: stale-but-displayed beats blank.
		e.err = err
	} else {
		e.value = value
		e.err = nil
		e.fetchedAt = time.Now()
		e.fetched = true
	}
	snap := e.snapshotLocked()
	subs := make([]*Subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	e.inFlight = nil
	close(ch)
	e.mu.Unlock()

	for _, sub := range subs {
		sub.push(snap)
	}

	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.RecordFetch(key, outcome)
		s.metrics.RecordFetchLatency(key, time.Since(start).Seconds())
		s.metrics.RecordStale(key, snap.Stale)
	}
	if err != nil && s.log != nil {
		s.log.Warn("resource fetch failed", logger.String("key", key), logger.Error(err))
	}

	s.hookMu.RLock()
	hooks := s.hooks
	s.hookMu.RUnlock()
	for _, h := range hooks {
		h(key, snap)
	}
}

func (s *Store) unsubscribe(sub *Subscription) {
	e := sub.entry
	e.mu.Lock()
	if _, ok := e.subs[sub.id]; !ok {
		e.mu.Unlock()
		return
	}
	delete(e.subs, sub.id)
	n := len(e.subs)
	if n == 0 && e.stopPoll != nil {
		// Last subscriber gone: the timer stops, the cached value stays,
		// and an already-issued fetch still lands in the cache.
		e.stopPoll()
		e.stopPoll = nil
	}
	e.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSubscribers(sub.key, n)
	}
}
