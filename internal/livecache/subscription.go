package livecache

import (
	"context"
	"errors"
)

// ErrUnknownKey is returned by Refresh for a key no descriptor has ever
// been subscribed or registered under.
var ErrUnknownKey = errors.New("livecache: unknown resource key")

// Subscription is one view's handle on a resource. Updates arrive on a
// buffered channel with latest-wins delivery: a slow consumer sees the
// newest snapshot, never a backlog.
type Subscription struct {
	id      string
	key     string
	store   *Store
	entry   *entry
	updates chan Snapshot
}

// Key returns the resource key this subscription is attached to.
func (s *Subscription) Key() string { return s.key }

// Updates is the delivery channel. It is never closed; callers stop
// reading after Unsubscribe.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Snapshot returns the current cached state, stale or not.
func (s *Subscription) Snapshot() Snapshot {
	s.entry.mu.Lock()
	defer s.entry.mu.Unlock()
	return s.entry.snapshotLocked()
}

// Refresh forces an immediate fetch of this resource, joining any fetch
// already in flight.
func (s *Subscription) Refresh(ctx context.Context) error {
	return s.store.Refresh(ctx, s.key)
}

// Unsubscribe detaches this subscription. When it was the last one for
// the key, the poll timer is stopped; an in-flight fetch is not
// cancelled, its result still updates the cache silently.
func (s *Subscription) Unsubscribe() {
	s.store.unsubscribe(s)
}

// push delivers snap with latest-wins semantics.
func (s *Subscription) push(snap Snapshot) {
	select {
	case s.updates <- snap:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- snap:
		default:
		}
	}
}
