// Package session owns the bearer token lifecycle: storage, expiry
// checks, and the admit-or-redirect decision for every protected surface.
package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Claims is the decoded payload of a session token. The token is an
// opaque signed three-part string; only the middle segment is parsed.
type Claims struct {
	Subject string `json:"sub"`
	Expiry  int64  `json:"exp"` // seconds since epoch
}

// Admission is the route admission state.
type Admission int

const (
	Unchecked Admission = iota
	Authenticated
	Redirecting
)

func (a Admission) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case Redirecting:
		return "redirecting"
	default:
		return "unchecked"
	}
}

// Guard gates every protected operation on a valid, non-expired token.
// Construct one per process with the storage backend injected; the zero
// value is not usable.
type Guard struct {
	store Store
	now   func() time.Time
}

type GuardOption func(*Guard)

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

func NewGuard(store Store, opts ...GuardOption) *Guard {
	g := &Guard{store: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Token returns the raw stored token, if any. No side effects.
func (g *Guard) Token() (string, bool) {
	return g.store.Read()
}

// SetToken overwrites any previous token; effective for subsequent reads
// immediately.
func (g *Guard) SetToken(raw string) error {
	return g.store.Write(raw)
}

// RemoveToken clears the slot. Idempotent.
func (g *Guard) RemoveToken() error {
	return g.store.Clear()
}

// Decode parses the token's middle segment as base64url JSON. The
// signature is trusted to have been verified server-side at issuance, so
// it is not checked here; this is an untrusted local parse. Malformed or
// non-three-part input yields ok=false, never a panic.
func Decode(raw string) (Claims, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, false
	}
	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Claims{}, false
	}
	if c.Expiry == 0 {
		return Claims{}, false
	}
	return c, true
}

// IsAuthenticated is the single predicate protected access consults: the
// stored token decodes and its expiry lies in the future. Absent,
// malformed, and expired tokens are indistinguishable to callers.
func (g *Guard) IsAuthenticated() bool {
	raw, ok := g.store.Read()
	if !ok {
		return false
	}
	c, ok := Decode(raw)
	if !ok {
		return false
	}
	return c.Expiry*1000 > g.now().UnixMilli()
}

// Claims decodes the stored token. ok is false when there is no usable
// token, expired tokens included.
func (g *Guard) Claims() (Claims, bool) {
	raw, ok := g.store.Read()
	if !ok {
		return Claims{}, false
	}
	c, ok := Decode(raw)
	if !ok || c.Expiry*1000 <= g.now().UnixMilli() {
		return Claims{}, false
	}
	return c, true
}

// Admit runs the admission state machine for one route entry. Public
// routes short-circuit to Authenticated with no check performed.
func (g *Guard) Admit(protected bool) Admission {
	if !protected {
		return Authenticated
	}
	if g.IsAuthenticated() {
		return Authenticated
	}
	return Redirecting
}
