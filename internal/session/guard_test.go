package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenWithExpiry(sub string, exp int64) string {
	payload, _ := json.Marshal(Claims{Subject: sub, Expiry: exp})
	mid := base64.RawURLEncoding.EncodeToString(payload)
	return fmt.Sprintf("hdr.%s.sig", mid)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestDecodeValid(t *testing.T) {
	c, ok := Decode(tokenWithExpiry("trader-1", 1900000000))
	require.True(t, ok)
	assert.Equal(t, "trader-1", c.Subject)
	assert.Equal(t, int64(1900000000), c.Expiry)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"onlyonepart",
		"two.parts",
		"a.b.c.d",
		"hdr.!!!notbase64!!!.sig",
		"hdr." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig",
	}
	for _, raw := range cases {
		_, ok := Decode(raw)
		assert.False(t, ok, "token %q should not decode", raw)
	}
}

func TestIsAuthenticatedBoundary(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	g := NewGuard(store, WithClock(fixedClock(now)))

	// One second in the future: admitted.
	require.NoError(t, g.SetToken(tokenWithExpiry("u", now.Unix()+1)))
	assert.True(t, g.IsAuthenticated())

	// One second in the past: rejected.
	require.NoError(t, g.SetToken(tokenWithExpiry("u", now.Unix()-1)))
	assert.False(t, g.IsAuthenticated())
}

func TestIsAuthenticatedAbsentAndMalformed(t *testing.T) {
	g := NewGuard(NewMemoryStore())
	assert.False(t, g.IsAuthenticated())

	require.NoError(t, g.SetToken("two.parts"))
	assert.False(t, g.IsAuthenticated())
}

func TestAdmitStates(t *testing.T) {
	now := time.Now()
	g := NewGuard(NewMemoryStore(), WithClock(fixedClock(now)))

	// Public routes never consult the token.
	assert.Equal(t, Authenticated, g.Admit(false))

	// No token: redirect.
	assert.Equal(t, Redirecting, g.Admit(true))

	require.NoError(t, g.SetToken(tokenWithExpiry("u", now.Unix()+3600)))
	assert.Equal(t, Authenticated, g.Admit(true))

	// Expired and malformed collapse to the same observable outcome.
	require.NoError(t, g.SetToken(tokenWithExpiry("u", now.Unix()-3600)))
	assert.Equal(t, Redirecting, g.Admit(true))
}

func TestRemoveTokenIdempotent(t *testing.T) {
	g := NewGuard(NewMemoryStore())
	require.NoError(t, g.RemoveToken())
	require.NoError(t, g.SetToken(tokenWithExpiry("u", time.Now().Unix()+60)))
	require.NoError(t, g.RemoveToken())
	require.NoError(t, g.RemoveToken())
	_, ok := g.Token()
	assert.False(t, ok)
}

func TestSetTokenOverwrites(t *testing.T) {
	g := NewGuard(NewMemoryStore())
	require.NoError(t, g.SetToken("first.token.sig"))
	require.NoError(t, g.SetToken("second.token.sig"))
	raw, ok := g.Token()
	require.True(t, ok)
	assert.Equal(t, "second.token.sig", raw)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "token")
	s := NewFileStore(path)

	_, ok := s.Read()
	assert.False(t, ok)

	tok := tokenWithExpiry("u", time.Now().Unix()+60)
	require.NoError(t, s.Write(tok))

	// A fresh store over the same path sees the token before first render.
	s2 := NewFileStore(path)
	got, ok := s2.Read()
	require.True(t, ok)
	assert.Equal(t, tok, got)

	require.NoError(t, s2.Clear())
	_, ok = NewFileStore(path).Read()
	assert.False(t, ok)
}

func TestClaimsExpiredToken(t *testing.T) {
	now := time.Now()
	g := NewGuard(NewMemoryStore(), WithClock(fixedClock(now)))
	require.NoError(t, g.SetToken(tokenWithExpiry("u", now.Unix()-10)))
	_, ok := g.Claims()
	assert.False(t, ok)
}
