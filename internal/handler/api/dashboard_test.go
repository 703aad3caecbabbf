package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DashPull/internal/livecache"
	"DashPull/internal/service/ratelimit"
	"DashPull/internal/session"
	"DashPull/internal/trading"
	"DashPull/internal/usecase"
	"DashPull/pkg/config"
	"DashPull/pkg/logger"
)

func freshToken(t *testing.T) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"sub": "trader",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return "hdr." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

type fixture struct {
	echo  *echo.Echo
	store *livecache.Store
	reg   *usecase.Registry
	guard *session.Guard
}

func newFixture(t *testing.T, backend http.Handler) *fixture {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	guard := session.NewGuard(session.NewMemoryStore())
	client := trading.New(srv.URL, 5*time.Second, guard.Token)
	store := livecache.NewStore(client, log)
	t.Cleanup(store.Close)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	reg := usecase.NewRegistry(cfg)
	mut := usecase.NewMutator(client, store, reg, nil, log)

	e := echo.New()
	NewDashboardHandler(log, store, reg, mut, client, guard, ratelimit.New(100, 100), nil).RegisterRoutes(e)

	return &fixture{echo: e, store: store, reg: reg, guard: guard}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestProtectedViewRejectsAnonymous(t *testing.T) {
	f := newFixture(t, http.NewServeMux())

	rec := f.do(http.MethodGet, "/view/account", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/auth/login"`)
}

func TestResourceSnapshotServedWhenAuthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/account", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":1234.5,"open_trade_count":1}`))
	})
	f := newFixture(t, mux)
	require.NoError(t, f.guard.SetToken(freshToken(t)))

	d, _ := f.reg.Descriptor(usecase.ResourceAccount)
	f.store.Ensure(d)
	require.NoError(t, f.store.Refresh(contextBG(), d.Key()))

	rec := f.do(http.MethodGet, "/view/account", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":1234.5`)
	assert.Contains(t, rec.Body.String(), `"stale":false`)
}

func TestUnknownResourceIsNotFound(t *testing.T) {
	f := newFixture(t, http.NewServeMux())
	require.NoError(t, f.guard.SetToken(freshToken(t)))

	rec := f.do(http.MethodGet, "/view/nonsense", "")
	require.Equal(t, http.StatusOK, rec.Code) // envelope carries the status
	assert.Contains(t, rec.Body.String(), `"status":404`)
}

func TestOnDemandResourceFetchedOnFirstRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"risk_per_trade":2,"paper_trading":true}`))
	})
	f := newFixture(t, mux)
	require.NoError(t, f.guard.SetToken(freshToken(t)))

	rec := f.do(http.MethodGet, "/view/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paper_trading":true`)
}

func TestCloseTradeValidation(t *testing.T) {
	f := newFixture(t, http.NewServeMux())
	require.NoError(t, f.guard.SetToken(freshToken(t)))

	rec := f.do(http.MethodPost, "/view/trades/close", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":400`)
}

func TestMutationErrorKeepsBackendMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trades/close", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"trade not found"}`))
	})
	f := newFixture(t, mux)
	require.NoError(t, f.guard.SetToken(freshToken(t)))

	rec := f.do(http.MethodPost, "/view/trades/close", `{"trade_id":"T-9"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trade not found")
}

func TestLoginStoresTokenAndOpensViews(t *testing.T) {
	token := freshToken(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer"}`, token)
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bot_running":true}`))
	})
	f := newFixture(t, mux)

	rec := f.do(http.MethodPost, "/auth/login", `{"username":"trader","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)

	assert.True(t, f.guard.IsAuthenticated())

	d, _ := f.reg.Descriptor(usecase.ResourceStatus)
	f.store.Ensure(d)
	require.NoError(t, f.store.Refresh(contextBG(), d.Key()))
	rec = f.do(http.MethodGet, "/view/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutDropsSession(t *testing.T) {
	f := newFixture(t, http.NewServeMux())
	require.NoError(t, f.guard.SetToken(freshToken(t)))
	require.True(t, f.guard.IsAuthenticated())

	rec := f.do(http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.guard.IsAuthenticated())

	rec = f.do(http.MethodGet, "/view/account", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnalyticsCompareIsPure(t *testing.T) {
	f := newFixture(t, http.NewServeMux())
	require.NoError(t, f.guard.SetToken(freshToken(t)))

	body := `{
		"baseline": {"pair":"EUR_USD","total_trades":10,"net_profit":100,"max_drawdown":20},
		"modified": {"pair":"EUR_USD","total_trades":8,"net_profit":130,"max_drawdown":12}
	}`
	rec := f.do(http.MethodPost, "/view/analytics/compare", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_trades_diff":-2`)
	assert.Contains(t, rec.Body.String(), `"net_profit_diff":30`)
	assert.Contains(t, rec.Body.String(), `"max_drawdown_diff":-8`)
}

func contextBG() context.Context { return context.Background() }
