package trading

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "DashPull/pkg/http"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, 5*time.Second, func() (string, bool) { return "tok-123", true })
	return c, srv
}

func TestFetchReturnsRawBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/account", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"balance":1000.5}`))
	}))

	body, err := c.Fetch(context.Background(), "/api/account", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":1000.5}`, string(body))
}

func TestFetchForwardsQuery(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		w.Write([]byte(`[]`))
	}))

	_, err := c.Fetch(context.Background(), "/api/equity-curve", url.Values{"days": {"30"}})
	require.NoError(t, err)
}

func TestAccountDecodes(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":2500,"nav":2510.25,"unrealized_pl":10.25,"margin_used":50,"margin_available":2460.25,"open_trade_count":2}`))
	}))

	acct, err := c.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2500.0, acct.Balance)
	assert.Equal(t, 2, acct.OpenTradeCount)
}

func TestTradeHistoryPagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trades/history", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		w.Write([]byte(`{"count":0,"trades":[]}`))
	}))

	list, err := c.TradeHistory(context.Background(), 50, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
}

func TestCloseTradeSendsID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, jsonDecode(r, &body))
		assert.Equal(t, "T-42", body["trade_id"])
		w.Write([]byte(`{"status":"success","trade_id":"T-42","profit_loss":12.5}`))
	}))

	res, err := c.CloseTrade(context.Background(), "T-42")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 12.5, res.ProfitLoss)
}

func TestMutationErrorCarriesBackendDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"trade not found"}`))
	}))

	_, err := c.CloseTrade(context.Background(), "missing")
	require.Error(t, err)

	var ue *apphttp.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Contains(t, ue.Message, "trade not found")
}

func TestUpstreamErrorFallbackMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>gateway</html>`))
	}))

	_, err := c.Fetch(context.Background(), "/api/status", nil)
	require.Error(t, err)

	var ue *apphttp.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadGateway, ue.Status)
	assert.NotEmpty(t, ue.Message)
}

func TestLoginSendsForm(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "trader", r.PostForm.Get("username"))
		w.Write([]byte(`{"access_token":"abc.def.ghi","token_type":"bearer"}`))
	}))

	res, err := c.Login(context.Background(), "trader", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", res.AccessToken)
}

func TestCompareBacktestsDecodes(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/backtest/compare", r.URL.Path)
		w.Write([]byte(`{
			"baseline": {"run_id":1,"total_trades":10,"net_profit":100,"max_drawdown":20},
			"modified": {"run_id":2,"total_trades":12,"net_profit":130,"max_drawdown":15},
			"diff": {"total_trades_diff":2,"net_profit_diff":30,"max_drawdown_diff":-5}
		}`))
	}))

	cmp, err := c.CompareBacktests(context.Background(), &BacktestRequest{
		Pair: "EUR_USD", StartDate: "2025-01-01", EndDate: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.Diff.TotalTradesDiff)
	assert.Equal(t, -5.0, cmp.Diff.MaxDrawdownDiff)
}

func jsonDecode(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}
