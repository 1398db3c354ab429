package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trading-journal/internal/config"
	"github.com/trogers1052/trading-journal/internal/intake"
	"github.com/trogers1052/trading-journal/internal/journal"
	"github.com/trogers1052/trading-journal/internal/store"
)

type fixedCategorizer struct {
	proposal intake.Proposal
}

func (f fixedCategorizer) Categorize(ctx context.Context, text string) (intake.Proposal, error) {
	return f.proposal, nil
}

func newTestServer(t *testing.T, categorizer intake.Categorizer) *httptest.Server {
	t.Helper()

	cfg := config.JournalConfig{MaxRiskPercent: decimal.NewFromInt(2), Accounts: config.DefaultAccounts()}
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	svc, err := journal.New(context.Background(), store.New(store.NewMemory()),
		store.DefaultSettings(cfg.StartingValues(), cfg.MaxRiskPercent, now),
		journal.Options{
			Policy:      intake.NewPolicy(cfg.Policies()),
			Categorizer: categorizer,
			Logger:      zerolog.Nop(),
			Now:         func() time.Time { return now },
		})
	require.NoError(t, err)

	server := httptest.NewServer(SetupRoutes(NewHandler(svc, zerolog.Nop())))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func doList(t *testing.T, url string) []map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, nil)

	resp, body := do(t, "GET", server.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestTradeLifecycle(t *testing.T) {
	server := newTestServer(t, nil)
	base := server.URL + "/api/v1"

	create := map[string]interface{}{
		"ticker":       "msft",
		"direction":    "Long",
		"entryPrice":   "400",
		"positionSize": "$1,200",
		"stopLoss":     380,
		"account":      "Income Generator",
	}
	resp, body := do(t, "POST", base+"/trades", create)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tr := body["trade"].(map[string]interface{})
	assert.Equal(t, "TRADE-001", tr["id"])
	assert.Equal(t, "MSFT", tr["ticker"])
	assert.Equal(t, "active", tr["status"])

	resp, _ = do(t, "PUT", base+"/trades/TRADE-001/mark", map[string]interface{}{"price": 410})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	positions := doList(t, base+"/accounts/income%20generator/positions")
	require.Len(t, positions, 1)
	assert.Equal(t, "30", positions[0]["profitLoss"])

	resp, body = do(t, "POST", base+"/trades/TRADE-001/close", map[string]interface{}{"exitReason": "Target Hit"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "exitPrice", body["field"])

	resp, body = do(t, "POST", base+"/trades/TRADE-001/close", map[string]interface{}{"exitPrice": 420, "rating": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "closed", body["status"])

	resp, _ = do(t, "POST", base+"/trades/TRADE-001/close", map[string]interface{}{"exitPrice": 430})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assert.Len(t, doList(t, base+"/trades?status=closed"), 1)
	assert.Empty(t, doList(t, base+"/trades?status=active"))

	accounts := doList(t, base+"/accounts")
	require.Len(t, accounts, 4)
	assert.Equal(t, "Income Generator", accounts[0]["account"])
	assert.Equal(t, "10060", accounts[0]["cash"])

	resp, body = do(t, "GET", base+"/analytics/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["trades"])
	assert.EqualValues(t, 1, body["wins"])

	bySource := doList(t, base+"/analytics/sources")
	require.Len(t, bySource, 1)
	assert.Equal(t, "Self-Discovered", bySource[0]["key"])
}

func TestErrorMapping(t *testing.T) {
	server := newTestServer(t, nil)
	base := server.URL + "/api/v1"

	resp, _ := do(t, "GET", base+"/trades/TRADE-404", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, "GET", base+"/accounts/retirement/positions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, "GET", base+"/trades?status=pending", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, "POST", base+"/trades", map[string]interface{}{
		"ticker": "GME", "direction": "Long", "entryPrice": 20, "positionSize": 3000, "account": "Speculation",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, body["violations"], 2)

	resp, _ = do(t, "PUT", base+"/trades/TRADE-001/mark", map[string]interface{}{"price": "soon"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, "POST", base+"/intake", map[string]interface{}{"sessionId": "s1", "text": "bought GME"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "missing_credential", body["kind"])
}

func TestIntakeRequiresSession(t *testing.T) {
	proposal, err := intake.ParseProposal(`{"account":"Trading Lab","ticker":"amd","stopLoss":95}`)
	require.NoError(t, err)
	server := newTestServer(t, fixedCategorizer{proposal: proposal})
	url := server.URL + "/api/v1/intake"

	resp, body := do(t, "POST", url, map[string]interface{}{"text": "AMD 2 shares"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "sessionId", body["field"])

	b, err := json.Marshal(map[string]interface{}{"text": "AMD 2 shares"})
	require.NoError(t, err)
	req, err := http.NewRequest("POST", url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("X-Intake-Session", "dialog-7")
	hresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	hresp.Body.Close()
	assert.Equal(t, http.StatusOK, hresp.StatusCode)
}

func TestRespondErrorContextStatuses(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop())
	req := httptest.NewRequest("POST", "/api/v1/intake", nil)

	for name, tc := range map[string]struct {
		err    error
		status int
	}{
		"cancelled": {context.Canceled, statusClientClosedRequest},
		"deadline":  {fmt.Errorf("categorize: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		"other":     {errors.New("boom"), http.StatusInternalServerError},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.respondError(rec, req, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestIntakeReturnsReviewedDraft(t *testing.T) {
	proposal, err := intake.ParseProposal(`{"account":"Trading Lab","ticker":"amd","direction":"Long",` +
		`"entryPrice":100,"positionSize":200,"stopLoss":95,"emotionalState":"Excited / FOMO"}`)
	require.NoError(t, err)
	server := newTestServer(t, fixedCategorizer{proposal: proposal})

	resp, body := do(t, "POST", server.URL+"/api/v1/intake", map[string]interface{}{"sessionId": "s1", "text": "AMD 2 shares"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	input := body["input"].(map[string]interface{})
	assert.Equal(t, "AMD", input["ticker"])
	assert.Equal(t, "Trading Lab", input["account"])
	assert.Equal(t, "AMD 2 shares", input["rawInput"])
	assert.Nil(t, body["violations"])

	// confirming the draft creates the trade
	resp, created := do(t, "POST", server.URL+"/api/v1/trades", input)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tr := created["trade"].(map[string]interface{})
	assert.Equal(t, "AMD 2 shares", tr["rawInput"])
	assert.NotNil(t, tr["aiFramework"])
}

func TestReadOnlyDocuments(t *testing.T) {
	server := newTestServer(t, nil)
	base := server.URL + "/api/v1"

	resp, body := do(t, "GET", base+"/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["accounts"], 4)

	resp, _ = do(t, "GET", base+"/watchlist", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, "GET", base+"/circuit-breaker", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["isTriggered"])

	resp, _ = do(t, "DELETE", base+"/trades/TRADE-001", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
