package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
)

type mockJobs struct {
	screenCalls atomic.Int32
	screenErr   error
	ctxErr      error
}

func (m *mockJobs) RunScreen(ctx context.Context) (string, error) {
	m.screenCalls.Add(1)
	m.ctxErr = ctx.Err()
	return "🚀 LONG Candidates:\nBTC-USDT-SWAP (score=10)", m.screenErr
}

func (m *mockJobs) RunPnLUpdate(ctx context.Context) (string, error) {
	return "🚀 LONG: No open positions.\n📉 SHORT: No open positions.", nil
}

func (m *mockJobs) RunSwingScreen(ctx context.Context) (string, error) {
	return "✅ No swing entries right now.", nil
}

func (m *mockJobs) RunSwingPnLUpdate(ctx context.Context) (string, error) {
	return "🎯 SWING: No open positions.", nil
}

func (m *mockJobs) Assess(ctx context.Context, symbol string) domain.SymbolAssessment {
	return domain.SymbolAssessment{Symbol: symbol, LongTotal: 7, Signal: domain.SignalLong}
}

type mockLedger struct {
	positions []domain.Position
	err       error
}

func (m *mockLedger) Positions(ctx context.Context) ([]domain.Position, error) {
	return m.positions, m.err
}

type mockHistory struct {
	gotLimit int
}

func (m *mockHistory) ArchivePositions(ctx context.Context, h []domain.PositionHistory) error {
	return nil
}

func (m *mockHistory) ListPositionHistory(ctx context.Context, limit int) ([]domain.PositionHistory, error) {
	m.gotLimit = limit
	return []domain.PositionHistory{{ID: 1, Ledger: domain.LedgerPrimary, Symbol: "ETH-USDT-SWAP", PnLPercent: 2.5}}, nil
}

func newTestServer(jobs *mockJobs, primary, swing PositionReader, history domain.PositionArchiver) http.Handler {
	return NewServer(0, jobs, primary, swing, history, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_TriggersAcceptGetAndPost(t *testing.T) {
	jobs := &mockJobs{}
	h := newTestServer(jobs, &mockLedger{}, &mockLedger{}, nil)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := do(t, h, method, "/run/screen")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "BTC-USDT-SWAP (score=10)")
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	}
	assert.Equal(t, int32(2), jobs.screenCalls.Load())
	assert.NoError(t, jobs.ctxErr)

	rec := do(t, h, http.MethodDelete, "/run/screen")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodPost, "/run/swing-pnl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "🎯 SWING: No open positions.", rec.Body.String())
}

func TestServer_TriggerFailure(t *testing.T) {
	jobs := &mockJobs{screenErr: errors.New("instrument list unavailable")}
	h := newTestServer(jobs, &mockLedger{}, &mockLedger{}, nil)

	rec := do(t, h, http.MethodPost, "/run/screen")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "instrument list unavailable")
}

func TestServer_Positions(t *testing.T) {
	primary := &mockLedger{positions: []domain.Position{
		{Symbol: "BTC-USDT-SWAP", Signal: domain.SignalLong, EntryPrice: 100, PnLPercent: 10},
	}}
	swing := &mockLedger{}
	h := newTestServer(&mockJobs{}, primary, swing, nil)

	rec := do(t, h, http.MethodGet, "/positions")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "BTC-USDT-SWAP", got[0]["symbol"])
	assert.Equal(t, 100.0, got[0]["entry_price"])
	assert.Equal(t, 10.0, got[0]["pnl"])

	rec = do(t, h, http.MethodGet, "/positions/swing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	swing.err = errors.New("disk gone")
	rec = do(t, h, http.MethodGet, "/positions/swing")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_History(t *testing.T) {
	rec := do(t, newTestServer(&mockJobs{}, &mockLedger{}, &mockLedger{}, nil), http.MethodGet, "/history")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	history := &mockHistory{}
	h := newTestServer(&mockJobs{}, &mockLedger{}, &mockLedger{}, history)

	rec = do(t, h, http.MethodGet, "/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, history.gotLimit)
	assert.Contains(t, rec.Body.String(), "ETH-USDT-SWAP")

	rec = do(t, h, http.MethodGet, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, history.gotLimit)

	rec = do(t, h, http.MethodGet, "/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AssessAndHealth(t *testing.T) {
	h := newTestServer(&mockJobs{}, &mockLedger{}, &mockLedger{}, nil)

	rec := do(t, h, http.MethodGet, "/assess/btc-usdt-swap")
	require.Equal(t, http.StatusOK, rec.Code)
	var a domain.SymbolAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "BTC-USDT-SWAP", a.Symbol)
	assert.Equal(t, domain.SignalLong, a.Signal)

	rec = do(t, h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHistoryStats(t *testing.T) {
	rec := do(t, newTestServer(&mockJobs{}, &mockLedger{}, &mockLedger{}, nil), http.MethodGet, "/history/stats")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	history := &mockHistory{}
	h := newTestServer(&mockJobs{}, &mockLedger{}, &mockLedger{}, history)

	rec = do(t, h, http.MethodGet, "/history/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statsHistoryLimit, history.gotLimit)

	var stats []struct {
		Ledger   string  `json:"ledger"`
		Closed   int     `json:"closed"`
		TotalPnL float64 `json:"total_pnl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, "primary", stats[0].Ledger)
	assert.Equal(t, 1, stats[0].Closed)
	assert.InDelta(t, 2.5, stats[0].TotalPnL, 1e-9)

	rec = do(t, h, http.MethodGet, "/history/stats?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
