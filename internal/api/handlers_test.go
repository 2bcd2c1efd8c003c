package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/engine"
	"github.com/kdrennan/match-sim/internal/persist"
	"github.com/kdrennan/match-sim/internal/session"
	"github.com/kdrennan/match-sim/internal/symbol"
)

// --- stub TradeReader ---

type stubTradeReader struct {
	trades     []persist.Trade
	tradesErr  error
	candles    []persist.Candle
	candlesErr error
	stats      persist.TradeStats
	statsErr   error

	// capture filter args for assertions
	lastTradeFilter  persist.TradeFilter
	lastCandleFilter persist.CandleFilter
}

func (s *stubTradeReader) QueryTrades(_ context.Context, f persist.TradeFilter) ([]persist.Trade, error) {
	s.lastTradeFilter = f
	return s.trades, s.tradesErr
}

func (s *stubTradeReader) QueryCandles(_ context.Context, f persist.CandleFilter) ([]persist.Candle, error) {
	s.lastCandleFilter = f
	return s.candles, s.candlesErr
}

func (s *stubTradeReader) QueryTradeStats(_ context.Context) (persist.TradeStats, error) {
	return s.stats, s.statsErr
}

// --- test helpers ---

func newTestServer(stub *stubTradeReader) (*Server, *book.Book, *http.ServeMux) {
	syms := symbol.AllSymbols()
	rng := engine.NewRNG(42)
	market := engine.NewMarketEngine(rng, syms)

	b := book.New(64)
	mgr := session.NewManager(syms, 64)
	srv := NewServer(stub, market, b, mgr, syms)

	mux := http.NewServeMux()
	srv.Register(mux)
	return srv, b, mux
}

func mustDecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
}

// --- tests ---

func TestHandleSymbols(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/symbols", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != len(symbol.AllSymbols()) {
		t.Fatalf("expected %d symbols, got %d", len(symbol.AllSymbols()), len(out))
	}

	first := out[0]
	for _, key := range []string{"ticker", "sector", "refPrice", "openBuys", "openSells"} {
		if _, ok := first[key]; !ok {
			t.Errorf("missing key %q in symbol JSON", key)
		}
	}
}

func TestHandleSymbolsCountsOpenOrders(t *testing.T) {
	_, b, mux := newTestServer(&stubTradeReader{})
	if _, err := b.Submit(book.SideBuy, "AAPL", 100, 185.00); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := b.Submit(book.SideSell, "AAPL", 40, 184.50); err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/symbols/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if out["openBuys"] != float64(1) {
		t.Errorf("expected openBuys=1, got %v", out["openBuys"])
	}
	if out["openSells"] != float64(1) {
		t.Errorf("expected openSells=1, got %v", out["openSells"])
	}
	if out["openShares"] != float64(140) {
		t.Errorf("expected openShares=140, got %v", out["openShares"])
	}
}

func TestHandleSymbolDetail(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/symbols/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if out["ticker"] != "AAPL" {
		t.Errorf("expected ticker AAPL, got %v", out["ticker"])
	}
	if _, ok := out["refPrice"]; !ok {
		t.Error("missing refPrice field")
	}
}

func TestHandleSymbolDetailNotFound(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/symbols/ZZZZ", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var out map[string]string
	mustDecodeJSON(t, w.Result(), &out)

	if out["error"] == "" {
		t.Error("expected error message in response")
	}
}

func TestHandleBookSummary(t *testing.T) {
	_, b, mux := newTestServer(&stubTradeReader{})
	if _, err := b.Submit(book.SideBuy, "NVDA", 10, 880.00); err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/book", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	if out["capacity"] != float64(64) {
		t.Errorf("expected capacity=64, got %v", out["capacity"])
	}
	if out["orders"] != float64(1) {
		t.Errorf("expected orders=1, got %v", out["orders"])
	}
	if out["openOrders"] != float64(1) {
		t.Errorf("expected openOrders=1, got %v", out["openOrders"])
	}
}

func TestHandleBookTicker(t *testing.T) {
	_, b, mux := newTestServer(&stubTradeReader{})
	if _, err := b.Submit(book.SideBuy, "MSFT", 50, 410.00); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := b.Submit(book.SideSell, "MSFT", 25, 411.00); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := b.Submit(book.SideBuy, "JPM", 10, 195.00); err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/book/MSFT", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out tickerBookResponse
	mustDecodeJSON(t, w.Result(), &out)

	if len(out.Buys) != 1 || len(out.Sells) != 1 {
		t.Fatalf("expected 1 buy and 1 sell, got %d/%d", len(out.Buys), len(out.Sells))
	}
	if out.Buys[0].Ticker != "MSFT" {
		t.Errorf("expected MSFT buy, got %s", out.Buys[0].Ticker)
	}
}

func TestHandleBookTickerNotFound(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/book/ZZZZ", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleOrder(t *testing.T) {
	_, b, mux := newTestServer(&stubTradeReader{})
	id, err := b.Submit(book.SideSell, "TSLA", 30, 175.25)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/orders/"+strconv.FormatInt(id, 10), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out orderJSON
	mustDecodeJSON(t, w.Result(), &out)

	if out.ID != id || out.Ticker != "TSLA" || out.Side != "SELL" || out.Quantity != 30 {
		t.Fatalf("unexpected order JSON: %+v", out)
	}
	if out.Status != "OPEN" {
		t.Errorf("expected status open, got %s", out.Status)
	}
}

func TestHandleOrderNotFound(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/orders/99", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleOrderBadID(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/orders/abc", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleTrades(t *testing.T) {
	stub := &stubTradeReader{
		trades: []persist.Trade{
			{MatchNumber: 1, Ticker: "AAPL", Price: 185.50, Shares: 100, ExecutedAt: time.Now()},
			{MatchNumber: 2, Ticker: "AAPL", Price: 185.60, Shares: 200, ExecutedAt: time.Now()},
		},
	}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/trades/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []persist.Trade
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(out))
	}
}

func TestHandleTradesNotFound(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{})
	req := httptest.NewRequest("GET", "/api/trades/ZZZZ", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleTradesParams(t *testing.T) {
	stub := &stubTradeReader{trades: []persist.Trade{}}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/trades/AAPL?limit=5&offset=10", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if stub.lastTradeFilter.Limit != 5 {
		t.Errorf("expected limit=5, got %d", stub.lastTradeFilter.Limit)
	}
	if stub.lastTradeFilter.Offset != 10 {
		t.Errorf("expected offset=10, got %d", stub.lastTradeFilter.Offset)
	}
	if stub.lastTradeFilter.Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %q", stub.lastTradeFilter.Ticker)
	}
}

func TestHandleTradesDBError(t *testing.T) {
	stub := &stubTradeReader{tradesErr: errors.New("db connection lost")}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/trades/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHandleCandles(t *testing.T) {
	stub := &stubTradeReader{
		candles: []persist.Candle{
			{Bucket: time.Now(), Open: 185.0, High: 186.0, Low: 184.0, Close: 185.5, Volume: 1000, Count: 10},
		},
	}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out []persist.Candle
	mustDecodeJSON(t, w.Result(), &out)

	if len(out) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(out))
	}
}

func TestHandleCandlesDefaultInterval(t *testing.T) {
	stub := &stubTradeReader{candles: []persist.Candle{}}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if stub.lastCandleFilter.Interval != "1m" {
		t.Errorf("expected default interval 1m, got %q", stub.lastCandleFilter.Interval)
	}
}

func TestHandleCandlesCustomInterval(t *testing.T) {
	stub := &stubTradeReader{candles: []persist.Candle{}}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/AAPL?interval=5m", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if stub.lastCandleFilter.Interval != "5m" {
		t.Errorf("expected interval 5m, got %q", stub.lastCandleFilter.Interval)
	}
}

func TestHandleCandlesDBError(t *testing.T) {
	stub := &stubTradeReader{candlesErr: errors.New("unsupported interval: 99x")}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/candles/AAPL", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleStats(t *testing.T) {
	stub := &stubTradeReader{
		stats: persist.TradeStats{TotalTrades: 42, TotalVolume: 10000},
	}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var out map[string]any
	mustDecodeJSON(t, w.Result(), &out)

	for _, key := range []string{"uptime", "clients", "symbols", "capacity", "totalOrders", "totalTrades", "totalVolume"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in stats response", key)
		}
	}

	if out["totalTrades"] != float64(42) {
		t.Errorf("expected totalTrades=42, got %v", out["totalTrades"])
	}
	if out["totalVolume"] != float64(10000) {
		t.Errorf("expected totalVolume=10000, got %v", out["totalVolume"])
	}
}

func TestHandleStatsDBError(t *testing.T) {
	stub := &stubTradeReader{statsErr: errors.New("db down")}
	_, _, mux := newTestServer(stub)
	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestContentTypeJSON(t *testing.T) {
	_, _, mux := newTestServer(&stubTradeReader{
		stats: persist.TradeStats{},
	})

	endpoints := []string{
		"/api/symbols",
		"/api/symbols/AAPL",
		"/api/book",
		"/api/book/AAPL",
		"/api/stats",
	}

	for _, ep := range endpoints {
		req := httptest.NewRequest("GET", ep, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: expected Content-Type application/json, got %q", ep, ct)
		}
	}
}
