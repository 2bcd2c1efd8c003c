package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/engine"
	"github.com/kdrennan/match-sim/internal/persist"
	"github.com/kdrennan/match-sim/internal/session"
	"github.com/kdrennan/match-sim/internal/symbol"
)

// Server provides REST API endpoints over the live book and the trade log.
type Server struct {
	reader  persist.TradeReader
	market  *engine.MarketEngine
	book    *book.Book
	mgr     *session.Manager
	syms    []symbol.Symbol
	byTick  map[string]*symbol.Symbol
	startAt time.Time
}

// NewServer creates a new API server.
func NewServer(reader persist.TradeReader, market *engine.MarketEngine, b *book.Book, mgr *session.Manager, syms []symbol.Symbol) *Server {
	byTick := make(map[string]*symbol.Symbol, len(syms))
	for i := range syms {
		byTick[syms[i].Ticker] = &syms[i]
	}
	return &Server{
		reader:  reader,
		market:  market,
		book:    b,
		mgr:     mgr,
		syms:    syms,
		byTick:  byTick,
		startAt: time.Now(),
	}
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/symbols/{ticker}", s.handleSymbolDetail)
	mux.HandleFunc("GET /api/book", s.handleBookSummary)
	mux.HandleFunc("GET /api/book/{ticker}", s.handleBookTicker)
	mux.HandleFunc("GET /api/orders/{id}", s.handleOrder)
	mux.HandleFunc("GET /api/trades/{ticker}", s.handleTrades)
	mux.HandleFunc("GET /api/candles/{ticker}", s.handleCandles)
	mux.HandleFunc("GET /api/stats", s.handleStats)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
