package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/persist"
	"github.com/kdrennan/match-sim/internal/symbol"
)

type symbolInfo struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	RefPrice   float64 `json:"refPrice"`
	OpenBuys   int     `json:"openBuys"`
	OpenSells  int     `json:"openSells"`
	OpenShares int64   `json:"openShares"`
}

// handleSymbols returns all symbols with reference prices and open-order counts.
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	prices := s.market.AllPrices()
	open := s.book.OpenOrders()

	out := make([]symbolInfo, 0, len(s.syms))
	for _, sym := range s.syms {
		si := symbolInfo{
			Ticker:   sym.Ticker,
			Name:     sym.Name,
			Sector:   string(sym.Sector),
			RefPrice: prices[sym.Ticker],
		}
		for _, o := range open {
			if o.Ticker != sym.Ticker {
				continue
			}
			qty, _ := o.Snapshot()
			si.OpenShares += int64(qty)
			if o.Side == book.SideBuy {
				si.OpenBuys++
			} else {
				si.OpenSells++
			}
		}
		out = append(out, si)
	}

	writeJSON(w, http.StatusOK, out)
}

// handleSymbolDetail returns a single symbol.
func (s *Server) handleSymbolDetail(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	sym := s.resolveTicker(w, ticker)
	if sym == nil {
		return
	}

	si := symbolInfo{
		Ticker:   sym.Ticker,
		Name:     sym.Name,
		Sector:   string(sym.Sector),
		RefPrice: s.market.Price(sym.Ticker),
	}
	for _, o := range s.book.OpenOrders() {
		if o.Ticker != sym.Ticker {
			continue
		}
		qty, _ := o.Snapshot()
		si.OpenShares += int64(qty)
		if o.Side == book.SideBuy {
			si.OpenBuys++
		} else {
			si.OpenSells++
		}
	}

	writeJSON(w, http.StatusOK, si)
}

type bookSummary struct {
	Capacity   int `json:"capacity"`
	Orders     int `json:"orders"`
	OpenOrders int `json:"openOrders"`
}

// handleBookSummary returns book-wide occupancy counts.
func (s *Server) handleBookSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bookSummary{
		Capacity:   s.book.Capacity(),
		Orders:     s.book.Len(),
		OpenOrders: len(s.book.OpenOrders()),
	})
}

type orderJSON struct {
	ID       int64   `json:"id"`
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"`
	Quantity int32   `json:"quantity"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"`
}

func toOrderJSON(o *book.Order) orderJSON {
	qty, status := o.Snapshot()
	return orderJSON{
		ID:       o.ID,
		Ticker:   o.Ticker,
		Side:     o.Side.String(),
		Quantity: qty,
		Price:    o.Price,
		Status:   status.String(),
	}
}

type tickerBookResponse struct {
	Ticker string      `json:"ticker"`
	Buys   []orderJSON `json:"buys"`
	Sells  []orderJSON `json:"sells"`
}

// handleBookTicker returns the open orders resting on one ticker.
func (s *Server) handleBookTicker(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	sym := s.resolveTicker(w, ticker)
	if sym == nil {
		return
	}

	resp := tickerBookResponse{
		Ticker: sym.Ticker,
		Buys:   []orderJSON{},
		Sells:  []orderJSON{},
	}
	for _, o := range s.book.OpenOrders() {
		if o.Ticker != sym.Ticker {
			continue
		}
		if o.Side == book.SideBuy {
			resp.Buys = append(resp.Buys, toOrderJSON(o))
		} else {
			resp.Sells = append(resp.Sells, toOrderJSON(o))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleOrder returns one order by its ID.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o := s.book.Order(id)
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

// handleTrades returns paginated trades for a ticker from the database.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	sym := s.resolveTicker(w, ticker)
	if sym == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	trades, err := s.reader.QueryTrades(ctx, persist.TradeFilter{
		Ticker: sym.Ticker,
		Limit:  parseIntParam(r, "limit", 100),
		Offset: parseIntParam(r, "offset", 0),
		From:   parseTimeParam(r, "from"),
		To:     parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, trades)
}

// handleCandles returns OHLCV bars for a ticker.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	sym := s.resolveTicker(w, ticker)
	if sym == nil {
		return
	}

	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1m"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	candles, err := s.reader.QueryCandles(ctx, persist.CandleFilter{
		Ticker:   sym.Ticker,
		Interval: interval,
		Limit:    parseIntParam(r, "limit", 100),
		From:     parseTimeParam(r, "from"),
		To:       parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, candles)
}

type statsResponse struct {
	Uptime      string `json:"uptime"`
	Clients     int    `json:"clients"`
	Symbols     int    `json:"symbols"`
	Capacity    int    `json:"capacity"`
	TotalOrders int    `json:"totalOrders"`
	OpenOrders  int    `json:"openOrders"`
	TotalTrades int64  `json:"totalTrades"`
	TotalVolume int64  `json:"totalVolume"`
}

// handleStats returns runtime and aggregate statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ts, err := s.reader.QueryTradeStats(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:      time.Since(s.startAt).Truncate(time.Second).String(),
		Clients:     s.mgr.ClientCount(),
		Symbols:     len(s.syms),
		Capacity:    s.book.Capacity(),
		TotalOrders: s.book.Len(),
		OpenOrders:  len(s.book.OpenOrders()),
		TotalTrades: ts.TotalTrades,
		TotalVolume: ts.TotalVolume,
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveTicker looks up a symbol by ticker, writing a 404 if not found.
// Returns nil if the symbol was not found (error already written).
func (s *Server) resolveTicker(w http.ResponseWriter, ticker string) *symbol.Symbol {
	sym, ok := s.byTick[ticker]
	if !ok {
		writeError(w, http.StatusNotFound, "symbol not found: "+ticker)
		return nil
	}
	return sym
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseTimeParam parses an RFC3339 query parameter.
func parseTimeParam(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
