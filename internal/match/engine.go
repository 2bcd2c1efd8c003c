// Package match implements the price-priority matching pass over a shared
// order book.
//
// A pass walks every buy order visible at its start and pairs it with the
// cheapest eligible sell order, one sell per buy per pass. The pass is safe
// to run concurrently with submissions and with other passes: the book
// publishes slots only when fully written, and fills go through the
// per-order locking in the book package.
package match

import (
	"sync/atomic"
	"time"

	"github.com/kdrennan/match-sim/internal/book"
)

// Fill records one successful match between a buy and a sell order.
// The execution price is always the sell order's price; the buy price is
// a ceiling, not the traded price.
type Fill struct {
	MatchNumber uint64
	Ticker      string
	BuyID       int64
	SellID      int64
	Quantity    int32
	Price       float64
	ExecutedAt  time.Time
}

// Engine pairs compatible buy and sell orders on a book. It keeps no order
// state of its own; the only thing it owns is the match-number sequence.
type Engine struct {
	matchNum atomic.Uint64
}

// NewEngine creates a matching engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Run performs one matching pass and returns the fills it produced.
//
// Only orders with index below the book length at entry are considered;
// orders submitted during the pass wait for a later one. For each open buy
// order the pass selects the open sell order with the same ticker, a price
// at or below the buy price, and the strictly lowest price. Ties go to the
// lowest index, i.e. the earliest-submitted of the equal-priced sells.
func (e *Engine) Run(b *book.Book) []Fill {
	n := int64(b.Len())
	var fills []Fill

	for i := int64(0); i < n; i++ {
		buy := b.Order(i)
		if buy == nil || buy.Side != book.SideBuy {
			continue
		}
		qty, status := buy.Snapshot()
		if status != book.StatusOpen || qty <= 0 {
			continue
		}

		sell := e.bestSell(b, n, buy)
		if sell == nil {
			continue
		}

		// Quantities may have moved since selection; FillPair re-reads
		// them under both locks and fills min(buy, sell), or nothing if
		// a concurrent pass already finished either side.
		filled := book.FillPair(buy, sell)
		if filled == 0 {
			continue
		}

		fills = append(fills, Fill{
			MatchNumber: e.matchNum.Add(1),
			Ticker:      buy.Ticker,
			BuyID:       buy.ID,
			SellID:      sell.ID,
			Quantity:    filled,
			Price:       sell.Price,
			ExecutedAt:  time.Now().UTC(),
		})
	}

	return fills
}

// bestSell scans indices [0, n) for the cheapest open sell order that can
// trade against buy. Forward scan order makes the equal-price tie-break
// deterministic.
func (e *Engine) bestSell(b *book.Book, n int64, buy *book.Order) *book.Order {
	var best *book.Order
	bestPrice := 0.0

	for j := int64(0); j < n; j++ {
		if j == buy.ID {
			continue
		}
		o := b.Order(j)
		if o == nil || o.Side != book.SideSell || o.Ticker != buy.Ticker {
			continue
		}
		if o.Price > buy.Price {
			continue
		}
		qty, status := o.Snapshot()
		if status != book.StatusOpen || qty <= 0 {
			continue
		}
		if best == nil || o.Price < bestPrice {
			best = o
			bestPrice = o.Price
		}
	}

	return best
}
