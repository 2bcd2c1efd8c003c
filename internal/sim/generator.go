package sim

import (
	"math"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/engine"
	"github.com/kdrennan/match-sim/internal/symbol"
)

const (
	minQuantity = 1
	maxQuantity = 100

	// Quotes land within this many ticks of the reference price, so buys
	// and sells cross often enough to keep the matcher busy.
	maxTickOffset = 10
)

// Generator produces random limit orders quoted around the market engine's
// moving reference prices. Safe for concurrent use from many producers.
type Generator struct {
	rng    *engine.RNG
	market *engine.MarketEngine
	syms   []symbol.Symbol
}

// NewGenerator creates an order generator over the given symbol universe.
func NewGenerator(rng *engine.RNG, market *engine.MarketEngine, syms []symbol.Symbol) *Generator {
	return &Generator{rng: rng, market: market, syms: syms}
}

// Next returns the parameters of one random order: a uniformly chosen
// ticker, a 50/50 side, 1-100 shares, and a price a few ticks off the
// ticker's reference price.
func (g *Generator) Next() (book.Side, string, int32, float64) {
	sym := g.syms[g.rng.Intn(len(g.syms))]

	side := book.SideBuy
	if g.rng.Float64() < 0.5 {
		side = book.SideSell
	}

	quantity := int32(g.rng.IntRange(minQuantity, maxQuantity))

	// Advance the reference price, then quote around it.
	g.market.GenerateSectorShocks()
	ref := g.market.Tick(sym.Ticker)

	offset := float64(g.rng.IntRange(-maxTickOffset, maxTickOffset)) * sym.TickSize
	price := math.Round((ref+offset)/sym.TickSize) * sym.TickSize
	if price < sym.TickSize {
		price = sym.TickSize
	}

	return side, sym.Ticker, quantity, price
}
