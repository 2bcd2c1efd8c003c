package engine

import (
	"math"
	"sync"

	"github.com/kdrennan/match-sim/internal/symbol"
)

const (
	baseDailyVol = 0.02 // 2% daily volatility
	sectorBlend  = 0.60 // 60% sector shock, 40% idiosyncratic
	ticksPerDay  = 86400
)

// MarketEngine maintains a reference price per ticker, moved by a GBM walk
// with sector-correlated returns. Producers quote their random orders
// around these references so that buys and sells actually cross.
type MarketEngine struct {
	mu     sync.RWMutex
	rng    *RNG
	prices map[string]float64
	byTick map[string]*symbol.Symbol

	// sector shocks generated once per tick cycle
	sectorShocks map[symbol.Sector]float64
}

// NewMarketEngine creates a reference-price engine for all symbols.
func NewMarketEngine(rng *RNG, syms []symbol.Symbol) *MarketEngine {
	prices := make(map[string]float64, len(syms))
	byTick := make(map[string]*symbol.Symbol, len(syms))
	for i := range syms {
		prices[syms[i].Ticker] = syms[i].BasePrice
		byTick[syms[i].Ticker] = &syms[i]
	}
	return &MarketEngine{
		rng:          rng,
		prices:       prices,
		byTick:       byTick,
		sectorShocks: make(map[symbol.Sector]float64),
	}
}

// GenerateSectorShocks produces one gaussian shock per sector.
// Call once per tick cycle before ticking individual tickers.
func (m *MarketEngine) GenerateSectorShocks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sec := range symbol.Sectors() {
		m.sectorShocks[sec] = m.rng.Gaussian()
	}
}

// Tick advances the reference price for one ticker and returns it.
// GBM: S(t+1) = S(t) * exp(vol * Z)
func (m *MarketEngine) Tick(ticker string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	sym := m.byTick[ticker]
	if sym == nil {
		return 0
	}

	price := m.prices[ticker]

	tickVol := baseDailyVol / math.Sqrt(ticksPerDay) * sym.VolatilityMultiplier

	sectorZ := m.sectorShocks[sym.Sector]
	idioZ := m.rng.Gaussian()
	z := sectorBlend*sectorZ + (1-sectorBlend)*idioZ

	price *= math.Exp(tickVol * z)

	// Snap to tick size, floor at 1 tick
	price = math.Round(price/sym.TickSize) * sym.TickSize
	if price < sym.TickSize {
		price = sym.TickSize
	}

	m.prices[ticker] = price
	return price
}

// Price returns the current reference price for a ticker.
func (m *MarketEngine) Price(ticker string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prices[ticker]
}

// AllPrices returns a snapshot of all current reference prices.
func (m *MarketEngine) AllPrices() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.prices))
	for k, v := range m.prices {
		out[k] = v
	}
	return out
}
