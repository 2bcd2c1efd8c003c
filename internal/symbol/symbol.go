package symbol

// Sector represents a market sector.
type Sector string

const (
	SectorTech     Sector = "Tech"
	SectorFinance  Sector = "Finance"
	SectorConsumer Sector = "Consumer"
	SectorAuto     Sector = "Auto"
)

// Symbol holds metadata for a tradable instrument.
type Symbol struct {
	Ticker               string
	Name                 string
	Sector               Sector
	BasePrice            float64
	TickSize             float64
	VolatilityMultiplier float64
}

// AllSymbols returns the ten simulated large-cap tickers.
func AllSymbols() []Symbol {
	return []Symbol{
		// Tech: mid-high volatility
		{"AAPL", "Apple Inc", SectorTech, 185.00, 0.01, 1.2},
		{"MSFT", "Microsoft Corp", SectorTech, 410.00, 0.01, 1.0},
		{"GOOGL", "Alphabet Inc", SectorTech, 165.00, 0.01, 1.1},
		{"META", "Meta Platforms Inc", SectorTech, 480.00, 0.01, 1.4},
		{"NVDA", "NVIDIA Corp", SectorTech, 880.00, 0.01, 1.8},

		// Finance: low volatility
		{"JPM", "JPMorgan Chase & Co", SectorFinance, 195.00, 0.01, 0.7},
		{"BAC", "Bank of America Corp", SectorFinance, 38.50, 0.01, 0.8},

		// Consumer: low-mid volatility
		{"AMZN", "Amazon.com Inc", SectorConsumer, 178.00, 0.01, 1.1},
		{"WMT", "Walmart Inc", SectorConsumer, 60.25, 0.01, 0.5},

		// Auto: high volatility
		{"TSLA", "Tesla Inc", SectorAuto, 175.00, 0.01, 2.0},
	}
}

// Tickers returns just the ticker strings, in universe order.
func Tickers() []string {
	syms := AllSymbols()
	out := make([]string, len(syms))
	for i := range syms {
		out[i] = syms[i].Ticker
	}
	return out
}

// ByTicker returns a map from ticker to symbol for quick lookups.
func ByTicker() map[string]*Symbol {
	syms := AllSymbols()
	m := make(map[string]*Symbol, len(syms))
	for i := range syms {
		m[syms[i].Ticker] = &syms[i]
	}
	return m
}

// Sectors returns unique sectors in order.
func Sectors() []Sector {
	return []Sector{SectorTech, SectorFinance, SectorConsumer, SectorAuto}
}

// SymbolsBySector groups symbols by their sector.
func SymbolsBySector() map[Sector][]Symbol {
	syms := AllSymbols()
	m := make(map[Sector][]Symbol)
	for _, s := range syms {
		m[s.Sector] = append(m[s.Sector], s)
	}
	return m
}
