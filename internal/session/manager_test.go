package session

import (
	"testing"

	"github.com/kdrennan/match-sim/internal/symbol"
)

func newTestManager() *Manager {
	return NewManager(symbol.AllSymbols(), 100)
}

func TestResolveTickersSpecific(t *testing.T) {
	m := newTestManager()
	tickers, all := m.ResolveTickers([]string{"AAPL", "MSFT"})
	if all {
		t.Fatal("should not be all")
	}
	if len(tickers) != 2 {
		t.Fatalf("expected 2 tickers, got %d", len(tickers))
	}
}

func TestResolveTickersWildcard(t *testing.T) {
	m := newTestManager()
	tickers, all := m.ResolveTickers([]string{"*"})
	if !all {
		t.Fatal("wildcard should set all=true")
	}
	if tickers != nil {
		t.Fatalf("wildcard should return nil tickers, got %v", tickers)
	}
}

func TestResolveTickersUnknown(t *testing.T) {
	m := newTestManager()
	tickers, all := m.ResolveTickers([]string{"ZZZZ"})
	if all {
		t.Fatal("should not be all")
	}
	if len(tickers) != 0 {
		t.Fatalf("expected 0 tickers for unknown symbol, got %d", len(tickers))
	}
}

func TestResolveTickersMixed(t *testing.T) {
	m := newTestManager()
	tickers, all := m.ResolveTickers([]string{"AAPL", "ZZZZ", "TSLA"})
	if all {
		t.Fatal("should not be all")
	}
	if len(tickers) != 2 {
		t.Fatalf("expected 2 tickers (AAPL + TSLA), got %d", len(tickers))
	}
}

func TestResolveTickersWildcardShortCircuits(t *testing.T) {
	m := newTestManager()
	// Wildcard should return immediately even with other tickers
	tickers, all := m.ResolveTickers([]string{"AAPL", "*", "TSLA"})
	if !all {
		t.Fatal("wildcard should short-circuit to all=true")
	}
	if tickers != nil {
		t.Fatalf("wildcard should return nil tickers, got %v", tickers)
	}
}

func TestClientCount(t *testing.T) {
	m := newTestManager()
	if m.ClientCount() != 0 {
		t.Fatalf("fresh manager ClientCount = %d, want 0", m.ClientCount())
	}
}
