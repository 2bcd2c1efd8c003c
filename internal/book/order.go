package book

import (
	"sync"
)

// Side represents the buy or sell side of an order.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Status represents the lifecycle state of an order.
type Status byte

const (
	StatusOpen   Status = 'O'
	StatusFilled Status = 'F'
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusFilled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// Order is a single resting limit order. ID, Side, Ticker and Price are
// immutable after Submit publishes the order. Quantity and status are
// mutated by matching passes and are guarded by the order's own mutex, so
// two overlapping passes can never both spend the same shares.
type Order struct {
	ID     int64
	Side   Side
	Ticker string
	Price  float64

	mu       sync.Mutex
	quantity int32
	status   Status
}

// Snapshot returns the order's current quantity and status as one
// consistent pair.
func (o *Order) Snapshot() (int32, Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.quantity, o.status
}

// Quantity returns the order's remaining quantity.
func (o *Order) Quantity() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.quantity
}

// Status returns the order's current status.
func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Open reports whether the order still has unfilled quantity.
func (o *Order) Open() bool {
	return o.Status() == StatusOpen
}

// lockPair acquires both orders' mutexes in ID order. Every fill locks
// this way, which rules out deadlock between concurrent matching passes.
func lockPair(a, b *Order) {
	if a.ID < b.ID {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func unlockPair(a, b *Order) {
	a.mu.Unlock()
	b.mu.Unlock()
}

// FillPair atomically spends quantity on a buy/sell pair. It re-reads both
// quantities under the locks, fills min(buy, sell), and flips an order to
// Filled exactly when its quantity reaches zero. Returns the filled
// quantity, or 0 if either side was already fully filled by the time the
// locks were taken.
func FillPair(buy, sell *Order) int32 {
	lockPair(buy, sell)
	defer unlockPair(buy, sell)

	if buy.status != StatusOpen || sell.status != StatusOpen {
		return 0
	}

	filled := buy.quantity
	if sell.quantity < filled {
		filled = sell.quantity
	}
	if filled <= 0 {
		return 0
	}

	buy.quantity -= filled
	sell.quantity -= filled
	if buy.quantity == 0 {
		buy.status = StatusFilled
	}
	if sell.quantity == 0 {
		sell.status = StatusFilled
	}
	return filled
}
