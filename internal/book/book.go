package book

import (
	"errors"
	"sync/atomic"
)

const (
	// DefaultCapacity matches the size the simulation was originally run at.
	DefaultCapacity = 10000

	// MaxTickerLen is the longest accepted ticker symbol.
	MaxTickerLen = 10
)

// Rejection errors returned by Submit. All are expected, recoverable
// conditions; none consume a slot.
var (
	ErrTickerTooLong   = errors.New("ticker symbol too long")
	ErrBookFull        = errors.New("order book is full")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// slot is one pre-allocated order cell. The published flag flips to true
// only after every order field has been written, so a scanner that sees a
// reserved-but-unpublished slot skips it instead of reading torn state.
type slot struct {
	published atomic.Bool
	order     Order
}

// Book is a bounded, append-only collection of orders shared between
// producers and matching passes. Orders are never removed or reordered;
// a fill only decrements quantity and eventually marks the order Filled.
//
// Construct one per run and pass it by pointer to both the ingestion and
// matching paths.
type Book struct {
	capacity int64
	next     atomic.Int64 // count of reserved slots
	slots    []slot
}

// New creates an empty book with the given fixed capacity.
func New(capacity int) *Book {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Book{
		capacity: int64(capacity),
		slots:    make([]slot, capacity),
	}
}

// Capacity returns the fixed maximum number of orders.
func (b *Book) Capacity() int { return int(b.capacity) }

// Len returns the number of reserved slots. Slots below Len may still be
// in the publish window; Order reports those as absent.
func (b *Book) Len() int {
	return int(b.next.Load())
}

// Submit validates and appends a new order, returning its assigned ID.
// IDs are slot indices: contiguous from 0 and unique across any number of
// concurrent submitters.
func (b *Book) Submit(side Side, ticker string, quantity int32, price float64) (int64, error) {
	if len(ticker) >= MaxTickerLen {
		return 0, ErrTickerTooLong
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	if price < 0 {
		return 0, ErrInvalidPrice
	}

	// Reserve a slot with a bounded CAS loop. Unlike fetch-add-then-revert,
	// a failed reservation never moves the counter, so capacity accounting
	// stays exact no matter how many submissions race past the limit.
	var id int64
	for {
		id = b.next.Load()
		if id >= b.capacity {
			return 0, ErrBookFull
		}
		if b.next.CompareAndSwap(id, id+1) {
			break
		}
	}

	s := &b.slots[id]
	s.order.ID = id
	s.order.Side = side
	s.order.Ticker = ticker
	s.order.Price = price
	s.order.quantity = quantity
	s.order.status = StatusOpen
	s.published.Store(true)

	return id, nil
}

// Order returns the order at index id, or nil if the slot is out of range
// or not yet published.
func (b *Book) Order(id int64) *Order {
	if id < 0 || id >= b.next.Load() {
		return nil
	}
	s := &b.slots[id]
	if !s.published.Load() {
		return nil
	}
	return &s.order
}

// OpenOrders returns the published orders that are still Open, in ID order.
func (b *Book) OpenOrders() []*Order {
	n := int64(b.Len())
	out := make([]*Order, 0, n)
	for i := int64(0); i < n; i++ {
		o := b.Order(i)
		if o == nil {
			continue
		}
		if o.Open() {
			out = append(out, o)
		}
	}
	return out
}
