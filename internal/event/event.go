// Package event defines the observability events emitted by the ingestion
// and matching paths, replacing direct console output. The harness decides
// how to log or broadcast them.
package event

import (
	"time"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/match"
)

// Type identifies the kind of event.
type Type byte

const (
	TypeOrderAccepted Type = 'A'
	TypeOrderRejected Type = 'R'
	TypeFill          Type = 'F'
)

func (t Type) String() string {
	switch t {
	case TypeOrderAccepted:
		return "order_accepted"
	case TypeOrderRejected:
		return "order_rejected"
	case TypeFill:
		return "fill"
	default:
		return "unknown"
	}
}

// Message is one event. Which fields are meaningful depends on Type.
type Message struct {
	Type      Type
	Timestamp int64 // unix nanos, stamped at fan-out time

	Ticker string

	// order_accepted / order_rejected
	OrderID  int64
	Side     book.Side
	Quantity int32
	Price    float64
	Reason   string // order_rejected only

	// fill
	MatchNumber uint64
	BuyID       int64
	SellID      int64
}

// Accepted builds an order_accepted event for a newly published order.
func Accepted(o *book.Order) Message {
	qty, _ := o.Snapshot()
	return Message{
		Type:     TypeOrderAccepted,
		Ticker:   o.Ticker,
		OrderID:  o.ID,
		Side:     o.Side,
		Quantity: qty,
		Price:    o.Price,
	}
}

// Rejected builds an order_rejected event for a refused submission.
func Rejected(side book.Side, ticker string, quantity int32, price float64, err error) Message {
	return Message{
		Type:     TypeOrderRejected,
		Ticker:   ticker,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Reason:   err.Error(),
	}
}

// FromFill builds a fill event from a matching-engine fill.
func FromFill(f match.Fill) Message {
	return Message{
		Type:        TypeFill,
		Timestamp:   f.ExecutedAt.UnixNano(),
		Ticker:      f.Ticker,
		Quantity:    f.Quantity,
		Price:       f.Price,
		MatchNumber: f.MatchNumber,
		BuyID:       f.BuyID,
		SellID:      f.SellID,
	}
}

// Stamp sets the timestamp if the producer did not.
func (m *Message) Stamp() {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixNano()
	}
}
