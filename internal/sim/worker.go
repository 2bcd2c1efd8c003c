// Package sim drives the simulation: producer goroutines feed random orders
// into the shared book, and matching passes run both inline (every few
// submissions, like the original workload) and on a fixed interval.
package sim

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/event"
	"github.com/kdrennan/match-sim/internal/match"
)

// Broadcaster fans events out to subscribed observers.
// *session.Manager satisfies this.
type Broadcaster interface {
	Broadcast(ticker string, msgs []event.Message)
}

// AcceptedOrder pairs an order with its original size, for the order log.
type AcceptedOrder struct {
	Order    *book.Order
	Quantity int32
}

// Config holds per-producer simulation parameters.
type Config struct {
	Orders     int // submissions per producer, 0 = until cancelled
	MatchEvery int // run a matching pass after every n-th submission
	DelayMinMs int
	DelayMaxMs int
}

// Producer submits random orders to the book with small randomized delays.
type Producer struct {
	id      int
	gen     *Generator
	book    *book.Book
	matcher *match.Engine
	cfg     Config

	events Broadcaster
	orders chan<- AcceptedOrder // nil disables order persistence
	fills  chan<- match.Fill    // nil disables fill persistence
}

// NewProducer creates one producer worker.
func NewProducer(id int, gen *Generator, b *book.Book, matcher *match.Engine, cfg Config, events Broadcaster, orders chan<- AcceptedOrder, fills chan<- match.Fill) *Producer {
	if cfg.MatchEvery <= 0 {
		cfg.MatchEvery = 5
	}
	if cfg.DelayMinMs <= 0 {
		cfg.DelayMinMs = 1
	}
	if cfg.DelayMaxMs < cfg.DelayMinMs {
		cfg.DelayMaxMs = cfg.DelayMinMs
	}
	return &Producer{
		id:      id,
		gen:     gen,
		book:    b,
		matcher: matcher,
		cfg:     cfg,
		events:  events,
		orders:  orders,
		fills:   fills,
	}
}

// Run submits orders until the configured count is reached or ctx is
// cancelled. Every MatchEvery-th submission also triggers a matching pass.
func (p *Producer) Run(ctx context.Context) {
	submitted := 0
	rejected := 0

	for i := 0; p.cfg.Orders == 0 || i < p.cfg.Orders; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		side, ticker, quantity, price := p.gen.Next()

		id, err := p.book.Submit(side, ticker, quantity, price)
		if err != nil {
			rejected++
			p.events.Broadcast(ticker, []event.Message{
				event.Rejected(side, ticker, quantity, price, err),
			})
			if errors.Is(err, book.ErrBookFull) {
				log.Printf("producer %d: book full after %d accepted, stopping", p.id, submitted)
				return
			}
			continue
		}
		submitted++

		o := p.book.Order(id)
		p.events.Broadcast(ticker, []event.Message{event.Accepted(o)})
		if p.orders != nil {
			select {
			case p.orders <- AcceptedOrder{Order: o, Quantity: quantity}:
			default:
				// log buffer full, drop the record rather than stall
			}
		}

		if submitted%p.cfg.MatchEvery == 0 {
			RunPass(p.matcher, p.book, p.events, p.fills)
		}

		delay := time.Duration(p.gen.rng.IntRange(p.cfg.DelayMinMs, p.cfg.DelayMaxMs)) * time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	log.Printf("producer %d finished: %d accepted, %d rejected", p.id, submitted, rejected)
}

// RunMatcher runs matching passes on a fixed interval until ctx is
// cancelled, with one final pass on the way out.
func RunMatcher(ctx context.Context, matcher *match.Engine, b *book.Book, interval time.Duration, events Broadcaster, fills chan<- match.Fill) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			RunPass(matcher, b, events, fills)
			return
		case <-ticker.C:
			RunPass(matcher, b, events, fills)
		}
	}
}

// RunPass performs one matching pass and routes the resulting fills to the
// broadcaster and the persistence channel.
func RunPass(matcher *match.Engine, b *book.Book, events Broadcaster, fillCh chan<- match.Fill) {
	fills := matcher.Run(b)
	for _, f := range fills {
		events.Broadcast(f.Ticker, []event.Message{event.FromFill(f)})
		if fillCh != nil {
			select {
			case fillCh <- f:
			default:
				// log buffer full, drop the record rather than stall
			}
		}
	}
}
