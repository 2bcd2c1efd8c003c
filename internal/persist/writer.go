package persist

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/match"
)

// SaveOrder appends an accepted order to the orders log.
// The recorded quantity is the order's original size at acceptance.
func (s *Store) SaveOrder(ctx context.Context, o *book.Order, quantity int32) error {
	_, err := s.db.Collection(ordersCollection).InsertOne(ctx, bson.M{
		"order_id":     o.ID,
		"ticker":       o.Ticker,
		"side":         o.Side.String(),
		"quantity":     quantity,
		"price":        o.Price,
		"submitted_at": time.Now(),
	})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil // idempotent, ignore duplicates
	}
	return err
}

// SaveTrade appends a fill to the trades log.
func (s *Store) SaveTrade(ctx context.Context, f match.Fill) error {
	_, err := s.db.Collection(tradesCollection).InsertOne(ctx, bson.M{
		"match_number": int64(f.MatchNumber),
		"ticker":       f.Ticker,
		"buy_id":       f.BuyID,
		"sell_id":      f.SellID,
		"price":        f.Price,
		"shares":       f.Quantity,
		"executed_at":  f.ExecutedAt,
	})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil // idempotent, ignore duplicates
	}
	return err
}
