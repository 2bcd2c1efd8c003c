package persist

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Pruner ages trades out of the trade log. Each cycle deletes every trade
// whose executed_at falls before the retention cutoff; archived copies are
// the archive package's concern, not the pruner's.
type Pruner struct {
	store    *Store
	keepDays int
	interval time.Duration
}

// NewPruner creates a pruner keeping keepDays of trades, sweeping on the
// given interval. keepDays <= 0 disables pruning; interval <= 0 falls back
// to hourly.
func NewPruner(store *Store, keepDays int, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{store: store, keepDays: keepDays, interval: interval}
}

// Disabled reports whether the pruner keeps trades forever.
func (p *Pruner) Disabled() bool {
	return p.keepDays <= 0
}

// Run sweeps once at startup and then on every interval tick, until ctx is
// cancelled. Returns immediately when pruning is disabled.
func (p *Pruner) Run(ctx context.Context) {
	if p.Disabled() {
		log.Println("trade retention disabled (keep forever)")
		return
	}

	log.Printf("trade retention: pruning trades older than %d days every %v", p.keepDays, p.interval)

	p.pruneOnce(ctx, time.Now())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pruneOnce(ctx, time.Now())
		}
	}
}

func (p *Pruner) pruneOnce(ctx context.Context, now time.Time) {
	cutoff := p.cutoff(now)

	result, err := p.store.db.Collection(tradesCollection).DeleteMany(ctx, bson.M{
		"executed_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("trade retention prune error: %v", err)
		return
	}

	if result.DeletedCount > 0 {
		log.Printf("trade retention: pruned %d trades executed before %s", result.DeletedCount, cutoff.Format(time.DateOnly))
	}
}

// cutoff returns the instant before which trades age out, relative to now.
func (p *Pruner) cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.keepDays)
}
