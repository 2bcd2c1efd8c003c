package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all simulator configuration.
type Config struct {
	// Server
	WSPort int
	Host   string

	// Database
	MongoURI string

	// Trade retention
	TradeRetentionDays int
	RetentionInterval  time.Duration

	// Book
	Capacity int

	// Simulation
	Seed            int64
	Workers         int
	OrdersPerWorker int
	MatchEvery      int
	DelayMinMs      int
	DelayMaxMs      int
	MatchInterval   time.Duration
	SendBufferSize  int

	// Local archive (opt-in: only active when ArchiveDir is set)
	ArchiveDir           string
	ArchiveMaxGB         int
	ArchiveIntervalHours int
	ArchiveAfterHours    int
}

func Load() *Config {
	c := &Config{}

	flag.IntVar(&c.WSPort, "port", envInt("MATCH_PORT", 8100), "WebSocket server port")
	flag.StringVar(&c.Host, "host", envStr("MATCH_HOST", "0.0.0.0"), "Listen host")

	flag.StringVar(&c.MongoURI, "mongo-uri", envStr("MONGO_URI", "mongodb://localhost:27017/matchsim"), "MongoDB connection URI")
	flag.IntVar(&c.TradeRetentionDays, "trade-retention", envInt("TRADE_RETENTION_DAYS", 7), "Trade log retention in days (0 = keep forever)")
	retentionMin := flag.Int("retention-interval", envInt("RETENTION_INTERVAL_MIN", 60), "Minutes between retention sweeps")

	flag.IntVar(&c.Capacity, "capacity", envInt("BOOK_CAPACITY", 10000), "Order book capacity")

	flag.Int64Var(&c.Seed, "seed", envInt64("MATCH_SEED", 0), "PRNG seed (0 = random)")
	flag.IntVar(&c.Workers, "workers", envInt("MATCH_WORKERS", 4), "Number of producer goroutines")
	flag.IntVar(&c.OrdersPerWorker, "orders-per-worker", envInt("ORDERS_PER_WORKER", 50), "Orders each producer submits")
	flag.IntVar(&c.MatchEvery, "match-every", envInt("MATCH_EVERY", 5), "Run a matching pass after every Nth accepted order per producer")
	flag.IntVar(&c.DelayMinMs, "delay-min", envInt("DELAY_MIN_MS", 1), "Min delay between orders in ms")
	flag.IntVar(&c.DelayMaxMs, "delay-max", envInt("DELAY_MAX_MS", 10), "Max delay between orders in ms")
	flag.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", 4096), "Per-client send buffer size")

	flag.StringVar(&c.ArchiveDir, "archive-dir", envStr("ARCHIVE_DIR", ""), "Directory for trade archival (empty = disabled)")
	flag.IntVar(&c.ArchiveMaxGB, "archive-max-gb", envInt("ARCHIVE_MAX_GB", 10), "Max total archive size in GB before rotation")
	flag.IntVar(&c.ArchiveIntervalHours, "archive-interval", envInt("ARCHIVE_INTERVAL_HOURS", 6), "Hours between archive runs")
	flag.IntVar(&c.ArchiveAfterHours, "archive-after", envInt("ARCHIVE_AFTER_HOURS", 24), "Archive trades older than this many hours")

	flag.Parse()

	c.MatchInterval = 500 * time.Millisecond
	c.RetentionInterval = time.Duration(*retentionMin) * time.Minute

	return c
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
