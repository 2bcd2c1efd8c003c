package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kdrennan/match-sim/internal/api"
	"github.com/kdrennan/match-sim/internal/archive"
	"github.com/kdrennan/match-sim/internal/book"
	"github.com/kdrennan/match-sim/internal/config"
	"github.com/kdrennan/match-sim/internal/engine"
	"github.com/kdrennan/match-sim/internal/match"
	"github.com/kdrennan/match-sim/internal/persist"
	"github.com/kdrennan/match-sim/internal/session"
	"github.com/kdrennan/match-sim/internal/sim"
	"github.com/kdrennan/match-sim/internal/symbol"
)

func main() {
	cfg := config.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("match simulator starting")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	// PRNG
	rng := engine.NewRNG(cfg.Seed)
	log.Printf("PRNG seed: %d", cfg.Seed)

	// Symbols
	syms := symbol.AllSymbols()
	log.Printf("loaded %d symbols", len(syms))

	// Market engine drives reference prices for order generation
	market := engine.NewMarketEngine(rng, syms)

	// Shared order book and matcher
	b := book.New(cfg.Capacity)
	matcher := match.NewEngine()
	log.Printf("order book capacity: %d", cfg.Capacity)

	// MongoDB
	store, err := persist.NewStore(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer store.Close(context.Background())

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Session manager
	mgr := session.NewManager(syms, cfg.SendBufferSize)

	// Persistence workers
	orderCh := make(chan sim.AcceptedOrder, 4096)
	fillCh := make(chan match.Fill, 4096)
	for i := 0; i < 2; i++ {
		go orderWriter(ctx, store, orderCh)
		go tradeWriter(ctx, store, fillCh)
	}

	// Producers
	gen := sim.NewGenerator(rng, market, syms)
	simCfg := sim.Config{
		Orders:     cfg.OrdersPerWorker,
		MatchEvery: cfg.MatchEvery,
		DelayMinMs: cfg.DelayMinMs,
		DelayMaxMs: cfg.DelayMaxMs,
	}

	var producers sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		p := sim.NewProducer(i, gen, b, matcher, simCfg, mgr, orderCh, fillCh)
		producers.Add(1)
		go func() {
			defer producers.Done()
			p.Run(ctx)
		}()
	}
	log.Printf("started %d producers (%d orders each)", cfg.Workers, cfg.OrdersPerWorker)

	// Background matcher keeps sweeping after producers finish
	go sim.RunMatcher(ctx, matcher, b, cfg.MatchInterval, mgr, fillCh)

	go func() {
		producers.Wait()
		log.Printf("all producers finished: %d orders in book, %d open",
			b.Len(), len(b.OpenOrders()))
	}()

	// Start trade retention pruner
	pruner := persist.NewPruner(store, cfg.TradeRetentionDays, cfg.RetentionInterval)
	go pruner.Run(ctx)

	// Start trade archiver (opt-in)
	if cfg.ArchiveDir != "" {
		archiver := archive.New(store.DB(), cfg.ArchiveDir, cfg.ArchiveMaxGB, cfg.ArchiveIntervalHours, cfg.ArchiveAfterHours)
		go archiver.Run(ctx)
	}

	// HTTP/WebSocket server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", session.Handler(mgr))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"orders":%d}`, mgr.ClientCount(), b.Len())
	})

	// REST API
	apiServer := api.NewServer(persist.NewMongoTradeReader(store.DB()), market, b, mgr, syms)
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.WSPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("WebSocket server listening on ws://%s/feed", addr)
	log.Printf("Health check: http://%s/health", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	log.Println("match simulator stopped")
}

// orderWriter drains accepted orders and writes them to the DB.
func orderWriter(ctx context.Context, store *persist.Store, ch <-chan sim.AcceptedOrder) {
	for {
		select {
		case <-ctx.Done():
			return
		case ao := <-ch:
			if err := store.SaveOrder(context.Background(), ao.Order, ao.Quantity); err != nil {
				log.Printf("save order %d: %v", ao.Order.ID, err)
			}
		}
	}
}

// tradeWriter drains executed fills and writes them to the DB.
func tradeWriter(ctx context.Context, store *persist.Store, ch <-chan match.Fill) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-ch:
			if err := store.SaveTrade(context.Background(), f); err != nil {
				log.Printf("save trade %d: %v", f.MatchNumber, err)
			}
		}
	}
}
