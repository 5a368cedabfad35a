package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AssetTracker/internal/acquisition"
	"AssetTracker/internal/api"
	"AssetTracker/internal/cache"
	"AssetTracker/internal/calculator"
	"AssetTracker/internal/collector"
	"AssetTracker/internal/config"
	"AssetTracker/internal/format"
	"AssetTracker/internal/model"
	"AssetTracker/internal/scheduler"
	"AssetTracker/internal/storage"

	"github.com/fatih/color"
)

func main() {
	once := flag.Bool("once", false, "print the configured chart as a table and exit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] AssetTracker starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init storage
	backend := openStorage(ctx, cfg)
	defer backend.Close()
	log.Printf("[INFO] cache storage: %s", backend.Name())

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Mock {
		fetcher = &collector.MockFetcher{Coins: mockCoins(), BasePrice: 100}
	} else {
		fetcher = collector.NewCoinGeckoFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init tracker
	tr := acquisition.NewTracker(ctx, cache.New(backend), fetcher, acquisition.Options{
		CacheKey:    cfg.Cache.Key,
		CacheMaxAge: cfg.Cache.MaxAge,
		EagerFetch:  cfg.Cache.EagerFetch,
		DefaultDays: model.DaysRange(cfg.Chart.DefaultDays),
	})
	tr.Start()
	if cfg.Chart.Coin != "" {
		if err := tr.Apply(acquisition.Selection{
			Coin:       cfg.Chart.Coin,
			Compare:    cfg.Chart.Compare,
			Comparison: cfg.Chart.Comparison,
		}); err != nil {
			log.Fatalf("[FATAL] apply chart selection: %v", err)
		}
	}

	if *once {
		code := printOnce(ctx, tr)
		backend.Close()
		os.Exit(code)
	}

	// Init scheduler
	sched := scheduler.NewScheduler(tr)
	if err := sched.RegisterAll(cfg.Schedule.SeriesRefreshCron, cfg.Schedule.CacheSweepCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start HTTP server
	srv := api.NewServer(cfg.HTTP.Addr, tr)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	log.Println("[INFO] AssetTracker is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Printf("[ERROR] http server: %v", err)
		}
	}

	cancel()
	tr.Wait()
	log.Println("[INFO] AssetTracker stopped")
}

// openStorage falls back to in-memory storage when the configured backend
// cannot be opened.
func openStorage(ctx context.Context, cfg *config.Config) storage.Storage {
	var (
		s   storage.Storage
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return storage.NewMemory()
	case config.BackendFile:
		s, err = storage.NewFile(cfg.Storage.FilePath)
	case config.BackendSQLite:
		s, err = storage.NewSQLite(cfg.Storage.SQLitePath)
	case config.BackendRedis:
		r := cfg.Storage.Redis
		s, err = storage.NewRedis(ctx, r.Addr, r.Password, r.DB, r.Prefix)
	}
	if err != nil {
		log.Printf("[WARN] init %s storage failed, using memory: %v", cfg.Storage.Backend, err)
		return storage.NewMemory()
	}
	return s
}

func printOnce(ctx context.Context, tr *acquisition.Tracker) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := tr.WaitContext(ctx); err != nil {
		log.Printf("[ERROR] waiting for data: %v", err)
		return 1
	}

	status := tr.Status()
	for name, st := range map[string]acquisition.Status{
		"reference": status.Reference,
		"primary":   status.Primary,
		"compare":   status.Compare,
	} {
		if st.Error != "" {
			log.Printf("[WARN] %s: %s", name, st.Error)
		}
	}

	sel := tr.Selection()
	if coin, ok := tr.FindCoin(sel.Coin); ok {
		var compare *model.Coin
		if c, ok := tr.FindCoin(sel.Compare); ok && sel.Comparison {
			compare = &c
		}
		stats := format.StatsBar(coin, compare)
		for _, item := range stats.Primary {
			fmt.Printf("%-14s %s\n", item.Label, item.Value)
		}
		fmt.Println()
	}
	rows := tr.ChartRows()
	fmt.Printf("%s, %s\n", sel.Coin, sel.Days.Label())
	fmt.Print(format.ChartTable(rows))
	for tag, s := range calculator.Summarize(rows) {
		change := color.GreenString("%+.2f%%", s.Change)
		if s.Change < 0 {
			change = color.RedString("%+.2f%%", s.Change)
		}
		fmt.Printf("%s: high %.2f low %.2f change %s\n", tag, s.High, s.Low, change)
	}
	return 0
}

func mockCoins() []model.Coin {
	rank := func(n int) *int { return &n }
	return []model.Coin{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", Image: "https://assets.coingecko.com/coins/images/1/large/bitcoin.png", MarketCapRank: rank(1)},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth", Image: "https://assets.coingecko.com/coins/images/279/large/ethereum.png", MarketCapRank: rank(2)},
		{ID: "solana", Name: "Solana", Symbol: "sol", Image: "https://assets.coingecko.com/coins/images/4128/large/solana.png", MarketCapRank: rank(5)},
	}
}
