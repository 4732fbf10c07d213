package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voltlabs/credmarket/internal/config"
	"github.com/voltlabs/credmarket/internal/database"
	"github.com/voltlabs/credmarket/internal/ledger"
	"github.com/voltlabs/credmarket/internal/logger"
	"github.com/voltlabs/credmarket/internal/seed"
	"github.com/voltlabs/credmarket/internal/store"
)

func main() {
	envFile := flag.String("envFile", ".env", "Path to .env file")
	runSeed := flag.Bool("seed", false, "Bootstrap the demo market before serving")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.LogLevel)
	zlog.Info().
		Str("base_currency", cfg.BaseCurrencySymbol).
		Int("default_fee_bps", cfg.DefaultTradeFeeBps).
		Int("tx_max_retries", cfg.TxMaxRetries).
		Msg("starting credmarket")

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	runner := store.New(db, zlog, store.WithMaxRetries(cfg.TxMaxRetries))
	svc := ledger.NewService(runner, zlog)

	ctx := context.Background()

	if *runSeed {
		if err := seed.Run(ctx, svc, seed.DefaultPlan(), zlog); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
	}

	pools, err := svc.ListPools(ctx)
	if err != nil {
		log.Fatalf("Failed to list pools: %v", err)
	}
	for _, pool := range pools {
		event := zlog.Info().
			Str("symbol", pool.Token.Symbol).
			Str("cred_reserve", pool.CredReserve).
			Str("token_reserve", pool.TokenReserve).
			Str("total_shares", pool.TotalShares)
		if pool.SpotPrice != nil {
			event = event.Str("spot_price", *pool.SpotPrice)
		}
		event.Msg("pool")
	}

	zlog.Info().Str("port", cfg.MetricsPort).Msg("serving metrics")
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+cfg.MetricsPort, nil); err != nil {
		log.Fatalf("Metrics server failed: %v", err)
	}
}
