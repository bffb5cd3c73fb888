package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/gen"
	"main/internal/model"
	"main/internal/ops"
	"main/internal/source"
	"main/internal/store"
	"main/pkg/conn"
)

// chaosEvery spaces the malformed/duplicate/update records so a chaos
// run still carries a mostly well-formed stream.
const chaosEvery = 10

func main() {
	if err := run(); err != nil {
		logs.Errorf("tdg: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to JSON config")
	interval := flag.Duration("interval", time.Second, "delay between batches")
	batches := flag.Int("batches", 0, "number of batches to publish (0 = until interrupted)")
	persist := flag.Bool("persist", true, "also append generated trades to Postgres")
	chaos := flag.Bool("chaos", false, "inject malformed, duplicate, and non-insert records")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := gen.NewGenerator(gen.Config{
		Tickers:      cfg.Generator.Tickers,
		MarketCode:   cfg.Generator.MarketCode,
		CurrencyCode: cfg.Generator.CurrencyCode,
		PriceMin:     cfg.Generator.PriceMin,
		PriceMax:     cfg.Generator.PriceMax,
		VolumeMin:    cfg.Generator.VolumeMin,
		VolumeMax:    cfg.Generator.VolumeMax,
		Seed:         cfg.Generator.Seed,
	})
	if err != nil {
		return err
	}

	writer, err := source.NewKafkaWriter(cfg.Kafka)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	var history *store.History
	if *persist {
		db, err := conn.NewPostgres(cfg.Postgres)
		if err != nil {
			return err
		}
		defer func() { _ = conn.ClosePostgres(db) }()
		history = store.NewHistory(db)
		if err := history.AutoMigrate(); err != nil {
			return err
		}
	}

	logs.Infof("tdg publishing to %s: %d trades per batch across %s, %d tickers",
		cfg.Kafka.Topic, cfg.Generator.TradesPerBatch, cfg.Generator.BatchSpread, len(cfg.Generator.Tickers))

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	published := 0
	for batch := 1; ; batch++ {
		trades := generator.Batch(time.Now().UTC(), cfg.Generator.TradesPerBatch, cfg.Generator.BatchSpread)

		if history != nil {
			if err := history.Append(ctx, trades); err != nil {
				logs.Warnf("trade history append failed: %+v", err)
			}
		}

		for i := range trades {
			if err := writer.WriteInsert(ctx, trades[i]); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
		published += len(trades)

		if *chaos && batch%chaosEvery == 0 {
			injectChaos(ctx, writer, trades)
		}

		logs.Infof("batch %d published (%d trades, %d total)", batch, len(trades), published)

		if *batches > 0 && batch >= *batches {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// injectChaos writes the three record shapes the pipeline must survive:
// an undecodable envelope, a replayed duplicate, and a non-insert
// operation.
func injectChaos(ctx context.Context, writer *source.KafkaWriter, trades []model.TradeEvent) {
	if err := writer.WriteRaw(ctx, "CHAOS", []byte("{this is not a change record")); err != nil {
		logs.Warnf("chaos malformed write failed: %+v", err)
	}
	if len(trades) > 0 {
		if err := writer.WriteInsert(ctx, trades[len(trades)-1]); err != nil {
			logs.Warnf("chaos duplicate write failed: %+v", err)
		}
	}
	if err := writer.WriteRaw(ctx, "CHAOS", []byte(`{"op":"update","payload":{"ticker":"CHAOS"}}`)); err != nil {
		logs.Warnf("chaos update write failed: %+v", err)
	}
}
