package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/gateway"
	"main/internal/hub"
	"main/internal/ingest"
	"main/internal/normalizer"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/source"
	"main/internal/store"
	"main/pkg/conn"
)

const metricsLogInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		logs.Errorf("streamd: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to JSON config")
	flag.Parse()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ProfilingEnabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "streamd",
			ServerAddress:   cfg.ProfilingServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() { _ = profiler.Stop() }()
	}

	db, err := conn.NewPostgres(cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() { _ = conn.ClosePostgres(db) }()

	history := store.NewHistory(db)
	if err := history.AutoMigrate(); err != nil {
		return err
	}

	var cache *store.TickCache
	if cfg.RedisEnabled {
		rdb, err := conn.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache = store.NewTickCache(rdb, cfg.CacheTTL)
	}

	reader, err := source.NewKafkaReader(cfg.Kafka)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	metrics := obs.NewMetrics()
	fanout := hub.New(cfg.SubscriptionQueueCapacity, metrics)
	partitions := bus.New(cfg.PartitionCount, cfg.PartitionQueueCapacity)
	workers := ingest.NewWorkers(partitions, fanout, cache, cfg.Window, metrics)
	runner := ingest.NewRunner(cfg.Runner, reader, normalizer.New(metrics), partitions, fanout, metrics)
	server := gateway.NewServer(cfg.Gateway, fanout, history, cache)

	logs.Infof("streamd starting: %d partitions, window %s slide %s, topic %s",
		cfg.PartitionCount, cfg.Window.Size, cfg.Window.Slide, cfg.Kafka.Topic)

	workers.Start(ctx)

	runnerErr := make(chan error, 1)
	go func() { runnerErr <- runner.Run(ctx) }()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run(ctx) }()

	ticker := time.NewTicker(metricsLogInterval)
	defer ticker.Stop()

	var fatal error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-runnerErr:
			if err != context.Canceled {
				fatal = err
			}
			runnerErr = nil
			stop()
			break loop
		case err := <-serverErr:
			fatal = err
			serverErr = nil
			stop()
			break loop
		case <-ticker.C:
			logSnapshot(metrics.Snapshot())
		}
	}

	// Ordered shutdown: the runner stops publishing, the bus closes so
	// workers drain and seal, then the hub releases live subscribers.
	if runnerErr != nil {
		if err := <-runnerErr; err != nil && err != context.Canceled {
			logs.Warnf("ingestion stopped: %+v", err)
		}
	}
	partitions.Close()
	workers.Wait()
	fanout.Shutdown()
	if serverErr != nil {
		if err := <-serverErr; err != nil {
			logs.Warnf("gateway stopped: %+v", err)
		}
	}

	logSnapshot(metrics.Snapshot())
	logs.Info("streamd stopped")
	return fatal
}

func logSnapshot(s obs.Snapshot) {
	logs.Infof("pipeline: ticks=%d rejects=%v dup=%d gaps=%d late=%d windows=%d(empty %d) alerts=%d drops=%d retries=%d restarts=%d latency(avg=%s max=%s)",
		s.TicksIngested, s.RejectCounts, s.Duplicates, s.Gaps, s.LateEvents,
		s.WindowsSealed, s.EmptyWindows, s.AlertsEmitted, s.SubscriptionDrops,
		s.SourceRetries, s.WorkerRestarts, s.IngestLatency.Avg, s.IngestLatency.Max)
}
