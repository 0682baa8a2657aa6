package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mimir/api"
	"mimir/config"
	"mimir/domain/book"
	"mimir/infra/kafka"
	"mimir/infra/logging"
	"mimir/infra/memory"
	"mimir/infra/metrics"
	"mimir/infra/outbox"
	"mimir/infra/sequence"
	"mimir/infra/wal"
	"mimir/jobs/broadcaster"
	"mimir/service"
	"mimir/snapshot"
)

func main() {
	envPath := flag.String("env", "", "path to .env file")
	feedPath := flag.String("feed", "", "feed file to process on startup (use - for stdin)")
	flag.Parse()

	cfg := config.LoadFromEnv(*envPath)

	log, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	metrics.Register()

	// ---------------- Durability ----------------

	entryWAL, err := wal.Open(wal.Config{
		Dir:         cfg.Durability.WALDir,
		SegmentSize: cfg.Durability.WALSegmentSize,
	})
	if err != nil {
		log.Fatal("wal init failed", zap.Error(err))
	}
	defer entryWAL.Close()

	box, err := outbox.Open(cfg.Durability.OutboxDir)
	if err != nil {
		log.Fatal("outbox init failed", zap.Error(err))
	}
	defer box.Close()

	// ---------------- Memory ----------------

	pool := memory.NewPool(func() *book.Order { return &book.Order{} })
	ring := memory.NewRetireRing(1 << 18)
	reader := snapshot.NewReader()

	// ---------------- Engine + recovery ----------------

	seqs := sequence.New(0)
	engine := service.NewEngine(
		service.Options{AmendIncreaseKeepsPriority: cfg.Engine.AmendIncreaseKeepsPriority},
		seqs, entryWAL, box, pool, ring, reader, log,
	)

	if err := engine.Recover(cfg.Durability.SnapshotDir, cfg.Durability.WALDir); err != nil {
		log.Fatal("recovery failed", zap.Error(err))
	}

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.StartSnapshotJob(ctx, cfg.Durability.SnapshotDir, cfg.Durability.SnapshotInterval)
	engine.StartEpochJob(ctx, cfg.Engine.EpochInterval)

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(box, cfg.Kafka.Brokers, cfg.Kafka.OutTopic, cfg.Kafka.DrainInterval, log)
		if err != nil {
			log.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer bc.Close()
		go bc.Run(ctx)
	}

	// ---------------- HTTP ----------------

	// Built before the feed sources start so the websocket notify hook
	// is installed ahead of the first processed command.
	server := api.NewServer(engine, log)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx, cfg.HTTP.Addr)
	}()

	// ---------------- Feed sources ----------------

	if *feedPath != "" {
		go runFileFeed(ctx, engine, *feedPath, cfg, log)
	}

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.FeedTopic, cfg.Kafka.FeedGroup, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, func(line string) {
				engine.ProcessLine(line)
			}); err != nil {
				log.Error("feed consumer stopped", zap.Error(err))
			}
		}()
	}

	log.Info("engine running",
		zap.String("http", cfg.HTTP.Addr),
		zap.Bool("kafka", cfg.Kafka.Enabled),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	cancel()

	if err := <-serverDone; err != nil {
		log.Error("api server exited", zap.Error(err))
	}
	if err := entryWAL.Sync(); err != nil {
		log.Error("final wal sync failed", zap.Error(err))
	}
}

func runFileFeed(ctx context.Context, engine *service.Engine, path string, cfg config.Config, log *zap.Logger) {
	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			log.Error("feed open failed", zap.String("path", path), zap.Error(err))
			return
		}
		defer f.Close()
		in = f
	}

	err := engine.RunFeed(ctx, in, service.FeedOptions{
		Acks:        os.Stdout,
		RenderEvery: cfg.Engine.RenderEvery,
		RenderTo:    os.Stdout,
	})
	if err != nil {
		log.Error("feed processing stopped", zap.Error(err))
		return
	}
	log.Info("feed complete")
}
