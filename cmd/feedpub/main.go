// feedpub publishes a line feed (file or stdin) to the engine's Kafka
// feed topic, one message per command line.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"mimir/config"
	"mimir/infra/kafka"
	"mimir/infra/logging"
)

func main() {
	cfg := config.LoadFromEnv("")

	log, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	in := os.Stdin
	if len(os.Args) > 1 && os.Args[1] != "-" {
		f, err := os.Open(os.Args[1])
		if err != nil {
			log.Fatal("feed open failed", zap.Error(err))
		}
		defer f.Close()
		in = f
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.FeedTopic)
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	scanner := bufio.NewScanner(in)
	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		n++
		key := []byte(strconv.Itoa(n))
		if err := producer.Send(ctx, key, []byte(line)); err != nil {
			log.Fatal("publish failed", zap.Int("line", n), zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatal("feed read failed", zap.Error(err))
	}

	log.Info("feed published",
		zap.Int("messages", n),
		zap.String("topic", cfg.Kafka.FeedTopic),
	)
}
