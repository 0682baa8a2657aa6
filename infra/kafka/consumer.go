package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer reads raw feed lines from a Kafka topic. Each message
// value is one command line in the feed grammar; the handler runs on
// the consumer goroutine, so the engine's single-writer discipline is
// preserved as long as only one consumer feeds it.
type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(brokers []string, topic, group string, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: group,
		}),
		log: log,
	}
}

// Run delivers message values to fn until ctx is canceled. Handler
// errors are logged, not fatal: a bad feed line must not stop the
// engine.
func (c *Consumer) Run(ctx context.Context, fn func(line string)) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fn(string(msg.Value))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
