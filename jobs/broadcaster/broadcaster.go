// Package broadcaster drains the durable outbox to Kafka. Delivery is
// at-least-once: entries are marked SENT before the produce and ACKED
// after, so a crash in between replays the send on the next pass.
package broadcaster

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"mimir/infra/outbox"
)

type Broadcaster struct {
	box      *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

func New(box *outbox.Outbox, brokers []string, topic string, interval time.Duration, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		box:      box,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}, nil
}

func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.box.ScanPending(func(e outbox.Entry) error {
		if err := b.box.MarkSent(e.Seq, e.Idx); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(keyOf(e)),
			Value: sarama.ByteEncoder(e.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// Leave SENT; the next pass retries.
			b.log.Warn("publish failed", zap.Uint64("seq", e.Seq), zap.Error(err))
			return nil
		}

		return b.box.MarkAcked(e.Seq, e.Idx)
	})
	if err != nil {
		b.log.Error("outbox drain failed", zap.Error(err))
	}
}

func keyOf(e outbox.Entry) string {
	// Keyed by sequence so partitioned consumers keep per-event order.
	return fmt.Sprintf("%d-%d", e.Seq, e.Idx)
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
