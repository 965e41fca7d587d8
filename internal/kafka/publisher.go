package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/storefront/internal/cart"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
)

var _ usecase.EventPublisher = (*Publisher)(nil)

// Publisher emits cart.updated events keyed by session id, so every event
// of a session lands on the same partition in order.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(lc fx.Lifecycle, conf *config.Config) usecase.EventPublisher {
	if !conf.Kafka.Enabled {
		return noopPublisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(conf.Kafka.Brokers...),
		Topic:        conf.Kafka.CartTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Errorw(context.Background(), "failed to deliver cart events", "count", len(messages), "error", err)
			}
		},
	}
	p := newPublisher(w)
	lc.Append(fx.StopHook(p.Close))
	return p
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

func (p *Publisher) PublishCartUpdated(ctx context.Context, sessionID string, snap models.Snapshot) error {
	msg := models.KafkaMessage[models.CartUpdatedData]{
		Pattern: models.PatternCartUpdated,
		Data: models.CartUpdatedData{
			SessionID: sessionID,
			Lines:     snap.Lines,
			Count:     snap.Count,
			Subtotal:  cart.Subtotal(snap).String(),
			UpdatedAt: p.now().UnixMilli(),
		},
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Pattern, err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(sessionID), Value: value}); err != nil {
		return fmt.Errorf("write %s: %w", msg.Pattern, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) PublishCartUpdated(context.Context, string, models.Snapshot) error {
	return nil
}
