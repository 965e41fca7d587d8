package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/segmentio/kafka-go"
)

// Consumer defines the interface for Kafka message consumption
type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// MessageHandler handles one decoded session.ended event.
type MessageHandler interface {
	HandleSessionEnded(ctx context.Context, data *models.SessionEndedData) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
