package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/go-playground/validator/v10"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxHandleAttempts = 3

type kafkaConsumer struct {
	reader         *kafka.Reader
	metrics        *prometheus.HistogramVec
	validate       *validator.Validate
	numWorkers     int
	consumeTimeout time.Duration
	messageHandler MessageHandler
	done           chan struct{}
	exited         chan struct{}
	started        atomic.Bool
	workerPool     *workerpool.WorkerPool
}

// NewConsumer creates the session.ended consumer. A disabled Kafka config
// yields a consumer that does nothing.
func NewConsumer(conf *config.Config, handler MessageHandler) (Consumer, error) {
	cfg := conf.Kafka
	if !cfg.Enabled {
		return &noopConsumer{}, nil
	}

	metrics, err := util.GetHistogramVec("kafka_messages_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.SessionTopic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.LastOffset,
	}

	numWorkers := max(cfg.NumWorkers, 1)
	return &kafkaConsumer{
		reader:         kafka.NewReader(readerConfig),
		metrics:        metrics,
		validate:       validator.New(),
		numWorkers:     numWorkers,
		consumeTimeout: 30 * time.Second,
		messageHandler: handler,
		done:           make(chan struct{}),
		exited:         make(chan struct{}),
		workerPool:     workerpool.New(numWorkers),
	}, nil
}

// Start blocks reading messages until ctx ends or Stop is called.
func (c *kafkaConsumer) Start(ctx context.Context) error {
	logger.Infof(ctx, "Starting Kafka consumer for topic: %s", c.reader.Config().Topic)
	c.started.Store(true)
	defer close(c.exited)

	if c.numWorkers == 1 {
		return c.startSingleWorker(ctx)
	}
	return c.startMultiWorker(ctx)
}

func (c *kafkaConsumer) Stop(ctx context.Context) error {
	logger.Infof(ctx, "Stopping Kafka consumer")
	close(c.done)
	err := c.reader.Close()
	// the read loop must be gone before the pool stops accepting work
	if c.started.Load() {
		select {
		case <-c.exited:
		case <-ctx.Done():
		}
	}
	c.workerPool.StopWait()
	return err
}

func (c *kafkaConsumer) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *kafkaConsumer) startSingleWorker(ctx context.Context) error {
	groupID := c.reader.Config().GroupID
	for ctx.Err() == nil && !c.stopped() {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			logger.Errorw(ctx, "Error fetching message", "error", err)
			continue
		}

		c.processMessage(ctx, msg, groupID)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Errorw(ctx, "Failed to commit message", "error", err)
		}
	}
	return nil
}

func (c *kafkaConsumer) startMultiWorker(ctx context.Context) error {
	groupID := c.reader.Config().GroupID
	for ctx.Err() == nil && !c.stopped() {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			logger.Errorw(ctx, "Error reading message", "error", err)
			continue
		}

		c.workerPool.Submit(func() {
			c.processMessage(ctx, msg, groupID)
		})
	}
	return nil
}

func (c *kafkaConsumer) processMessage(ctx context.Context, msg kafka.Message, groupID string) {
	start := time.Now()
	lagMs := start.Sub(msg.Time).Milliseconds()

	var err error
	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		err = c.handle(ctx, msg)
		delay, retry := retryDelay(err)
		if !retry || attempt == maxHandleAttempts {
			break
		}
		logger.Warnw(ctx, "Retrying message", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(delay):
			continue
		}
		break
	}
	duration := time.Since(start)

	code := getCode(err)
	content := "success"
	if err != nil {
		content = err.Error()
	}

	logger.Logw(ctx, getLogLevel(code), content,
		"code", code.String(),
		"duration_ms", duration.Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"lag_ms", lagMs,
		"key", string(msg.Key),
		"value", json.RawMessage(msg.Value),
	)

	c.metrics.
		WithLabelValues(code.String(), msg.Topic, groupID).
		Observe(duration.Seconds())
}

func (c *kafkaConsumer) handle(msgCtx context.Context, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			length := runtime.Stack(stack, false)
			err = fmt.Errorf("PANIC RECOVER: %+v / %s", r, string(stack[:length]))
		}
	}()

	var envelope models.KafkaMessage[json.RawMessage]
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to unmarshal kafka message: %v", err)
	}

	if envelope.Pattern != models.PatternSessionEnded {
		logger.Debugw(msgCtx, "Ignoring event", "pattern", envelope.Pattern)
		return nil
	}

	var data models.SessionEndedData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to unmarshal %s data: %v", envelope.Pattern, err)
	}
	if err := c.validate.Struct(&data); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid %s data: %v", envelope.Pattern, err)
	}

	ctx, cancel := context.WithTimeout(logger.WithFields(msgCtx, "session_id", data.SessionID), c.consumeTimeout)
	defer cancel()

	return c.messageHandler.HandleSessionEnded(ctx, &data)
}

func getCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return codes.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return codes.Canceled
	}
	st, ok := status.FromError(err)
	if !ok {
		return codes.Unknown
	}
	return st.Code()
}

func getLogLevel(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// noopConsumer is used when Kafka is disabled
type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	logger.Infof(ctx, "Kafka consumer is disabled")
	return nil
}

func (n *noopConsumer) Stop(context.Context) error {
	return nil
}
