package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Handler receives decoded messages. Exactly one of ev and sale is non-nil.
type Handler func(ev *events.Event, sale *models.SaleRecord)

type Consumer struct {
	Reader MessageReader
	Logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{Reader: reader, Logger: log}
}

// Start reads until ctx is cancelled or the reader is closed.
func (c *Consumer) Start(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch headerValue(msg, HeaderType) {
		case TypeSale:
			var sale models.SaleRecord
			if err := json.Unmarshal(msg.Value, &sale); err != nil {
				c.Logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed sale at offset %d: %v", msg.Offset, err))
				continue
			}
			handle(nil, &sale)
		default:
			var ev events.Event
			if err := json.Unmarshal(msg.Value, &ev); err != nil || !ev.Topic.Valid() {
				c.Logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed event at offset %d", msg.Offset))
				continue
			}
			handle(&ev, nil)
		}
	}
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
