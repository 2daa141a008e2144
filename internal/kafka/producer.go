package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

const (
	HeaderType   = "type"
	TypeEvent    = "event"
	TypeSale     = "sale-completed"
	DefaultTopic = "pos.events"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer streams bus events and completed sales to one topic.
type Producer struct {
	Writer MessageWriter
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log}
}

// Publish implements events.Publisher. Broker errors are logged, never returned.
func (p *Producer) Publish(ctx context.Context, ev events.Event) {
	key := string(ev.Topic)
	if ev.OrderID != nil {
		key = strconv.FormatInt(*ev.OrderID, 10)
	}
	if err := p.write(ctx, TypeEvent, key, ev); err != nil {
		p.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s: %v", ev.Topic, err))
	}
}

// RecordSale streams a completed sale to the sales feed.
func (p *Producer) RecordSale(ctx context.Context, sale models.SaleRecord) {
	if err := p.write(ctx, TypeSale, strconv.FormatInt(sale.OrderID, 10), sale); err != nil {
		p.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish sale #%d: %v", sale.OrderID, err))
		return
	}
	p.Logger.Info("KAFKA", fmt.Sprintf("[%s] sale #%d", TypeSale, sale.OrderID))
}

func (p *Producer) write(ctx context.Context, msgType, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderType, Value: []byte(msgType)}},
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
