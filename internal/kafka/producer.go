package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trading-journal/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes journal events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishTradeOpened publishes a trade opened event
func (p *Producer) PublishTradeOpened(ctx context.Context, t models.Trade) error {
	return p.publish(ctx, models.EventTradeOpened, t)
}

// PublishTradeClosed publishes a trade closed event
func (p *Producer) PublishTradeClosed(ctx context.Context, t models.Trade) error {
	return p.publish(ctx, models.EventTradeClosed, t)
}

// PublishMarkUpdated publishes a mark updated event
func (p *Producer) PublishMarkUpdated(ctx context.Context, t models.Trade) error {
	return p.publish(ctx, models.EventMarkUpdated, t)
}

// publish keys every event by trade id so one trade's events stay ordered
func (p *Producer) publish(ctx context.Context, eventType string, t models.Trade) error {
	now := p.now()
	event := models.JournalEvent{
		EventID:   NewID(now),
		EventType: eventType,
		TradeID:   t.ID,
		Account:   t.Account,
		Trade:     &t,
		Timestamp: now.UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(t.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
