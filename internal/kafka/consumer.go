package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trading-journal/internal/models"
)

// CommandHandler applies a journal command
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd models.JournalCommand) error
}

// CommandLog remembers which command ids were already applied
type CommandLog interface {
	CommandSeen(ctx context.Context, commandID string) (bool, error)
	MarkCommand(ctx context.Context, commandID, source string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer applies journal commands published by other tools. Commands whose
// id was already applied are skipped.
type Consumer struct {
	reader  messageReader
	handler CommandHandler
	seen    CommandLog
	logger  zerolog.Logger
}

// NewConsumer creates a new Kafka consumer for journal commands
func NewConsumer(brokers []string, topic, groupID string, handler CommandHandler, seen CommandLog, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		seen:    seen,
		logger:  logger.With().Str("component", "kafka-consumer").Logger(),
	}
}

// Start consumes until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().Str("topic", c.reader.Config().Topic).Msg("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.Error().Err(err).Msg("Error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error processing message")
			}
		}
	}
}

// processMessage applies one command message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var cmd models.JournalCommand
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal journal command: %w", err)
	}

	if cmd.CommandID == "" {
		cmd.CommandID = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}

	switch cmd.Type {
	case models.CommandCreateTrade, models.CommandCloseTrade, models.CommandUpdateMark:
	default:
		c.logger.Debug().Str("type", cmd.Type).Msg("Ignoring command type")
		return nil
	}

	if c.seen != nil {
		seen, err := c.seen.CommandSeen(ctx, cmd.CommandID)
		if err != nil {
			return fmt.Errorf("failed to check command %s: %w", cmd.CommandID, err)
		}
		if seen {
			c.logger.Info().Str("command_id", cmd.CommandID).Msg("Command already applied, skipping")
			return nil
		}
	}

	if err := c.handler.HandleCommand(ctx, cmd); err != nil {
		return fmt.Errorf("command %s (%s): %w", cmd.CommandID, cmd.Type, err)
	}

	if c.seen != nil {
		if err := c.seen.MarkCommand(ctx, cmd.CommandID, cmd.Source); err != nil {
			return fmt.Errorf("failed to record command %s: %w", cmd.CommandID, err)
		}
	}

	c.logger.Info().
		Str("command_id", cmd.CommandID).
		Str("type", cmd.Type).
		Str("source", cmd.Source).
		Msg("Applied journal command")
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
