package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"github.com/trogers1052/watchlist-alert-relay/internal/relay"
	"go.uber.org/zap"
)

// AlertRelayer relays one price alert
type AlertRelayer interface {
	Relay(ctx context.Context, req models.AlertRequest) (*relay.Result, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer relays price alerts published to a Kafka topic.
// Each message value is an AlertRequest JSON document, the same body the
// HTTP webhook accepts.
type Consumer struct {
	reader messageReader
	relay  AlertRelayer
	logger *zap.Logger
}

// NewConsumer creates a new Kafka consumer for price alerts
func NewConsumer(brokers []string, topic, groupID string, r AlertRelayer, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		relay:  r,
		logger: logger,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka alert consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka alert consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.Warn("error reading message", zap.Error(err))
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Warn("error processing message",
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

// processMessage relays a single alert message. Alerts for tickers that are
// not on the watchlist are dropped without error.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var req models.AlertRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("failed to unmarshal alert: %w", err)
	}

	res, err := c.relay.Relay(ctx, req)
	if err != nil {
		var notFound *relay.NotFoundError
		if errors.As(err, &notFound) {
			c.logger.Info("skipping alert for ticker not on watchlist", zap.String("ticker", notFound.Ticker))
			return nil
		}
		return fmt.Errorf("failed to relay alert: %w", err)
	}

	c.logger.Debug("relayed alert from kafka", zap.String("ticker", res.Ticker), zap.Int64("offset", msg.Offset))
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
