package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Consumer feeds reservation events from a topic to a handler. Notification
// events are small and latency-tolerant, so the reader trades throughput for
// a short max wait and batched offset commits.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          1 << 20,
			MaxWait:           time.Second,
			CommitInterval:    time.Second,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume blocks, decoding each message into a ReserveEvent and handing it to
// handler. Undecodable messages and handler failures are logged and skipped so
// one bad event cannot wedge the topic; only reader errors end the loop.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, ReserveEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		dispatch(ctx, msg, handler)
	}
}

func dispatch(ctx context.Context, msg kafka.Message, handler func(context.Context, ReserveEvent) error) {
	var event ReserveEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic).Int64("offset", msg.Offset).Msg("skip undecodable reserve event")
		return
	}
	if err := handler(ctx, event); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Int64("reserve_id", event.ReserveID).Msg("reserve event handler failed")
	}
}
