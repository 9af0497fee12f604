package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ReserveEvent is published for every reservation and payment state change.
type ReserveEvent struct {
	Type         string    `json:"type"`
	EventID      string    `json:"event_id"`
	ReserveID    int64     `json:"reserve_id"`
	UserID       int64     `json:"user_id"`
	SchoolID     int64     `json:"school_id"`
	ReserveType  string    `json:"reserve_type"`
	Status       string    `json:"status"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	WaitingOrder *int      `json:"waiting_order,omitempty"`
	Price        int       `json:"price"`
}

const (
	EventReserveCreated    = "reserve_created"
	EventReserveWaitlisted = "reserve_waitlisted"
	EventReserveCancelled  = "reserve_cancelled"
	EventPaymentCompleted  = "payment_completed"
	EventReserveExpired    = "reserve_expired"
)

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	log.Debug().Str("topic", topic).Str("key", key).Msg("published kafka message")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
