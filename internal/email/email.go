package email

import (
	"context"

	"github.com/hyeonu91/schoolreserve/internal/kafka"
	"github.com/rs/zerolog/log"
)

// Sender delivers reservation notifications. Delivery is a stub for now;
// TODO: wire an SMTP transport once the notification templates are approved.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReserveEvent) error {
	log.Info().
		Str("type", event.Type).
		Int64("user_id", event.UserID).
		Int64("reserve_id", event.ReserveID).
		Str("status", event.Status).
		Msg("send reservation notification")
	return nil
}
