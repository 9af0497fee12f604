package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/hyeonu91/schoolreserve/internal/kafka"
	"github.com/hyeonu91/schoolreserve/internal/repository"
	"github.com/rs/zerolog/log"
)

type PaymentUseCase interface {
	CompletePayment(ctx context.Context, input CompletePaymentInput) (*CompletePaymentOutput, error)
	GetReserve(ctx context.Context, reserveID int64) (*repository.ReservePage, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	payments     repository.PaymentRepository
	reserves     repository.ReserveRepository
	producer     Producer
	reserveTopic string
}

type CompletePaymentInput struct {
	ReserveID   int64  `json:"reserve_id"`
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
	PaymentType string `json:"payment_type"`
	IsExtend    bool   `json:"is_extend"`
}

type CompletePaymentOutput struct {
	PaymentID int64                `json:"payment_id"`
	ReserveID int64                `json:"reserve_id"`
	Status    domain.ReserveStatus `json:"status"`
	Price     int                  `json:"price"`
}

func NewPaymentService(
	payments repository.PaymentRepository,
	reserves repository.ReserveRepository,
	producer Producer,
	reserveTopic string,
) *PaymentService {
	return &PaymentService{
		payments:     payments,
		reserves:     reserves,
		producer:     producer,
		reserveTopic: reserveTopic,
	}
}

// CompletePayment binds an external payment transaction to a PENDING
// reservation. ImpUID is the global idempotency key: replaying the same
// transaction, or racing two confirmations for one reservation, yields
// exactly one success.
func (s *PaymentService) CompletePayment(ctx context.Context, input CompletePaymentInput) (*CompletePaymentOutput, error) {
	if input.ReserveID <= 0 {
		return nil, fmt.Errorf("reserve id is required: %w", domain.ErrValidation)
	}
	if input.ImpUID == "" {
		return nil, fmt.Errorf("imp_uid is required: %w", domain.ErrValidation)
	}
	if input.MerchantUID == "" {
		input.MerchantUID = uuid.NewString()
	}

	res, err := s.reserves.GetByID(ctx, input.ReserveID)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReserveStatusPending {
		return nil, fmt.Errorf("reservation %d is %s: %w", res.ID, res.Status, domain.ErrAlreadyProcessed)
	}

	// Place rentals allow one payment per reservation; parking allows a
	// second payment only when it is an extension.
	blockDuplicate := res.Type == domain.ReserveTypePlace ||
		(res.Type == domain.ReserveTypeParking && !input.IsExtend)
	if blockDuplicate {
		exists, err := s.payments.ExistsByReserveID(ctx, res.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("reservation %d already paid: %w", res.ID, domain.ErrAlreadyProcessed)
		}
	}

	exists, err := s.payments.ExistsByImpUID(ctx, input.ImpUID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("imp_uid %s already processed: %w", input.ImpUID, domain.ErrAlreadyProcessed)
	}

	payment := &domain.Payment{
		ReserveID:   res.ID,
		ImpUID:      input.ImpUID,
		MerchantUID: input.MerchantUID,
		PaymentType: input.PaymentType,
		Status:      domain.PaymentStatusPaid,
		Price:       res.Price,
	}
	if err := s.payments.Complete(ctx, payment); err != nil {
		return nil, err
	}

	s.publishCompleted(ctx, res, payment)

	return &CompletePaymentOutput{
		PaymentID: payment.ID,
		ReserveID: res.ID,
		Status:    domain.ReserveStatusCompleted,
		Price:     payment.Price,
	}, nil
}

func (s *PaymentService) GetReserve(ctx context.Context, reserveID int64) (*repository.ReservePage, error) {
	if reserveID <= 0 {
		return nil, fmt.Errorf("reserve id is required: %w", domain.ErrValidation)
	}
	return s.reserves.GetReservePage(ctx, reserveID)
}

func (s *PaymentService) publishCompleted(ctx context.Context, res *domain.Reservation, payment *domain.Payment) {
	if s.producer == nil || s.reserveTopic == "" {
		return
	}
	event := kafka.ReserveEvent{
		Type:        kafka.EventPaymentCompleted,
		EventID:     uuid.NewString(),
		ReserveID:   res.ID,
		UserID:      res.UserID,
		SchoolID:    res.SchoolID,
		ReserveType: string(res.Type),
		Status:      string(domain.ReserveStatusCompleted),
		StartDate:   res.StartDate,
		EndDate:     res.EndDate,
		Price:       payment.Price,
	}
	key := strconv.FormatInt(res.ID, 10)
	if err := s.producer.Publish(ctx, s.reserveTopic, key, event); err != nil {
		log.Warn().Err(err).Int64("reserve_id", res.ID).Msg("failed to publish payment event")
	}
}

var _ PaymentUseCase = (*PaymentService)(nil)
