package reserve

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/hyeonu91/schoolreserve/internal/kafka"
	"github.com/hyeonu91/schoolreserve/internal/repository"
	"github.com/rs/zerolog/log"
)

type ReserveUseCase interface {
	CreateReserve(ctx context.Context, input CreateReserveInput) (*CreateReserveOutput, error)
	CancelReserve(ctx context.Context, reserveID, userID int64) (*domain.Reservation, error)
	ListMyPlaceReserves(ctx context.Context, userID int64) ([]repository.PlaceReserveSummary, error)
	GetMyParkingReserve(ctx context.Context, userID int64) (int64, bool, error)
	ExpireReserves(ctx context.Context) ([]domain.Reservation, error)
}

type Cache interface {
	AcquireSlotLock(ctx context.Context, schoolID int64, t domain.ReserveType, date time.Time, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, schoolID int64, t domain.ReserveType, date time.Time) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReserveService struct {
	reserves           repository.ReserveRepository
	users              repository.UserRepository
	cache              Cache
	producer           Producer
	reserveTopic       string
	notificationsTopic string
	slotLockTTL        time.Duration
}

type CreateReserveInput struct {
	UserID    int64              `json:"user_id"`
	SchoolID  int64              `json:"school_id"`
	Type      domain.ReserveType `json:"type"`
	StartDate time.Time          `json:"start_date"`
}

type CreateReserveOutput struct {
	ReserveID    int64                `json:"reserve_id"`
	Status       domain.ReserveStatus `json:"status"`
	Price        int                  `json:"price"`
	Deposit      int                  `json:"deposit"`
	WaitingOrder *int                 `json:"waiting_order,omitempty"`
}

type ReserveServiceOption func(*ReserveService)

func WithNotificationsTopic(topic string) ReserveServiceOption {
	return func(s *ReserveService) {
		s.notificationsTopic = topic
	}
}

func NewReserveService(
	reserves repository.ReserveRepository,
	users repository.UserRepository,
	cache Cache,
	producer Producer,
	reserveTopic string,
	slotLockTTL time.Duration,
	opts ...ReserveServiceOption,
) *ReserveService {
	service := &ReserveService{
		reserves:     reserves,
		users:        users,
		cache:        cache,
		producer:     producer,
		reserveTopic: reserveTopic,
		slotLockTTL:  slotLockTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *ReserveService) CreateReserve(ctx context.Context, input CreateReserveInput) (*CreateReserveOutput, error) {
	if input.UserID <= 0 {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	if input.SchoolID <= 0 {
		return nil, fmt.Errorf("school id is required: %w", domain.ErrValidation)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("reserve type %q is not supported: %w", input.Type, domain.ErrValidation)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required: %w", domain.ErrValidation)
	}

	if err := s.checkUserLimit(ctx, input.UserID, input.Type); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	// The slot lock only spaces out concurrent creates for the same slot.
	// A contended or failed lock never rejects the request; the row locks in
	// the repository decide who actually gets the slot.
	if s.cache != nil {
		ok, err := s.cache.AcquireSlotLock(ctx, input.SchoolID, input.Type, input.StartDate, s.slotLockTTL)
		if err != nil {
			log.Warn().Err(err).Int64("school_id", input.SchoolID).Msg("slot lock unavailable")
		}
		if err == nil && ok {
			defer func() {
				_ = s.cache.ReleaseSlotLock(ctx, input.SchoolID, input.Type, input.StartDate)
			}()
		}
	}

	res := &domain.Reservation{
		UserID:    input.UserID,
		SchoolID:  input.SchoolID,
		Type:      input.Type,
		StartDate: input.StartDate,
	}

	var err error
	switch input.Type {
	case domain.ReserveTypePlace:
		res.EndDate = input.StartDate
		res.Price = domain.PlacePrice
		res.Deposit = domain.PlaceDeposit
		err = s.reserves.CreatePlace(ctx, res)
	case domain.ReserveTypeParking:
		res.EndDate = domain.ParkingEndDate(input.StartDate)
		res.Price = domain.ParkingPrice
		res.Deposit = domain.ParkingDeposit
		err = s.reserves.CreateParking(ctx, res)
	}
	if err != nil {
		return nil, err
	}

	eventType := kafka.EventReserveCreated
	if res.Status == domain.ReserveStatusWaiting {
		eventType = kafka.EventReserveWaitlisted
	}
	s.publish(ctx, eventType, res)

	return &CreateReserveOutput{
		ReserveID:    res.ID,
		Status:       res.Status,
		Price:        res.Price,
		Deposit:      res.Deposit,
		WaitingOrder: res.WaitingOrder,
	}, nil
}

func (s *ReserveService) checkUserLimit(ctx context.Context, userID int64, t domain.ReserveType) error {
	count, err := s.reserves.CountActiveByUser(ctx, userID, t)
	if err != nil {
		return err
	}
	switch t {
	case domain.ReserveTypeParking:
		if count >= domain.MaxActiveParkingPerUser {
			return fmt.Errorf("only %d active parking reservation allowed: %w", domain.MaxActiveParkingPerUser, domain.ErrLimitExceeded)
		}
	case domain.ReserveTypePlace:
		if count >= domain.MaxActivePlacePerUser {
			return fmt.Errorf("at most %d active place reservations allowed: %w", domain.MaxActivePlacePerUser, domain.ErrLimitExceeded)
		}
	}
	return nil
}

func (s *ReserveService) CancelReserve(ctx context.Context, reserveID, userID int64) (*domain.Reservation, error) {
	updated, err := s.reserves.Cancel(ctx, reserveID, userID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventReserveCancelled, updated)
	return updated, nil
}

func (s *ReserveService) ListMyPlaceReserves(ctx context.Context, userID int64) ([]repository.PlaceReserveSummary, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	return s.reserves.ListCompletedPlaceByUser(ctx, userID, domain.MaxActivePlacePerUser)
}

func (s *ReserveService) GetMyParkingReserve(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("user id is required: %w", domain.ErrValidation)
	}
	res, err := s.reserves.GetCompletedParkingByUser(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	if res == nil {
		return 0, false, nil
	}
	return res.ID, true, nil
}

// ExpireReserves moves every COMPLETED reservation whose end date has passed
// to EXPIRED. Re-running the sweep is a no-op for already expired rows.
func (s *ReserveService) ExpireReserves(ctx context.Context) ([]domain.Reservation, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	expired, err := s.reserves.ExpireCompletedBefore(ctx, today)
	if err != nil {
		return nil, err
	}

	for i := range expired {
		s.publish(ctx, kafka.EventReserveExpired, &expired[i])
	}
	return expired, nil
}

func (s *ReserveService) publish(ctx context.Context, eventType string, res *domain.Reservation) {
	if s.producer == nil || s.reserveTopic == "" {
		return
	}
	event := kafka.ReserveEvent{
		Type:         eventType,
		EventID:      uuid.NewString(),
		ReserveID:    res.ID,
		UserID:       res.UserID,
		SchoolID:     res.SchoolID,
		ReserveType:  string(res.Type),
		Status:       string(res.Status),
		StartDate:    res.StartDate,
		EndDate:      res.EndDate,
		WaitingOrder: res.WaitingOrder,
		Price:        res.Price,
	}
	key := strconv.FormatInt(res.ID, 10)
	if err := s.producer.Publish(ctx, s.reserveTopic, key, event); err != nil {
		log.Warn().Err(err).Str("event", eventType).Int64("reserve_id", res.ID).Msg("failed to publish reserve event")
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			log.Warn().Err(err).Str("event", eventType).Int64("reserve_id", res.ID).Msg("failed to publish notification event")
		}
	}
}

var _ ReserveUseCase = (*ReserveService)(nil)
