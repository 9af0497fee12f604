package reserve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/hyeonu91/schoolreserve/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReserveRepository struct {
	mock.Mock
}

func (m *MockReserveRepository) CreatePlace(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockReserveRepository) CreateParking(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockReserveRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReserveRepository) Cancel(ctx context.Context, reserveID, userID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reserveID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReserveRepository) CountActiveByUser(ctx context.Context, userID int64, t domain.ReserveType) (int, error) {
	args := m.Called(ctx, userID, t)
	return args.Int(0), args.Error(1)
}

func (m *MockReserveRepository) ListCompletedPlaceByUser(ctx context.Context, userID int64, limit int) ([]repository.PlaceReserveSummary, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.PlaceReserveSummary), args.Error(1)
}

func (m *MockReserveRepository) GetCompletedParkingByUser(ctx context.Context, userID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReserveRepository) ExpireCompletedBefore(ctx context.Context, deadline time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReserveRepository) GetReservePage(ctx context.Context, reserveID int64) (*repository.ReservePage, error) {
	args := m.Called(ctx, reserveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReservePage), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSlotLock(ctx context.Context, schoolID int64, t domain.ReserveType, date time.Time, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, schoolID, t, date, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSlotLock(ctx context.Context, schoolID int64, t domain.ReserveType, date time.Time) error {
	args := m.Called(ctx, schoolID, t, date)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService(reserves *MockReserveRepository, users *MockUserRepository, cache *MockCache, producer *MockProducer) *ReserveService {
	s := &ReserveService{
		reserves:     reserves,
		users:        users,
		reserveTopic: "reserve_events",
		slotLockTTL:  30 * time.Second,
	}
	// Assign through the interface fields only for non-nil mocks so the
	// service's nil checks see a nil interface, not a typed nil pointer.
	if cache != nil {
		s.cache = cache
	}
	if producer != nil {
		s.producer = producer
	}
	return s
}

var testDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func TestReserveService_CreateReserve_PlaceSuccess(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockUsers := &MockUserRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}
	service := newTestService(mockReserves, mockUsers, mockCache, mockProducer)

	ctx := context.Background()

	mockReserves.On("CountActiveByUser", ctx, int64(7), domain.ReserveTypePlace).Return(0, nil).Once()
	mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	mockCache.On("AcquireSlotLock", ctx, int64(3), domain.ReserveTypePlace, testDate, 30*time.Second).Return(true, nil).Once()
	mockCache.On("ReleaseSlotLock", ctx, int64(3), domain.ReserveTypePlace, testDate).Return(nil).Once()
	mockReserves.On("CreatePlace", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			res := args.Get(1).(*domain.Reservation)
			res.ID = 42
			res.Status = domain.ReserveStatusPending
		}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "42", mock.Anything).Return(nil).Once()

	out, err := service.CreateReserve(ctx, CreateReserveInput{
		UserID:    7,
		SchoolID:  3,
		Type:      domain.ReserveTypePlace,
		StartDate: testDate,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.ReserveID)
	assert.Equal(t, domain.ReserveStatusPending, out.Status)
	assert.Equal(t, domain.PlacePrice, out.Price)
	assert.Equal(t, domain.PlaceDeposit, out.Deposit)
	assert.Nil(t, out.WaitingOrder)

	mockReserves.AssertExpectations(t)
	mockUsers.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestReserveService_CreateReserve_ValidationErrors(t *testing.T) {
	service := newTestService(&MockReserveRepository{}, &MockUserRepository{}, nil, nil)
	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateReserveInput
	}{
		{"missing user", CreateReserveInput{SchoolID: 3, Type: domain.ReserveTypePlace, StartDate: testDate}},
		{"missing school", CreateReserveInput{UserID: 7, Type: domain.ReserveTypePlace, StartDate: testDate}},
		{"bad type", CreateReserveInput{UserID: 7, SchoolID: 3, Type: "BOAT", StartDate: testDate}},
		{"missing date", CreateReserveInput{UserID: 7, SchoolID: 3, Type: domain.ReserveTypeParking}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := service.CreateReserve(ctx, tc.input)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestReserveService_CreateReserve_LimitExceeded(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		reserveType domain.ReserveType
		activeCount int
	}{
		{"parking limit is one", domain.ReserveTypeParking, 1},
		{"place limit is two", domain.ReserveTypePlace, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockReserves := &MockReserveRepository{}
			service := newTestService(mockReserves, &MockUserRepository{}, nil, nil)

			mockReserves.On("CountActiveByUser", ctx, int64(7), tc.reserveType).Return(tc.activeCount, nil).Once()

			out, err := service.CreateReserve(ctx, CreateReserveInput{
				UserID:    7,
				SchoolID:  3,
				Type:      tc.reserveType,
				StartDate: testDate,
			})

			assert.Nil(t, out)
			assert.ErrorIs(t, err, domain.ErrLimitExceeded)
			mockReserves.AssertNotCalled(t, "CreatePlace")
			mockReserves.AssertNotCalled(t, "CreateParking")
		})
	}
}

func TestReserveService_CreateReserve_ContendedSlotLockFallsThrough(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockUsers := &MockUserRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}
	service := newTestService(mockReserves, mockUsers, mockCache, mockProducer)

	ctx := context.Background()

	// Someone else holds the slot lock, but their create may still fail.
	// The request proceeds to the repository, which is authoritative.
	mockReserves.On("CountActiveByUser", ctx, int64(7), domain.ReserveTypePlace).Return(0, nil).Once()
	mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	mockCache.On("AcquireSlotLock", ctx, int64(3), domain.ReserveTypePlace, testDate, 30*time.Second).Return(false, nil).Once()
	mockReserves.On("CreatePlace", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			res := args.Get(1).(*domain.Reservation)
			res.ID = 42
			res.Status = domain.ReserveStatusPending
		}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "42", mock.Anything).Return(nil).Once()

	out, err := service.CreateReserve(ctx, CreateReserveInput{
		UserID:    7,
		SchoolID:  3,
		Type:      domain.ReserveTypePlace,
		StartDate: testDate,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ReserveStatusPending, out.Status)
	mockReserves.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "ReleaseSlotLock")
}

func TestReserveService_CreateReserve_SlotLockErrorDoesNotReject(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockUsers := &MockUserRepository{}
	mockCache := &MockCache{}
	service := newTestService(mockReserves, mockUsers, mockCache, nil)

	ctx := context.Background()

	mockReserves.On("CountActiveByUser", ctx, int64(7), domain.ReserveTypePlace).Return(0, nil).Once()
	mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	mockCache.On("AcquireSlotLock", ctx, int64(3), domain.ReserveTypePlace, testDate, 30*time.Second).Return(false, errors.New("redis down")).Once()
	mockReserves.On("CreatePlace", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Reservation).Status = domain.ReserveStatusPending
		}).Return(nil).Once()

	out, err := service.CreateReserve(ctx, CreateReserveInput{
		UserID:    7,
		SchoolID:  3,
		Type:      domain.ReserveTypePlace,
		StartDate: testDate,
	})

	assert.NoError(t, err)
	assert.NotNil(t, out)
	mockReserves.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "ReleaseSlotLock")
}

func TestReserveService_CreateReserve_ParkingWaitlisted(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockUsers := &MockUserRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockReserves, mockUsers, nil, mockProducer)

	ctx := context.Background()

	mockReserves.On("CountActiveByUser", ctx, int64(7), domain.ReserveTypeParking).Return(0, nil).Once()
	mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	mockReserves.On("CreateParking", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			res := args.Get(1).(*domain.Reservation)
			res.ID = 99
			res.Status = domain.ReserveStatusWaiting
			order := 1
			res.WaitingOrder = &order
		}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "99", mock.Anything).Return(nil).Once()

	out, err := service.CreateReserve(ctx, CreateReserveInput{
		UserID:    7,
		SchoolID:  3,
		Type:      domain.ReserveTypeParking,
		StartDate: testDate,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ReserveStatusWaiting, out.Status)
	assert.Equal(t, domain.ParkingPrice, out.Price)
	assert.Equal(t, domain.ParkingDeposit, out.Deposit)
	if assert.NotNil(t, out.WaitingOrder) {
		assert.Equal(t, 1, *out.WaitingOrder)
	}

	mockReserves.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestReserveService_CreateReserve_ParkingEndDate(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockUsers := &MockUserRepository{}
	service := newTestService(mockReserves, mockUsers, nil, nil)

	ctx := context.Background()

	mockReserves.On("CountActiveByUser", ctx, int64(7), domain.ReserveTypeParking).Return(0, nil).Once()
	mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	mockReserves.On("CreateParking", ctx, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			res := args.Get(1).(*domain.Reservation)
			assert.Equal(t, testDate.AddDate(0, 1, 0), res.EndDate)
			res.ID = 5
			res.Status = domain.ReserveStatusPending
		}).Return(nil).Once()

	_, err := service.CreateReserve(ctx, CreateReserveInput{
		UserID:    7,
		SchoolID:  3,
		Type:      domain.ReserveTypeParking,
		StartDate: testDate,
	})

	assert.NoError(t, err)
	mockReserves.AssertExpectations(t)
}

func TestReserveService_CreateReserve_RepositoryError(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockUsers := &MockUserRepository{}
	service := newTestService(mockReserves, mockUsers, nil, nil)

	ctx := context.Background()

	mockReserves.On("CountActiveByUser", ctx, int64(7), domain.ReserveTypePlace).Return(0, nil).Once()
	mockUsers.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	mockReserves.On("CreatePlace", ctx, mock.Anything).Return(domain.ErrSlotTaken).Once()

	out, err := service.CreateReserve(ctx, CreateReserveInput{
		UserID:    7,
		SchoolID:  3,
		Type:      domain.ReserveTypePlace,
		StartDate: testDate,
	})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
}

func TestReserveService_CancelReserve(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockReserves, &MockUserRepository{}, nil, mockProducer)

	ctx := context.Background()
	canceled := &domain.Reservation{
		ID:       11,
		UserID:   7,
		SchoolID: 3,
		Type:     domain.ReserveTypeParking,
		Status:   domain.ReserveStatusCanceled,
	}

	mockReserves.On("Cancel", ctx, int64(11), int64(7)).Return(canceled, nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "11", mock.Anything).Return(nil).Once()

	out, err := service.CancelReserve(ctx, 11, 7)

	assert.NoError(t, err)
	assert.Equal(t, domain.ReserveStatusCanceled, out.Status)
	mockReserves.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestReserveService_CancelReserve_Error(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	service := newTestService(mockReserves, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	mockReserves.On("Cancel", ctx, int64(11), int64(7)).Return(nil, domain.ErrInvalidStateTransition).Once()

	out, err := service.CancelReserve(ctx, 11, 7)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestReserveService_ExpireReserves(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockReserves, &MockUserRepository{}, nil, mockProducer)

	ctx := context.Background()
	expired := []domain.Reservation{
		{ID: 1, Status: domain.ReserveStatusExpired},
		{ID: 2, Status: domain.ReserveStatusExpired},
	}

	mockReserves.On("ExpireCompletedBefore", ctx, mock.AnythingOfType("time.Time")).Return(expired, nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "1", mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "2", mock.Anything).Return(nil).Once()

	out, err := service.ExpireReserves(ctx)

	assert.NoError(t, err)
	assert.Len(t, out, 2)
	mockReserves.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestReserveService_ExpireReserves_PublishFailureDoesNotFailSweep(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockReserves, &MockUserRepository{}, nil, mockProducer)

	ctx := context.Background()
	expired := []domain.Reservation{{ID: 1, Status: domain.ReserveStatusExpired}}

	mockReserves.On("ExpireCompletedBefore", ctx, mock.AnythingOfType("time.Time")).Return(expired, nil).Once()
	mockProducer.On("Publish", ctx, "reserve_events", "1", mock.Anything).Return(errors.New("kafka down")).Once()

	out, err := service.ExpireReserves(ctx)

	assert.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestReserveService_GetMyParkingReserve(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	service := newTestService(mockReserves, &MockUserRepository{}, nil, nil)

	ctx := context.Background()

	mockReserves.On("GetCompletedParkingByUser", ctx, int64(7)).Return(&domain.Reservation{ID: 31}, nil).Once()
	id, ok, err := service.GetMyParkingReserve(ctx, 7)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(31), id)

	mockReserves.On("GetCompletedParkingByUser", ctx, int64(8)).Return(nil, nil).Once()
	id, ok, err = service.GetMyParkingReserve(ctx, 8)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)

	_, _, err = service.GetMyParkingReserve(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReserveService_ListMyPlaceReserves(t *testing.T) {
	mockReserves := &MockReserveRepository{}
	service := newTestService(mockReserves, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	summaries := []repository.PlaceReserveSummary{
		{ReserveID: 1, SchoolID: 3, SchoolImageName: "a.jpg"},
		{ReserveID: 2, SchoolID: 4, SchoolImageName: "b.jpg"},
	}

	mockReserves.On("ListCompletedPlaceByUser", ctx, int64(7), 2).Return(summaries, nil).Once()

	out, err := service.ListMyPlaceReserves(ctx, 7)
	assert.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = service.ListMyPlaceReserves(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
