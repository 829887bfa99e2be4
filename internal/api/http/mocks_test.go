package http

import (
	"context"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, in service.SignupInput) (*domain.User, *service.TokenPair, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.User, *service.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) LoginWithFirebase(ctx context.Context, idToken string) (*domain.User, *service.TokenPair, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	args := m.Called(ctx, nickname)
	return args.Bool(0), args.Error(1)
}

// MockItemService
type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) CreateItem(ctx context.Context, actorID string, in service.ItemInput) (*domain.Item, error) {
	args := m.Called(ctx, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemService) UpdateItem(ctx context.Context, actorID string, id int32, in service.ItemInput) (*domain.Item, error) {
	args := m.Called(ctx, actorID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemService) DeleteItem(ctx context.Context, actorID string, id int32) error {
	return m.Called(ctx, actorID, id).Error(0)
}

func (m *MockItemService) GetItem(ctx context.Context, id int32) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemService) ListItems(ctx context.Context, availability domain.ItemAvailability) ([]domain.Item, error) {
	args := m.Called(ctx, availability)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

// MockRentalService
type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) rental(args mock.Arguments) (*domain.Rental, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalService) CreateRental(ctx context.Context, renterID string, req service.CreateRentalRequest) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, renterID, req))
}

func (m *MockRentalService) ApproveRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, actorID, rentalID))
}

func (m *MockRentalService) CompleteRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, actorID, rentalID))
}

func (m *MockRentalService) CancelRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, actorID, rentalID))
}

func (m *MockRentalService) DeleteRental(ctx context.Context, actorID string, rentalID int32) error {
	return m.Called(ctx, actorID, rentalID).Error(0)
}

func (m *MockRentalService) GetRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, actorID, rentalID))
}

func (m *MockRentalService) ListMyRentals(ctx context.Context, renterID string) ([]domain.Rental, error) {
	args := m.Called(ctx, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalService) ListRentals(ctx context.Context, actorID string, status domain.RentalStatus) ([]domain.Rental, error) {
	args := m.Called(ctx, actorID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalService) ListActive(ctx context.Context) ([]domain.Rental, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalService) TermsText() string {
	return m.Called().String(0)
}

// MockChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) SendMessage(ctx context.Context, actorID string, rentalID int32, text string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, actorID, rentalID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *MockChatService) ListMessages(ctx context.Context, actorID string, rentalID int32) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, actorID, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *MockChatService) Subscribe(ctx context.Context, actorID string, rentalID int32) ([]domain.ChatMessage, <-chan domain.ChatMessage, func(), error) {
	args := m.Called(ctx, actorID, rentalID)
	if args.Get(1) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).([]domain.ChatMessage), args.Get(1).(<-chan domain.ChatMessage), args.Get(2).(func()), args.Error(3)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, uid string) (*domain.UserWithRole, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserWithRole), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, actorID string) ([]domain.UserWithRole, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserWithRole), args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, actorID, targetID string, role domain.Role) error {
	return m.Called(ctx, actorID, targetID, role).Error(0)
}

func (m *MockUserService) DeleteAccount(ctx context.Context, actorID, targetID string) error {
	return m.Called(ctx, actorID, targetID).Error(0)
}

func (m *MockUserService) RegisterDeviceToken(ctx context.Context, uid, token string) error {
	return m.Called(ctx, uid, token).Error(0)
}

func (m *MockUserService) IsAdmin(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

// MockStatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardStats), args.Error(1)
}
