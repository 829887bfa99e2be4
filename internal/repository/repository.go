package repository

import (
	"context"
	"errors"

	"clan-rental-backend/internal/domain"
)

// ErrNotFound is returned by every repository when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Transactor runs fn inside a single database transaction. Repositories called
// with the ctx handed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	UpdateStock(ctx context.Context, id int32, availableQuantity int32, availability domain.ItemAvailability) error
	Delete(ctx context.Context, id int32) error
	// List returns all items, or only those with the given availability when it is non-empty.
	List(ctx context.Context, availability domain.ItemAvailability) ([]domain.Item, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Delete(ctx context.Context, id int32) error
}

// RentalFilter narrows List; zero values mean no filter.
type RentalFilter struct {
	RenterID string
	Status   domain.RentalStatus
}

type RentalRepository interface {
	// Create inserts the rental with its item lines and collateral items.
	Create(ctx context.Context, r *domain.Rental) error
	GetByID(ctx context.Context, id int32) (*domain.Rental, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Rental, error)
	UpdateStatus(ctx context.Context, r *domain.Rental) error
	// Delete removes the rental together with its lines and chat messages.
	Delete(ctx context.Context, id int32) error
	List(ctx context.Context, filter RentalFilter) ([]domain.Rental, error)
}

type CounterRepository interface {
	// Next atomically increments the named counter and returns the new value,
	// starting at 1 for a counter that does not exist yet.
	Next(ctx context.Context, name string) (int64, error)
}

type ChatRepository interface {
	Create(ctx context.Context, m *domain.ChatMessage) error
	ListByRental(ctx context.Context, rentalID int32) ([]domain.ChatMessage, error)
}

type UserRepository interface {
	// ReserveNickname returns false when the nickname is already taken.
	ReserveNickname(ctx context.Context, n *domain.Nickname) (bool, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, uid string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Delete removes the profile and the role; the nickname reservation stays.
	Delete(ctx context.Context, uid string) error
	SetRole(ctx context.Context, uid string, role domain.Role) error
	GetRole(ctx context.Context, uid string) (domain.Role, error)
	List(ctx context.Context) ([]domain.UserWithRole, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, s *domain.Settings) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkRead(ctx context.Context, id int32, userID string) error
	SaveDeviceToken(ctx context.Context, t *domain.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID string) ([]string, error)
	DeleteDeviceToken(ctx context.Context, token string) error
}

type StatsRepository interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
}
