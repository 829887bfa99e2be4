package service

import (
	"context"
	"time"

	"clan-rental-backend/internal/domain"
)

// ItemInput carries the admin-editable fields of a catalog item. Rates are
// always derived from MarketRate.
type ItemInput struct {
	Name         string
	Category     string
	ImageURL     string
	MarketRate   int64
	Quantity     int32
	Availability domain.ItemAvailability // optional; empty keeps the current value
}

type ItemService interface {
	CreateItem(ctx context.Context, actorID string, in ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, actorID string, id int32, in ItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, actorID string, id int32) error
	GetItem(ctx context.Context, id int32) (*domain.Item, error)
	ListItems(ctx context.Context, availability domain.ItemAvailability) ([]domain.Item, error)
}

type CategoryService interface {
	CreateCategory(ctx context.Context, actorID, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, actorID string, id int32) error
}

// RentalLine is one requested catalog item; Quantity 0 means 1.
type RentalLine struct {
	ItemID   int32
	Quantity int32
}

type CreateRentalRequest struct {
	Lines             []RentalLine
	PaymentMethod     domain.PaymentMethod
	RentalDays        int32
	DeliveryLocation  domain.DeliveryLocation
	TermsAccepted     bool
	TermsText         string
	CollateralItemIDs []int32 // trade payment only
}

type RentalService interface {
	CreateRental(ctx context.Context, renterID string, req CreateRentalRequest) (*domain.Rental, error)
	ApproveRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error)
	CompleteRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error)
	CancelRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error)
	DeleteRental(ctx context.Context, actorID string, rentalID int32) error
	GetRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error)
	ListMyRentals(ctx context.Context, renterID string) ([]domain.Rental, error)
	ListRentals(ctx context.Context, actorID string, status domain.RentalStatus) ([]domain.Rental, error)
	// ListActive feeds the overdue reminder job and bypasses the admin gate.
	ListActive(ctx context.Context) ([]domain.Rental, error)
	TermsText() string
}

type TicketService interface {
	// NextTicketNumber never fails; it falls back to a clock-derived number.
	NextTicketNumber(ctx context.Context) int64
}

type ChatService interface {
	SendMessage(ctx context.Context, actorID string, rentalID int32, text string) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, actorID string, rentalID int32) ([]domain.ChatMessage, error)
	// Subscribe returns the current thread and a live feed of new messages.
	// cancel must be called to release the subscription.
	Subscribe(ctx context.Context, actorID string, rentalID int32) (history []domain.ChatMessage, feed <-chan domain.ChatMessage, cancel func(), err error)
}

// ChatBroadcaster fans new messages out to live subscribers.
type ChatBroadcaster interface {
	Publish(ctx context.Context, msg domain.ChatMessage)
	Subscribe(rentalID int32) (<-chan domain.ChatMessage, func())
}

type SignupInput struct {
	Email      string
	Password   string
	Nickname   string
	GameID     string
	ProfileURL string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error)
	LoginWithFirebase(ctx context.Context, idToken string) (*domain.User, *TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	NicknameAvailable(ctx context.Context, nickname string) (bool, error)
}

// CredentialProvider creates and removes login credentials. The local
// provider hashes passwords with bcrypt; the Firebase provider creates
// Firebase Auth users.
type CredentialProvider interface {
	CreateCredential(ctx context.Context, email, password string) (uid, passwordHash string, err error)
	DeleteCredential(ctx context.Context, uid string) error
}

// IDTokenVerifier verifies an external identity token and returns its uid.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

type UserService interface {
	GetProfile(ctx context.Context, uid string) (*domain.UserWithRole, error)
	ListUsers(ctx context.Context, actorID string) ([]domain.UserWithRole, error)
	SetRole(ctx context.Context, actorID, targetID string, role domain.Role) error
	DeleteAccount(ctx context.Context, actorID, targetID string) error
	RegisterDeviceToken(ctx context.Context, uid, token string) error
	IsAdmin(ctx context.Context, uid string) (bool, error)
}

type SettingsService interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, actorID string, s domain.Settings) (*domain.Settings, error)
}

type NotificationService interface {
	// Notify stores an in-app notification and mirrors it to push. Failures
	// are logged, never returned.
	Notify(ctx context.Context, userID, title, message string, attrs map[string]string)
	NotifyAdmins(ctx context.Context, title, message string, attrs map[string]string)
	GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID string, notificationID int32) error
}

// PushSender delivers push notifications to device tokens and reports the
// tokens the provider rejected as no longer registered.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (invalid []string, err error)
}

// EmailService mails the configured admin recipients.
type EmailService interface {
	SendRentalRequestNotification(ctx context.Context, rental *domain.Rental) error
	SendOverdueAlert(ctx context.Context, rental *domain.Rental, overdueBy time.Duration) error
}

type ImageStorageService interface {
	// GetUploadURL returns the storage key, the URL to PUT the file to, the
	// download URL to put into Item.ImageURL and the upload expiry.
	GetUploadURL(ctx context.Context, actorID, filename, contentType string) (key, uploadURL, downloadURL string, expiresAt time.Time, err error)
}

type StatsService interface {
	GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}
