package service

import (
	"context"
	"errors"
	"fmt"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidTransition      = errors.New("invalid rental status transition")
	ErrNicknameTaken          = errors.New("nickname already in use")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInsufficientCollateral = errors.New("collateral items do not cover the required collateral")
	ErrInsufficientStock      = errors.New("requested quantity exceeds available stock")
	ErrPaymentMethodDisabled  = errors.New("payment method is disabled")
	ErrSelfModification       = errors.New("admins cannot demote or delete their own account")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrRateLimited            = errors.New("too many messages, slow down")
)

// invalid wraps ErrInvalidInput with a field-level reason.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// mapRepoErr turns repository.ErrNotFound into the service sentinel.
func mapRepoErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// requireAdmin checks the actor's stored role.
func requireAdmin(ctx context.Context, users repository.UserRepository, actorID string) error {
	if actorID == "" {
		return ErrForbidden
	}
	role, err := users.GetRole(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}
	if role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
