package service

import (
	"context"
	"errors"
	"strings"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
	noteRepo repository.NotificationRepository
	creds    CredentialProvider
}

func NewUserService(userRepo repository.UserRepository, noteRepo repository.NotificationRepository, creds CredentialProvider) UserService {
	return &userService{userRepo: userRepo, noteRepo: noteRepo, creds: creds}
}

func (s *userService) GetProfile(ctx context.Context, uid string) (*domain.UserWithRole, error) {
	u, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	role, err := s.userRepo.GetRole(ctx, uid)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		role = domain.RoleUser
	}
	return &domain.UserWithRole{User: *u, Role: role}, nil
}

func (s *userService) ListUsers(ctx context.Context, actorID string) ([]domain.UserWithRole, error) {
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}

// SetRole promotes or demotes a user. Admins cannot demote themselves.
func (s *userService) SetRole(ctx context.Context, actorID, targetID string, role domain.Role) error {
	logger.EnterMethod("userService.SetRole", "actorID", actorID, "targetID", targetID, "role", role)
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return err
	}
	if !role.Valid() {
		return invalid("unknown role %q", role)
	}
	if actorID == targetID && role != domain.RoleAdmin {
		return ErrSelfModification
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return mapRepoErr(err, "user")
	}
	if err := s.userRepo.SetRole(ctx, targetID, role); err != nil {
		logger.ExitMethodWithError("userService.SetRole", err)
		return err
	}
	logger.ExitMethod("userService.SetRole", "targetID", targetID, "role", role)
	return nil
}

// DeleteAccount removes the profile and role of another user. The nickname
// reservation is kept.
func (s *userService) DeleteAccount(ctx context.Context, actorID, targetID string) error {
	logger.EnterMethod("userService.DeleteAccount", "actorID", actorID, "targetID", targetID)
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return err
	}
	if actorID == targetID {
		return ErrSelfModification
	}
	if err := mapRepoErr(s.userRepo.Delete(ctx, targetID), "user"); err != nil {
		logger.ExitMethodWithError("userService.DeleteAccount", err)
		return err
	}
	if s.creds != nil {
		if err := s.creds.DeleteCredential(ctx, targetID); err != nil {
			logger.WarnContext(ctx, "Failed to delete credential of removed account", "uid", targetID, "error", err)
		}
	}
	logger.ExitMethod("userService.DeleteAccount", "targetID", targetID)
	return nil
}

func (s *userService) RegisterDeviceToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid("device token is required")
	}
	return s.noteRepo.SaveDeviceToken(ctx, &domain.DeviceToken{UserID: uid, Token: token})
}

func (s *userService) IsAdmin(ctx context.Context, uid string) (bool, error) {
	err := requireAdmin(ctx, s.userRepo, uid)
	if errors.Is(err, ErrForbidden) {
		return false, nil
	}
	return err == nil, err
}
