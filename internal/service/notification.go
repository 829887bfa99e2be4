package service

import (
	"context"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
)

const maxPageSize = 100

type notificationService struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	push     PushSender
}

// NewNotificationService stores in-app notifications. push may be nil, in
// which case nothing is mirrored to devices.
func NewNotificationService(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, push PushSender) NotificationService {
	return &notificationService{noteRepo: noteRepo, userRepo: userRepo, push: push}
}

func (s *notificationService) Notify(ctx context.Context, userID, title, message string, attrs map[string]string) {
	n := &domain.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attrs,
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		logger.WarnContext(ctx, "Failed to store notification", "userID", userID, "title", title, "error", err)
		return
	}
	s.mirrorToPush(ctx, userID, title, message, attrs)
}

func (s *notificationService) NotifyAdmins(ctx context.Context, title, message string, attrs map[string]string) {
	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to list admins for notification", "title", title, "error", err)
		return
	}
	for _, a := range admins {
		s.Notify(ctx, a.UID, title, message, attrs)
	}
}

func (s *notificationService) mirrorToPush(ctx context.Context, userID, title, message string, attrs map[string]string) {
	if s.push == nil {
		return
	}
	tokens, err := s.noteRepo.ListDeviceTokens(ctx, userID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load device tokens", "userID", userID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}
	invalidTokens, err := s.push.Send(ctx, tokens, title, message, attrs)
	if err != nil {
		logger.WarnContext(ctx, "Push delivery failed", "userID", userID, "error", err)
	}
	for _, t := range invalidTokens {
		if err := s.noteRepo.DeleteDeviceToken(ctx, t); err != nil {
			logger.WarnContext(ctx, "Failed to drop stale device token", "userID", userID, "error", err)
		}
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID string, notificationID int32) error {
	return mapRepoErr(s.noteRepo.MarkRead(ctx, notificationID, userID), "notification")
}
