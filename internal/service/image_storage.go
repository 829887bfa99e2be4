package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
	"clan-rental-backend/internal/storage"

	"github.com/google/uuid"
)

const uploadURLExpiry = 15 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type imageStorageService struct {
	store        storage.StorageInterface
	userRepo     repository.UserRepository
	allowedTypes map[string]bool
	now          func() time.Time
}

func NewImageStorageService(store storage.StorageInterface, userRepo repository.UserRepository, allowedTypes []string) ImageStorageService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &imageStorageService{
		store:        store,
		userRepo:     userRepo,
		allowedTypes: allowed,
		now:          time.Now,
	}
}

// GetUploadURL issues a fresh key under items/ for an admin uploading an item
// image.
func (s *imageStorageService) GetUploadURL(ctx context.Context, actorID, filename, contentType string) (string, string, string, time.Time, error) {
	logger.EnterMethod("imageStorageService.GetUploadURL", "actorID", actorID, "contentType", contentType)
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return "", "", "", time.Time{}, err
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !s.allowedTypes[contentType] {
		return "", "", "", time.Time{}, invalid("content type %q is not allowed", contentType)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 5 {
		ext = imageExtensions[contentType]
	}

	key := fmt.Sprintf("items/%s%s", uuid.NewString(), ext)
	uploadURL, err := s.store.GeneratePresignedUploadURL(ctx, key, contentType, uploadURLExpiry)
	if err != nil {
		logger.ExitMethodWithError("imageStorageService.GetUploadURL", err)
		return "", "", "", time.Time{}, err
	}
	downloadURL, err := s.store.GeneratePresignedDownloadURL(ctx, key, 0)
	if err != nil {
		logger.ExitMethodWithError("imageStorageService.GetUploadURL", err)
		return "", "", "", time.Time{}, err
	}

	logger.ExitMethod("imageStorageService.GetUploadURL", "key", key)
	return key, uploadURL, downloadURL, s.now().Add(uploadURLExpiry), nil
}
