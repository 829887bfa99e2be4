package service

import (
	"context"
	"errors"
	"strings"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
)

var supportedLanguages = map[string]bool{"pt": true, "en": true, "es": true}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	userRepo     repository.UserRepository
}

func NewSettingsService(settingsRepo repository.SettingsRepository, userRepo repository.UserRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, userRepo: userRepo}
}

// GetSettings returns the stored record, or the defaults when none was saved yet.
func (s *settingsService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	st, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			def := domain.DefaultSettings()
			return &def, nil
		}
		return nil, err
	}
	return st, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, actorID string, in domain.Settings) (*domain.Settings, error) {
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	in.DefaultLanguage = strings.ToLower(strings.TrimSpace(in.DefaultLanguage))
	if in.DefaultLanguage == "" {
		in.DefaultLanguage = domain.DefaultSettings().DefaultLanguage
	}
	if !supportedLanguages[in.DefaultLanguage] {
		return nil, invalid("unsupported language %q", in.DefaultLanguage)
	}
	in.UpdatedBy = actorID
	if err := s.settingsRepo.Save(ctx, &in); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Settings updated", "by", actorID, "cash", in.CashEnabled, "credit", in.CreditEnabled, "items", in.ItemsEnabled, "language", in.DefaultLanguage)
	return &in, nil
}
