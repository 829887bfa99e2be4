package postgres

import (
	"context"
	"database/sql"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	s := &domain.Settings{}
	query := `SELECT cash_enabled, credit_enabled, items_enabled, default_language, updated_by, updated_at FROM settings WHERE id = 1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query).Scan(&s.CashEnabled, &s.CreditEnabled, &s.ItemsEnabled, &s.DefaultLanguage, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *domain.Settings) error {
	query := `INSERT INTO settings (id, cash_enabled, credit_enabled, items_enabled, default_language, updated_by, updated_at)
	          VALUES (1, $1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET cash_enabled = EXCLUDED.cash_enabled, credit_enabled = EXCLUDED.credit_enabled,
	              items_enabled = EXCLUDED.items_enabled, default_language = EXCLUDED.default_language,
	              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	s.UpdatedAt = time.Now().UTC()
	_, err := conn(ctx, r.db).ExecContext(ctx, query, s.CashEnabled, s.CreditEnabled, s.ItemsEnabled, s.DefaultLanguage, s.UpdatedBy, s.UpdatedAt)
	return err
}
