package postgres

import (
	"context"
	"database/sql"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	s := &domain.DashboardStats{}
	query := `SELECT
	            (SELECT count(*) FROM items),
	            (SELECT count(*) FROM items WHERE availability = 'available'),
	            (SELECT count(*) FROM rentals WHERE status = 'pending'),
	            (SELECT count(*) FROM rentals WHERE status = 'active'),
	            (SELECT count(*) FROM rentals WHERE status = 'completed')`
	err := conn(ctx, r.db).QueryRowContext(ctx, query).Scan(&s.TotalItems, &s.AvailableItems, &s.PendingRentals, &s.ActiveRentals, &s.CompletedRentals)
	if err != nil {
		return nil, err
	}
	return s, nil
}
