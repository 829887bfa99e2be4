package postgres

import (
	"context"
	"database/sql"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
)

type counterRepository struct {
	db *sql.DB
}

func NewCounterRepository(db *sql.DB) repository.CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `INSERT INTO counters (name, last_value) VALUES ($1, 1)
	          ON CONFLICT (name) DO UPDATE SET last_value = counters.last_value + 1
	          RETURNING last_value`
	var v int64
	logger.DatabaseCall("UPSERT", "counters", "name", name)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, name).Scan(&v)
	logger.DatabaseResult("UPSERT", 1, err, "name", name, "value", v)
	return v, err
}
