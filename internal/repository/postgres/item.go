package postgres

import (
	"context"
	"database/sql"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, name, category, image_url, availability, daily_rate, weekly_rate, market_rate, required_collateral, quantity, available_quantity, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*domain.Item, error) {
	it := &domain.Item{}
	err := s.Scan(&it.ID, &it.Name, &it.Category, &it.ImageURL, &it.Availability, &it.DailyRate, &it.WeeklyRate, &it.MarketRate, &it.RequiredCollateral, &it.Quantity, &it.AvailableQuantity, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	query := `INSERT INTO items (name, category, image_url, availability, daily_rate, weekly_rate, market_rate, required_collateral, quantity, available_quantity, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now

	logger.DatabaseCall("INSERT", "items", "name", it.Name)
	err := conn(ctx, r.db).QueryRowContext(ctx, query, it.Name, it.Category, it.ImageURL, it.Availability, it.DailyRate, it.WeeklyRate, it.MarketRate, it.RequiredCollateral, it.Quantity, it.AvailableQuantity, it.CreatedBy, it.CreatedAt, it.UpdatedAt).Scan(&it.ID)
	logger.DatabaseResult("INSERT", 1, err, "itemID", it.ID)
	return err
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return it, nil
}

func (r *itemRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`
	it, err := scanItem(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return it, nil
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	query := `UPDATE items SET name=$1, category=$2, image_url=$3, availability=$4, daily_rate=$5, weekly_rate=$6, market_rate=$7, required_collateral=$8, quantity=$9, available_quantity=$10, updated_at=$11 WHERE id=$12`
	it.UpdatedAt = time.Now().UTC()

	logger.DatabaseCall("UPDATE", "items", "itemID", it.ID)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, it.Name, it.Category, it.ImageURL, it.Availability, it.DailyRate, it.WeeklyRate, it.MarketRate, it.RequiredCollateral, it.Quantity, it.AvailableQuantity, it.UpdatedAt, it.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "itemID", it.ID)
		return err
	}
	return affected(res)
}

func (r *itemRepository) UpdateStock(ctx context.Context, id int32, availableQuantity int32, availability domain.ItemAvailability) error {
	query := `UPDATE items SET available_quantity=$1, availability=$2, updated_at=$3 WHERE id=$4`
	logger.DatabaseCall("UPDATE", "items", "itemID", id, "availableQuantity", availableQuantity, "availability", availability)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, availableQuantity, availability, time.Now().UTC(), id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "itemID", id)
		return err
	}
	return affected(res)
}

func (r *itemRepository) Delete(ctx context.Context, id int32) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *itemRepository) List(ctx context.Context, availability domain.ItemAvailability) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if availability != "" {
		query += ` WHERE availability = $1`
		args = append(args, availability)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}
