package postgres

import (
	"context"
	"database/sql"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (name, created_by, created_at) VALUES ($1, $2, $3) RETURNING id`
	c.CreatedAt = time.Now().UTC()
	return conn(ctx, r.db).QueryRowContext(ctx, query, c.Name, c.CreatedBy, c.CreatedAt).Scan(&c.ID)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	c := &domain.Category{}
	query := `SELECT id, name, created_by, created_at FROM categories WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT id, name, created_by, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *categoryRepository) Delete(ctx context.Context, id int32) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}
