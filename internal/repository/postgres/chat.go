package postgres

import (
	"context"
	"database/sql"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

type chatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, m *domain.ChatMessage) error {
	query := `INSERT INTO rental_messages (rental_id, sender_id, sender_name, is_admin, message, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return conn(ctx, r.db).QueryRowContext(ctx, query, m.RentalID, m.SenderID, m.SenderName, m.IsAdmin, m.Message, m.CreatedAt).Scan(&m.ID)
}

func (r *chatRepository) ListByRental(ctx context.Context, rentalID int32) ([]domain.ChatMessage, error) {
	query := `SELECT id, rental_id, sender_id, sender_name, is_admin, message, created_at
	          FROM rental_messages WHERE rental_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.RentalID, &m.SenderID, &m.SenderName, &m.IsAdmin, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
