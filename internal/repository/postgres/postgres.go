package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// notFound maps sql.ErrNoRows to repository.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// affected returns repository.ErrNotFound when an update or delete touched nothing.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) repository.Transactor {
	return &transactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise. A ctx that
// already carries a transaction is reused, so nested calls join the outer one.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type Store struct {
	db *sql.DB
	repository.Transactor
	Items         repository.ItemRepository
	Categories    repository.CategoryRepository
	Rentals       repository.RentalRepository
	Counters      repository.CounterRepository
	Chat          repository.ChatRepository
	Users         repository.UserRepository
	Settings      repository.SettingsRepository
	Notifications repository.NotificationRepository
	Stats         repository.StatsRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		Transactor:    NewTransactor(db),
		Items:         NewItemRepository(db),
		Categories:    NewCategoryRepository(db),
		Rentals:       NewRentalRepository(db),
		Counters:      NewCounterRepository(db),
		Chat:          NewChatRepository(db),
		Users:         NewUserRepository(db),
		Settings:      NewSettingsRepository(db),
		Notifications: NewNotificationRepository(db),
		Stats:         NewStatsRepository(db),
	}
}

// Ping checks database connectivity, used by the health server.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
