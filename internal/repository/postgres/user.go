package postgres

import (
	"context"
	"database/sql"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) ReserveNickname(ctx context.Context, n *domain.Nickname) (bool, error) {
	query := `INSERT INTO nicknames (nickname, uid, created_at) VALUES ($1, $2, $3) ON CONFLICT (nickname) DO NOTHING`
	n.CreatedAt = time.Now().UTC()

	logger.DatabaseCall("INSERT", "nicknames", "nickname", n.Nickname)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, n.Nickname, n.UID, n.CreatedAt)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "nickname", n.Nickname)
		return false, err
	}
	rows, err := res.RowsAffected()
	logger.DatabaseResult("INSERT", rows, err, "nickname", n.Nickname)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *userRepository) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM nicknames WHERE nickname = $1)`, nickname).Scan(&exists)
	return exists, err
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (uid, email, password_hash, game_nickname, game_id, profile_url, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	u.CreatedAt = time.Now().UTC()
	logger.DatabaseCall("INSERT", "users", "uid", u.UID)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, u.UID, u.Email, u.PasswordHash, u.GameNickname, u.GameID, u.ProfileURL, u.CreatedAt)
	logger.DatabaseResult("INSERT", 1, err, "uid", u.UID)
	return err
}

const userColumns = `uid, email, password_hash, game_nickname, game_id, profile_url, created_at`

func scanUser(s rowScanner) (*domain.User, error) {
	u := &domain.User{}
	if err := s.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.GameNickname, &u.GameID, &u.ProfileURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	db := conn(ctx, r.db)
	logger.DatabaseCall("DELETE", "user_roles", "uid", uid)
	if _, err := db.ExecContext(ctx, `DELETE FROM user_roles WHERE uid = $1`, uid); err != nil {
		return err
	}
	logger.DatabaseCall("DELETE", "users", "uid", uid)
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *userRepository) SetRole(ctx context.Context, uid string, role domain.Role) error {
	query := `INSERT INTO user_roles (uid, role, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (uid) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`
	logger.DatabaseCall("UPSERT", "user_roles", "uid", uid, "role", role)
	_, err := conn(ctx, r.db).ExecContext(ctx, query, uid, role, time.Now().UTC())
	return err
}

func (r *userRepository) GetRole(ctx context.Context, uid string) (domain.Role, error) {
	var role domain.Role
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT role FROM user_roles WHERE uid = $1`, uid).Scan(&role)
	if err != nil {
		return "", notFound(err)
	}
	return role, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.UserWithRole, error) {
	query := `SELECT u.uid, u.email, u.password_hash, u.game_nickname, u.game_id, u.profile_url, u.created_at, COALESCE(r.role, 'user')
	          FROM users u LEFT JOIN user_roles r ON r.uid = u.uid
	          ORDER BY u.game_nickname ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserWithRole
	for rows.Next() {
		var u domain.UserWithRole
		if err := rows.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.GameNickname, &u.GameID, &u.ProfileURL, &u.CreatedAt, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]domain.User, error) {
	query := `SELECT u.uid, u.email, u.password_hash, u.game_nickname, u.game_id, u.profile_url, u.created_at
	          FROM users u JOIN user_roles r ON r.uid = u.uid WHERE r.role = 'admin'`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
