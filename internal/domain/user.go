package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GameNickname string    `json:"game_nickname"`
	GameID       string    `json:"game_id"`
	ProfileURL   string    `json:"profile_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRole struct {
	UID       string    `json:"uid"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Nickname is the reservation record that makes game nicknames unique.
type Nickname struct {
	Nickname  string    `json:"nickname"`
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
}

// UserWithRole is used by the admin user listing.
type UserWithRole struct {
	User
	Role Role `json:"role"`
}
