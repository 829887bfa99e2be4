package domain

import "time"

type ChatMessage struct {
	ID         int64     `json:"id"`
	RentalID   int32     `json:"rental_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	IsAdmin    bool      `json:"is_admin"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
