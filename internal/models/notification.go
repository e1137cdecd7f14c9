package models

import "time"

// Notification is a message sent from one profile to another, or broadcast
// to every profile when RecipientID is nil at creation time.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	SenderID    string    `db:"sender_id" json:"sender_id"`
	RecipientID *string   `db:"recipient_id" json:"recipient_id,omitempty"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NotificationFilter restricts notification listings.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Page        int
	PageSize    int
}

// NotificationEvent is the payload published on the realtime channel when a
// notification is stored.
type NotificationEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RecipientID *string   `json:"recipient_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
