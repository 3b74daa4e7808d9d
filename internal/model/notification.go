package model

import (
	"time"
)

const DefaultSendTime = "19:00"

type PushSubscription struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"-"`
	Auth      string    `db:"auth" json:"-"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NotificationPreference struct {
	UserID       string    `db:"user_id" json:"-"`
	Enabled      bool      `db:"enabled" json:"enabled"`
	SendTime     string    `db:"send_time" json:"send_time"`
	LastSentDate *string   `db:"last_sent_date" json:"last_sent_date,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReminderTarget is an enabled preference joined with the user's streak,
// as needed by the reminder dispatcher.
type ReminderTarget struct {
	UserID         string  `db:"user_id"`
	Username       string  `db:"username"`
	FirstName      string  `db:"first_name"`
	CurrentStreak  int     `db:"current_streak"`
	LastSavingDate *string `db:"last_saving_date"`
}
