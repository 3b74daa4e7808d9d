package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipDeclined = "declined"
)

type Friendship struct {
	ID          string    `db:"id" json:"id"`
	RequesterID string    `db:"requester_id" json:"requester_id"`
	AddresseeID string    `db:"addressee_id" json:"addressee_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Other returns the id of the user on the other side of the friendship.
func (f *Friendship) Other(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// FriendRequest is a pending friendship with the counterpart's public data.
type FriendRequest struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Friend struct {
	PublicUser
	Since          time.Time `db:"since" json:"since"`
	CurrentStreak  int       `db:"current_streak" json:"current_streak"`
	LastSavingDate *string   `db:"last_saving_date" json:"-"`
}

// SearchResult is a user search hit with the caller's friendship status.
type SearchResult struct {
	PublicUser
	FriendshipStatus string `json:"friendship_status"`
}

type LeaderboardEntry struct {
	Rank          int             `db:"-" json:"rank"`
	UserID        string          `db:"user_id" json:"user_id"`
	Username      string          `db:"username" json:"username"`
	Total         decimal.Decimal `db:"total" json:"total"`
	CurrentStreak int             `db:"current_streak" json:"current_streak"`
	LastSaving    *string         `db:"last_saving_date" json:"-"`
	IsSelf        bool            `db:"-" json:"is_self"`
}
