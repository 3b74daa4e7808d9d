package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Saving struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	GoalID    string          `db:"goal_id" json:"goal_id"`
	ActionID  *string         `db:"action_id" json:"action_id,omitempty"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Note      string          `db:"note" json:"note"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// SavingDetail is a saving joined with its goal and action titles.
type SavingDetail struct {
	Saving
	GoalTitle   string  `db:"goal_title" json:"goal_title"`
	ActionTitle *string `db:"action_title" json:"action_title,omitempty"`
	Username    string  `db:"username" json:"username"`
}

type ActionTotal struct {
	ActionID string          `db:"action_id" json:"action_id"`
	Title    string          `db:"title" json:"title"`
	Total    decimal.Decimal `db:"total" json:"total"`
	Count    int             `db:"count" json:"count"`
}

type SavingStats struct {
	TotalSaved decimal.Decimal `json:"total_saved"`
	Today      decimal.Decimal `json:"today"`
	ThisWeek   decimal.Decimal `json:"this_week"`
	ThisMonth  decimal.Decimal `json:"this_month"`
	Count      int             `json:"count"`
	TopActions []*ActionTotal  `json:"top_actions"`
}
