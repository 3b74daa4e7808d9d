package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const ActionCategoryOther = "other"

type Action struct {
	ID            string          `db:"id" json:"id"`
	UserID        *string         `db:"user_id" json:"user_id,omitempty"` // nil for predefined actions
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	DefaultAmount decimal.Decimal `db:"default_amount" json:"default_amount"`
	Category      string          `db:"category" json:"category"`
	IsCustom      bool            `db:"is_custom" json:"is_custom"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

func (a *Action) IsPredefined() bool {
	return a.UserID == nil
}

func (a *Action) OwnedBy(userID string) bool {
	return a.UserID != nil && *a.UserID == userID
}
