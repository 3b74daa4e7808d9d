package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"

	RoleOwner       = "owner"
	RoleContributor = "contributor"
)

type Goal struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"current_amount"`
	Status        string          `db:"status" json:"status"`
	IsShared      bool            `db:"is_shared" json:"is_shared"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// ProgressPercent is current/target*100 capped at 100, two decimals.
func (g *Goal) ProgressPercent() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount).Mul(hundred)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return p.Round(2)
}

// RemainingAmount never goes below zero.
func (g *Goal) RemainingAmount() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (g *Goal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

// SyncCompletion moves the goal between active and completed based on its
// amounts. Returns true when the status changed.
func (g *Goal) SyncCompletion(now time.Time) bool {
	reached := g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
	switch {
	case reached && !g.IsCompleted():
		g.Status = GoalStatusCompleted
		g.CompletedAt = &now
		return true
	case !reached && g.IsCompleted():
		g.Status = GoalStatusActive
		g.CompletedAt = nil
		return true
	}
	return false
}

// GoalView is a goal as returned to a specific user.
type GoalView struct {
	*Goal
	Role            string          `json:"role"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

func NewGoalView(g *Goal, role string) *GoalView {
	return &GoalView{
		Goal:            g,
		Role:            role,
		ProgressPercent: g.ProgressPercent(),
		RemainingAmount: g.RemainingAmount(),
	}
}

// UserGoal is a goal row joined with the caller's participant role.
type UserGoal struct {
	Goal
	Role string `db:"role"`
}

type GoalParticipant struct {
	GoalID    string    `db:"goal_id" json:"goal_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
}

// Contribution is the sum a participant has saved towards a goal.
type Contribution struct {
	UserID   string          `db:"user_id" json:"user_id"`
	Username string          `db:"username" json:"username"`
	Total    decimal.Decimal `db:"total" json:"total"`
	Count    int             `db:"count" json:"count"`
}
