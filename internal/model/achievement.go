package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CriteriaTotalSaved     = "total_saved"
	CriteriaGoalsCompleted = "goals_completed"
	CriteriaStreakDays     = "streak_days"
	CriteriaSavingsCount   = "savings_count"
	CriteriaCustom         = "custom"
)

type Achievement struct {
	ID            string          `db:"id" json:"id"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	Icon          string          `db:"icon" json:"icon"`
	CriteriaType  string          `db:"criteria_type" json:"criteria_type"`
	CriteriaValue decimal.Decimal `db:"criteria_value" json:"criteria_value"`
	CriteriaKey   string          `db:"criteria_key" json:"-"`
	SortOrder     int             `db:"sort_order" json:"-"`
}

type UserAchievement struct {
	UserID        string    `db:"user_id" json:"-"`
	AchievementID string    `db:"achievement_id" json:"achievement_id"`
	UnlockedAt    time.Time `db:"unlocked_at" json:"unlocked_at"`
}

// UnlockedAchievement is a catalogue entry joined with its unlock time.
type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `db:"unlocked_at" json:"unlocked_at"`
}

type AchievementProgress struct {
	*Achievement
	Unlocked   bool            `json:"unlocked"`
	UnlockedAt *time.Time      `json:"unlocked_at,omitempty"`
	Progress   decimal.Decimal `json:"progress"`
}

// UserStats are the figures threshold achievements are measured against.
type UserStats struct {
	TotalSaved     decimal.Decimal `json:"total_saved"`
	GoalsCompleted int             `json:"goals_completed"`
	LongestStreak  int             `json:"longest_streak"`
	SavingsCount   int             `json:"savings_count"`
}

// Measure returns the stat matching a threshold criteria type.
func (s UserStats) Measure(criteriaType string) (decimal.Decimal, bool) {
	switch criteriaType {
	case CriteriaTotalSaved:
		return s.TotalSaved, true
	case CriteriaGoalsCompleted:
		return decimal.NewFromInt(int64(s.GoalsCompleted)), true
	case CriteriaStreakDays:
		return decimal.NewFromInt(int64(s.LongestStreak)), true
	case CriteriaSavingsCount:
		return decimal.NewFromInt(int64(s.SavingsCount)), true
	}
	return decimal.Zero, false
}
