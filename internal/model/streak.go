package model

import (
	"time"
)

// DateLayout is the calendar-day format stored in last_saving_date.
const DateLayout = "2006-01-02"

type Streak struct {
	UserID         string    `db:"user_id" json:"-"`
	CurrentStreak  int       `db:"current_streak" json:"current_streak"`
	LongestStreak  int       `db:"longest_streak" json:"longest_streak"`
	LastSavingDate *string   `db:"last_saving_date" json:"last_saving_date"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// Advance applies a saving made on day (YYYY-MM-DD) to the streak.
func (s *Streak) Advance(day string) {
	switch {
	case s.LastSavingDate == nil || *s.LastSavingDate == "":
		s.CurrentStreak = 1
	case *s.LastSavingDate == day:
		return
	case *s.LastSavingDate == PreviousDay(day):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	s.LastSavingDate = &day
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
}

// Effective returns the streak length as seen on today: a streak whose
// last saving is older than yesterday reads as zero.
func (s *Streak) Effective(today string) int {
	if s.LastSavingDate == nil {
		return 0
	}
	last := *s.LastSavingDate
	if last == today || last == PreviousDay(today) {
		return s.CurrentStreak
	}
	return 0
}

func (s *Streak) ActiveOn(day string) bool {
	return s.LastSavingDate != nil && *s.LastSavingDate == day
}

// PreviousDay returns the calendar day before day. Invalid input yields "".
func PreviousDay(day string) string {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

type StreakView struct {
	CurrentStreak  int     `json:"current_streak"`
	StoredStreak   int     `json:"stored_streak"`
	LongestStreak  int     `json:"longest_streak"`
	LastSavingDate *string `json:"last_saving_date"`
	ActiveToday    bool    `json:"active_today"`
}

func NewStreakView(s *Streak, today string) *StreakView {
	return &StreakView{
		CurrentStreak:  s.Effective(today),
		StoredStreak:   s.CurrentStreak,
		LongestStreak:  s.LongestStreak,
		LastSavingDate: s.LastSavingDate,
		ActiveToday:    s.ActiveOn(today),
	}
}
