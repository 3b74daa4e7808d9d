package service

import (
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
)

const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

var ErrInvalidPeriod = errors.New("period must be one of week, month, all")

// Calendar resolves calendar days in the app time zone. Streaks, reminders
// and period statistics all depend on it.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar returns a calendar for loc. A nil now uses time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now is the current wall clock in the app time zone.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Calendar) Today() string {
	return c.Day(c.now())
}

// Day formats t as a local calendar day.
func (c *Calendar) Day(t time.Time) string {
	return t.In(c.loc).Format(model.DateLayout)
}

func (c *Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// StartOfWeek returns Monday 00:00 of t's week.
func (c *Calendar) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func (c *Calendar) StartOfMonth(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, c.loc)
}

// PeriodStart returns the UTC instant a leaderboard period begins at.
func (c *Calendar) PeriodStart(period string) (time.Time, error) {
	now := c.Now()
	switch period {
	case PeriodWeek, "":
		return c.StartOfWeek(now).UTC(), nil
	case PeriodMonth:
		return c.StartOfMonth(now).UTC(), nil
	case PeriodAll:
		return time.Unix(0, 0).UTC(), nil
	}
	return time.Time{}, ErrInvalidPeriod
}
