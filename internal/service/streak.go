package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/jmoiron/sqlx"
)

type StreakService struct {
	db         *sqlx.DB
	streakRepo repository.StreakRepository
	calendar   *Calendar
}

func NewStreakService(db *sqlx.DB, streakRepo repository.StreakRepository, calendar *Calendar) *StreakService {
	return &StreakService{
		db:         db,
		streakRepo: streakRepo,
		calendar:   calendar,
	}
}

// Record applies a saving made at t to the user's streak.
func (s *StreakService) Record(userID string, t time.Time) (*model.Streak, error) {
	day := s.calendar.Day(t)

	var streak *model.Streak
	err := repository.Transact(s.db, func(tx *sqlx.Tx) error {
		repo := s.streakRepo.WithTx(tx)

		var err error
		streak, err = repo.ByUserID(userID)
		if errors.Is(err, repository.ErrStreakNotFound) {
			streak = &model.Streak{UserID: userID}
		} else if err != nil {
			return err
		}

		streak.Advance(day)
		return repo.Save(streak)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record streak: %w", err)
	}

	return streak, nil
}

// Streak returns the user's streak as seen today. Users without savings
// get an empty streak.
func (s *StreakService) Streak(userID string) (*model.StreakView, error) {
	streak, err := s.streakRepo.ByUserID(userID)
	if errors.Is(err, repository.ErrStreakNotFound) {
		streak = &model.Streak{UserID: userID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return model.NewStreakView(streak, s.calendar.Today()), nil
}
