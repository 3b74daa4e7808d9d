package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Dune005/syfte/internal/metrics"
	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/shopspring/decimal"
)

// AchievementEvent describes what triggered an evaluation. SavingAt is set
// when a saving was just logged.
type AchievementEvent struct {
	SavingAt *time.Time
}

// predicate decides a custom achievement.
type predicate func(s *AchievementService, userID string, ev AchievementEvent) (bool, error)

var predicates = map[string]predicate{
	"early_bird": func(s *AchievementService, _ string, ev AchievementEvent) (bool, error) {
		return ev.SavingAt != nil && ev.SavingAt.In(s.calendar.Location()).Hour() < 8, nil
	},
	"night_owl": func(s *AchievementService, _ string, ev AchievementEvent) (bool, error) {
		if ev.SavingAt == nil {
			return false, nil
		}
		t := ev.SavingAt.In(s.calendar.Location())
		// strictly after 22:00 local time
		return t.After(time.Date(t.Year(), t.Month(), t.Day(), 22, 0, 0, 0, t.Location())), nil
	},
	"weekend_saver": func(s *AchievementService, _ string, ev AchievementEvent) (bool, error) {
		if ev.SavingAt == nil {
			return false, nil
		}
		wd := ev.SavingAt.In(s.calendar.Location()).Weekday()
		return wd == time.Saturday || wd == time.Sunday, nil
	},
	"team_player": func(s *AchievementService, userID string, _ AchievementEvent) (bool, error) {
		n, err := s.participantRepo.CountSharedParticipations(userID)
		return n > 0, err
	},
	"first_friend": func(s *AchievementService, userID string, _ AchievementEvent) (bool, error) {
		n, err := s.friendshipRepo.CountAccepted(userID)
		return n >= 1, err
	},
}

type AchievementService struct {
	achievementRepo repository.AchievementRepository
	participantRepo repository.ParticipantRepository
	friendshipRepo  repository.FriendshipRepository
	calendar        *Calendar
}

func NewAchievementService(
	achievementRepo repository.AchievementRepository,
	participantRepo repository.ParticipantRepository,
	friendshipRepo repository.FriendshipRepository,
	calendar *Calendar,
) *AchievementService {
	return &AchievementService{
		achievementRepo: achievementRepo,
		participantRepo: participantRepo,
		friendshipRepo:  friendshipRepo,
		calendar:        calendar,
	}
}

// Evaluate unlocks every achievement userID now qualifies for and returns
// the newly unlocked ones. Already unlocked achievements are skipped.
func (s *AchievementService) Evaluate(userID string, ev AchievementEvent) ([]*model.Achievement, error) {
	catalogue, err := s.achievementRepo.Catalogue()
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	unlocked, err := s.unlockedSet(userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.achievementRepo.Stats(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	now := time.Now().UTC()
	var fresh []*model.Achievement
	for _, a := range catalogue {
		if _, ok := unlocked[a.ID]; ok {
			continue
		}

		met, err := s.qualifies(a, userID, stats, ev)
		if err != nil {
			return fresh, fmt.Errorf("failed to evaluate %s: %w", a.ID, err)
		}
		if !met {
			continue
		}

		created, err := s.achievementRepo.Unlock(userID, a.ID, now)
		if err != nil {
			return fresh, fmt.Errorf("failed to unlock %s: %w", a.ID, err)
		}
		if created {
			metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
			slog.Info("achievement unlocked", "user_id", userID, "achievement", a.ID)
			fresh = append(fresh, a)
		}
	}

	return fresh, nil
}

func (s *AchievementService) qualifies(a *model.Achievement, userID string, stats model.UserStats, ev AchievementEvent) (bool, error) {
	if a.CriteriaType == model.CriteriaCustom {
		p, ok := predicates[a.CriteriaKey]
		if !ok {
			slog.Warn("unknown achievement predicate", "achievement", a.ID, "key", a.CriteriaKey)
			return false, nil
		}
		return p(s, userID, ev)
	}

	value, ok := stats.Measure(a.CriteriaType)
	if !ok {
		return false, nil
	}
	return value.GreaterThanOrEqual(a.CriteriaValue), nil
}

// Progress returns the catalogue annotated with the user's unlock state
// and progress towards each threshold.
func (s *AchievementService) Progress(userID string) ([]*model.AchievementProgress, error) {
	catalogue, err := s.achievementRepo.Catalogue()
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	unlocked, err := s.unlockedSet(userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.achievementRepo.Stats(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	result := make([]*model.AchievementProgress, 0, len(catalogue))
	for _, a := range catalogue {
		p := &model.AchievementProgress{Achievement: a, Progress: decimal.Zero}
		if at, ok := unlocked[a.ID]; ok {
			p.Unlocked = true
			p.UnlockedAt = &at
			p.Progress = hundredPercent
		} else if value, ok := stats.Measure(a.CriteriaType); ok {
			p.Progress = percentOf(value, a.CriteriaValue)
		}
		result = append(result, p)
	}

	return result, nil
}

func (s *AchievementService) Latest(userID string, limit int) ([]*model.UnlockedAchievement, error) {
	return s.achievementRepo.Latest(userID, limit)
}

func (s *AchievementService) unlockedSet(userID string) (map[string]time.Time, error) {
	rows, err := s.achievementRepo.Unlocked(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked achievements: %w", err)
	}

	set := make(map[string]time.Time, len(rows))
	for _, ua := range rows {
		set[ua.AchievementID] = ua.UnlockedAt
	}
	return set, nil
}

var hundredPercent = decimal.NewFromInt(100)

// percentOf returns value/threshold as a percentage capped at 100.
func percentOf(value, threshold decimal.Decimal) decimal.Decimal {
	if !threshold.IsPositive() {
		return hundredPercent
	}
	p := value.Div(threshold).Mul(hundredPercent)
	if p.GreaterThan(hundredPercent) {
		p = hundredPercent
	}
	if p.IsNegative() {
		p = decimal.Zero
	}
	return p.Round(2)
}
