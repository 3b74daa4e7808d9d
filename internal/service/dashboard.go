package service

import (
	"fmt"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/shopspring/decimal"
)

type Dashboard struct {
	TotalSaved         decimal.Decimal              `json:"total_saved"`
	ActiveGoals        int                          `json:"active_goals"`
	CompletedGoals     int                          `json:"completed_goals"`
	Streak             *model.StreakView            `json:"streak"`
	RecentSavings      []*model.SavingDetail        `json:"recent_savings"`
	RecentAchievements []*model.UnlockedAchievement `json:"recent_achievements"`
}

type DashboardService struct {
	goals        repository.GoalRepository
	savings      repository.SavingRepository
	achievements repository.AchievementRepository
	streaks      *StreakService
}

func NewDashboardService(
	goals repository.GoalRepository,
	savings repository.SavingRepository,
	achievements repository.AchievementRepository,
	streaks *StreakService,
) *DashboardService {
	return &DashboardService{
		goals:        goals,
		savings:      savings,
		achievements: achievements,
		streaks:      streaks,
	}
}

func (s *DashboardService) Dashboard(userID string) (*Dashboard, error) {
	total, _, err := s.savings.Totals(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	active, completed, err := s.goals.CountByStatus(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count goals: %w", err)
	}

	streak, err := s.streaks.Streak(userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.savings.Savings(repository.SavingFilter{UserID: userID, Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}

	achievements, err := s.achievements.Latest(userID, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	return &Dashboard{
		TotalSaved:         total,
		ActiveGoals:        active,
		CompletedGoals:     completed,
		Streak:             streak,
		RecentSavings:      nonNil(recent),
		RecentAchievements: nonNil(achievements),
	}, nil
}
