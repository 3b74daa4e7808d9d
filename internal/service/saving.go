package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/metrics"
	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	DefaultSavingsLimit = 20
	MaxSavingsLimit     = 100
	topActionsLimit     = 5
)

var maxSavingAmount = decimal.NewFromInt(10000)

type SavingInput struct {
	GoalID   string           `json:"goal_id" validate:"required"`
	ActionID *string          `json:"action_id"`
	Amount   *decimal.Decimal `json:"amount"`
	Note     string           `json:"note" validate:"max=255"`
}

// SavingResult is everything a client needs to refresh after logging a saving.
type SavingResult struct {
	Saving          *model.Saving        `json:"saving"`
	Goal            *model.GoalView      `json:"goal"`
	Streak          *model.StreakView    `json:"streak"`
	NewAchievements []*model.Achievement `json:"new_achievements"`
}

type SavingPage struct {
	Savings []*model.SavingDetail `json:"savings"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

type SavingService struct {
	db           *sqlx.DB
	savings      repository.SavingRepository
	goals        repository.GoalRepository
	participants repository.ParticipantRepository
	actions      *ActionService
	streaks      *StreakService
	achievements *AchievementService
	calendar     *Calendar
}

func NewSavingService(
	db *sqlx.DB,
	savings repository.SavingRepository,
	goals repository.GoalRepository,
	participants repository.ParticipantRepository,
	actions *ActionService,
	streaks *StreakService,
	achievements *AchievementService,
	calendar *Calendar,
) *SavingService {
	return &SavingService{
		db:           db,
		savings:      savings,
		goals:        goals,
		participants: participants,
		actions:      actions,
		streaks:      streaks,
		achievements: achievements,
		calendar:     calendar,
	}
}

// Create logs a saving against a goal the user participates in. The saving
// and the goal balance are written in one transaction; streak and
// achievements follow and never fail the request.
func (s *SavingService) Create(userID string, in SavingInput) (*SavingResult, error) {
	in.Note = strings.TrimSpace(in.Note)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Amount == nil && in.ActionID == nil {
		return nil, validation.FieldErrors{"amount": "amount or action_id is required"}
	}

	userGoal, err := s.goals.ForUser(userID, in.GoalID)
	if err != nil {
		return nil, err
	}

	var amount decimal.Decimal
	if in.ActionID != nil {
		action, err := s.actions.Usable(userID, *in.ActionID)
		if err != nil {
			return nil, err
		}
		amount = action.DefaultAmount
	}
	if in.Amount != nil {
		amount = *in.Amount
	}
	if err := validation.ValidateAmount(amount, &maxSavingAmount); err != nil {
		return nil, validation.FieldErrors{"amount": err.Error()}
	}

	now := s.calendar.Now().UTC()
	saving := &model.Saving{
		ID:        uuid.New().String(),
		UserID:    userID,
		GoalID:    in.GoalID,
		ActionID:  in.ActionID,
		Amount:    amount,
		Note:      in.Note,
		CreatedAt: now,
	}

	var (
		goal      *model.Goal
		completed bool
	)
	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		if err := s.savings.WithTx(tx).Create(saving); err != nil {
			return err
		}

		goals := s.goals.WithTx(tx)
		if err := goals.AddAmount(in.GoalID, amount); err != nil {
			return err
		}

		var err error
		goal, err = goals.ByID(in.GoalID)
		if err != nil {
			return err
		}

		if goal.SyncCompletion(now) {
			completed = goal.IsCompleted()
			return goals.Update(goal)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to log saving: %w", err)
	}

	metrics.SavingsLogged.Inc()
	slog.Info("saving logged", "user_id", userID, "goal_id", goal.ID, "amount", amount.StringFixed(2))

	result := &SavingResult{
		Saving:          saving,
		Goal:            model.NewGoalView(goal, userGoal.Role),
		NewAchievements: []*model.Achievement{},
	}

	streak, err := s.streaks.Record(userID, now)
	if err != nil {
		slog.Error("failed to update streak", "error", err, "user_id", userID)
		result.Streak, _ = s.streaks.Streak(userID)
	} else {
		result.Streak = model.NewStreakView(streak, s.calendar.Today())
	}

	unlocked, err := s.achievements.Evaluate(userID, AchievementEvent{SavingAt: &now})
	if err != nil {
		slog.Error("failed to evaluate achievements", "error", err, "user_id", userID)
	}
	result.NewAchievements = append(result.NewAchievements, unlocked...)

	// a completed goal counts for every participant
	if completed {
		s.evaluateParticipants(goal.ID, userID)
	}

	return result, nil
}

func (s *SavingService) evaluateParticipants(goalID, saverID string) {
	participants, err := s.participants.Participants(goalID)
	if err != nil {
		slog.Error("failed to list participants", "error", err, "goal_id", goalID)
		return
	}
	for _, p := range participants {
		if p.UserID == saverID {
			continue
		}
		if _, err := s.achievements.Evaluate(p.UserID, AchievementEvent{}); err != nil {
			slog.Error("failed to evaluate achievements", "error", err, "user_id", p.UserID)
		}
	}
}

// Savings lists the user's savings, or every participant's savings on a
// goal when goalID is set.
func (s *SavingService) Savings(userID, goalID string, limit, offset int) (*SavingPage, error) {
	if limit <= 0 {
		limit = DefaultSavingsLimit
	}
	if limit > MaxSavingsLimit {
		limit = MaxSavingsLimit
	}
	if offset < 0 {
		offset = 0
	}

	if goalID != "" {
		if _, err := s.goals.ForUser(userID, goalID); err != nil {
			return nil, err
		}
	}

	filter := repository.SavingFilter{UserID: userID, GoalID: goalID, Limit: limit, Offset: offset}
	savings, err := s.savings.Savings(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings: %w", err)
	}

	total, err := s.savings.Count(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count savings: %w", err)
	}

	if savings == nil {
		savings = []*model.SavingDetail{}
	}
	return &SavingPage{Savings: savings, Total: total, Limit: limit, Offset: offset}, nil
}

// Delete removes one of the user's savings and takes its amount off the
// goal. Streaks and achievements are kept.
func (s *SavingService) Delete(userID, savingID string) (*model.GoalView, error) {
	saving, err := s.savings.ByID(savingID)
	if err != nil {
		return nil, err
	}
	if saving.UserID != userID {
		return nil, repository.ErrSavingNotFound
	}

	var goal *model.Goal
	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		if err := s.savings.WithTx(tx).Delete(saving.ID); err != nil {
			return err
		}

		goals := s.goals.WithTx(tx)
		if err := goals.SubtractAmount(saving.GoalID, saving.Amount); err != nil {
			return err
		}

		var err error
		goal, err = goals.ByID(saving.GoalID)
		if err != nil {
			return err
		}

		if goal.SyncCompletion(s.calendar.Now().UTC()) {
			return goals.Update(goal)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete saving: %w", err)
	}

	slog.Info("saving deleted", "user_id", userID, "saving_id", savingID)

	role := model.RoleContributor
	if goal.UserID == userID {
		role = model.RoleOwner
	}
	return model.NewGoalView(goal, role), nil
}

func (s *SavingService) Stats(userID string) (*model.SavingStats, error) {
	total, count, err := s.savings.Totals(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	now := s.calendar.Now()
	stats := &model.SavingStats{TotalSaved: total, Count: count}

	periods := []struct {
		since time.Time
		dst   *decimal.Decimal
	}{
		{s.calendar.StartOfDay(now), &stats.Today},
		{s.calendar.StartOfWeek(now), &stats.ThisWeek},
		{s.calendar.StartOfMonth(now), &stats.ThisMonth},
	}
	for _, p := range periods {
		sum, err := s.savings.SumSince(userID, p.since)
		if err != nil {
			return nil, fmt.Errorf("failed to sum savings: %w", err)
		}
		*p.dst = sum
	}

	stats.TopActions, err = s.savings.TopActions(userID, topActionsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top actions: %w", err)
	}
	if stats.TopActions == nil {
		stats.TopActions = []*model.ActionTotal{}
	}

	return stats, nil
}

// Recent returns the latest savings of the user.
func (s *SavingService) Recent(userID string, limit int) ([]*model.SavingDetail, error) {
	return s.savings.Savings(repository.SavingFilter{UserID: userID, Limit: limit})
}

