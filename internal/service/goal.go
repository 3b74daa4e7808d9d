package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const goalDetailSavings = 10

var (
	ErrGoalLimitReached = errors.New("active goal limit reached")
	ErrNotGoalOwner     = errors.New("only the goal owner can do this")
	ErrInvalidGoalSort  = errors.New("sort must be one of recent, progress, title")
)

type GoalInput struct {
	Title        string          `json:"title" validate:"required,max=100"`
	Description  string          `json:"description" validate:"max=500"`
	TargetAmount decimal.Decimal `json:"target_amount" validate:"money=1000000"`
}

// GoalDetail is a goal with its participants, their contributions and the
// latest savings.
type GoalDetail struct {
	*model.GoalView
	Participants  []*model.GoalParticipant `json:"participants"`
	Contributions []*model.Contribution    `json:"contributions"`
	RecentSavings []*model.SavingDetail    `json:"recent_savings"`
}

type GoalService struct {
	repo           repository.GoalRepository
	participants   repository.ParticipantRepository
	savings        repository.SavingRepository
	achievements   *AchievementService
	maxActiveGoals int
}

func NewGoalService(
	repo repository.GoalRepository,
	participants repository.ParticipantRepository,
	savings repository.SavingRepository,
	achievements *AchievementService,
	maxActiveGoals int,
) *GoalService {
	return &GoalService{
		repo:           repo,
		participants:   participants,
		savings:        savings,
		achievements:   achievements,
		maxActiveGoals: maxActiveGoals,
	}
}

func (s *GoalService) Create(userID string, in GoalInput) (*model.GoalView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	count, err := s.repo.CountActive(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count goals: %w", err)
	}
	if count >= s.maxActiveGoals {
		return nil, ErrGoalLimitReached
	}

	now := time.Now().UTC()
	goal := &model.Goal{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         in.Title,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Status:        model.GoalStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.Create(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	slog.Info("goal created", "user_id", userID, "goal_id", goal.ID)
	return model.NewGoalView(goal, model.RoleOwner), nil
}

// Goals lists the goals userID owns or contributes to.
func (s *GoalService) Goals(userID, sortBy string) ([]*model.GoalView, error) {
	switch sortBy {
	case "", repository.GoalSortRecent, repository.GoalSortProgress, repository.GoalSortTitle:
	default:
		return nil, ErrInvalidGoalSort
	}

	goals, err := s.repo.Goals(userID, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	views := make([]*model.GoalView, len(goals))
	for i, g := range goals {
		views[i] = model.NewGoalView(&g.Goal, g.Role)
	}
	return views, nil
}

// View returns a goal the user participates in.
func (s *GoalService) View(userID, goalID string) (*model.GoalView, error) {
	goal, err := s.repo.ForUser(userID, goalID)
	if err != nil {
		return nil, err
	}
	return model.NewGoalView(&goal.Goal, goal.Role), nil
}

func (s *GoalService) Detail(userID, goalID string) (*GoalDetail, error) {
	view, err := s.View(userID, goalID)
	if err != nil {
		return nil, err
	}

	participants, err := s.participants.Participants(goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	contributions, err := s.participants.Contributions(goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}

	recent, err := s.savings.Savings(repository.SavingFilter{GoalID: goalID, Limit: goalDetailSavings})
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}

	return &GoalDetail{
		GoalView:      view,
		Participants:  participants,
		Contributions: contributions,
		RecentSavings: recent,
	}, nil
}

// owned returns the goal when userID owns it.
func (s *GoalService) owned(userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ForUser(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Role != model.RoleOwner {
		return nil, ErrNotGoalOwner
	}
	return &goal.Goal, nil
}

// Update edits the goal and re-evaluates completion against the new target.
func (s *GoalService) Update(userID, goalID string, in GoalInput) (*model.GoalView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	goal, err := s.owned(userID, goalID)
	if err != nil {
		return nil, err
	}

	goal.Title = in.Title
	goal.Description = in.Description
	goal.TargetAmount = in.TargetAmount
	changed := goal.SyncCompletion(time.Now().UTC())

	err = s.repo.Update(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	if changed && goal.IsCompleted() {
		if _, err := s.achievements.Evaluate(userID, AchievementEvent{}); err != nil {
			slog.Error("failed to evaluate achievements", "error", err, "user_id", userID)
		}
	}

	return model.NewGoalView(goal, model.RoleOwner), nil
}

// Delete removes the goal; its savings and participants cascade.
func (s *GoalService) Delete(userID, goalID string) error {
	if _, err := s.owned(userID, goalID); err != nil {
		return err
	}

	err := s.repo.Delete(goalID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	slog.Info("goal deleted", "user_id", userID, "goal_id", goalID)
	return nil
}
