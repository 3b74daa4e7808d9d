package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrActionLimitReached = errors.New("custom action limit reached")
	ErrActionReadOnly     = errors.New("predefined actions cannot be changed")
)

type ActionInput struct {
	Title         string          `json:"title" validate:"required,max=100"`
	Description   string          `json:"description" validate:"max=255"`
	DefaultAmount decimal.Decimal `json:"default_amount" validate:"money=10000"`
	Category      string          `json:"category" validate:"omitempty,oneof=food transport shopping leisure subscriptions other"`
}

func (in *ActionInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Category == "" {
		in.Category = model.ActionCategoryOther
	}
}

type ActionService struct {
	repo             repository.ActionRepository
	maxCustomActions int
}

func NewActionService(repo repository.ActionRepository, maxCustomActions int) *ActionService {
	return &ActionService{
		repo:             repo,
		maxCustomActions: maxCustomActions,
	}
}

// Actions returns the predefined actions and the user's own.
func (s *ActionService) Actions(userID string) ([]*model.Action, error) {
	return s.repo.Actions(userID)
}

// Usable returns the action if userID may log savings with it.
func (s *ActionService) Usable(userID, actionID string) (*model.Action, error) {
	action, err := s.repo.ByID(actionID)
	if err != nil {
		return nil, err
	}
	if !action.IsPredefined() && !action.OwnedBy(userID) {
		return nil, repository.ErrActionNotFound
	}
	return action, nil
}

func (s *ActionService) Create(userID string, in ActionInput) (*model.Action, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	count, err := s.repo.CountCustom(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	if count >= s.maxCustomActions {
		return nil, ErrActionLimitReached
	}

	action := &model.Action{
		ID:            uuid.New().String(),
		UserID:        &userID,
		Title:         in.Title,
		Description:   in.Description,
		DefaultAmount: in.DefaultAmount,
		Category:      in.Category,
		IsCustom:      true,
		CreatedAt:     time.Now().UTC(),
	}

	err = s.repo.Create(action)
	if err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}

	return action, nil
}

// editable loads an action the user may modify.
func (s *ActionService) editable(userID, actionID string) (*model.Action, error) {
	action, err := s.repo.ByID(actionID)
	if err != nil {
		return nil, err
	}
	if action.IsPredefined() {
		return nil, ErrActionReadOnly
	}
	if !action.OwnedBy(userID) {
		return nil, repository.ErrActionNotFound
	}
	return action, nil
}

func (s *ActionService) Update(userID, actionID string, in ActionInput) (*model.Action, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	action, err := s.editable(userID, actionID)
	if err != nil {
		return nil, err
	}

	action.Title = in.Title
	action.Description = in.Description
	action.DefaultAmount = in.DefaultAmount
	action.Category = in.Category

	err = s.repo.Update(action)
	if err != nil {
		return nil, fmt.Errorf("failed to update action: %w", err)
	}

	return action, nil
}

// Delete removes a custom action. Savings that used it keep their amount
// and lose the action reference.
func (s *ActionService) Delete(userID, actionID string) error {
	if _, err := s.editable(userID, actionID); err != nil {
		return err
	}

	return s.repo.Delete(userID, actionID)
}
