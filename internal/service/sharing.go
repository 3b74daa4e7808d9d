package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFriends        = errors.New("users are not friends")
	ErrCannotRemoveOwner = errors.New("the owner cannot leave their own goal")
	ErrCannotInviteSelf  = errors.New("cannot invite yourself")
)

// SharingService manages the participants of shared goals.
type SharingService struct {
	db           *sqlx.DB
	goals        repository.GoalRepository
	participants repository.ParticipantRepository
	friendships  repository.FriendshipRepository
	achievements *AchievementService
}

func NewSharingService(
	db *sqlx.DB,
	goals repository.GoalRepository,
	participants repository.ParticipantRepository,
	friendships repository.FriendshipRepository,
	achievements *AchievementService,
) *SharingService {
	return &SharingService{
		db:           db,
		goals:        goals,
		participants: participants,
		friendships:  friendships,
		achievements: achievements,
	}
}

func (s *SharingService) Participants(userID, goalID string) ([]*model.GoalParticipant, error) {
	if _, err := s.goals.ForUser(userID, goalID); err != nil {
		return nil, err
	}
	return s.participants.Participants(goalID)
}

// Invite adds an accepted friend of the owner as contributor and marks the
// goal shared.
func (s *SharingService) Invite(ownerID, goalID, friendID string) (*model.GoalParticipant, error) {
	goal, err := s.goals.ForUser(ownerID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Role != model.RoleOwner {
		return nil, ErrNotGoalOwner
	}
	if friendID == ownerID {
		return nil, ErrCannotInviteSelf
	}

	friendship, err := s.friendships.Between(ownerID, friendID)
	if errors.Is(err, repository.ErrFriendshipNotFound) {
		return nil, ErrNotFriends
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if friendship.Status != model.FriendshipAccepted {
		return nil, ErrNotFriends
	}

	participant := &model.GoalParticipant{
		GoalID:   goalID,
		UserID:   friendID,
		Role:     model.RoleContributor,
		JoinedAt: time.Now().UTC(),
	}

	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		if err := s.participants.WithTx(tx).Add(participant); err != nil {
			return err
		}
		if goal.IsShared {
			return nil
		}
		return s.goals.WithTx(tx).SetShared(goalID, true)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyParticipant) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	slog.Info("participant added", "goal_id", goalID, "owner_id", ownerID, "user_id", friendID)

	for _, id := range []string{ownerID, friendID} {
		if _, err := s.achievements.Evaluate(id, AchievementEvent{}); err != nil {
			slog.Error("failed to evaluate achievements", "error", err, "user_id", id)
		}
	}

	return participant, nil
}

// Remove takes userID off the goal. The owner may remove any contributor;
// a contributor may only remove themselves.
func (s *SharingService) Remove(actorID, goalID, userID string) error {
	goal, err := s.goals.ForUser(actorID, goalID)
	if err != nil {
		return err
	}

	switch {
	case goal.Role == model.RoleOwner && userID == actorID:
		return ErrCannotRemoveOwner
	case goal.Role != model.RoleOwner && userID != actorID:
		return ErrNotGoalOwner
	}

	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		participants := s.participants.WithTx(tx)
		if err := participants.Remove(goalID, userID); err != nil {
			return err
		}

		remaining, err := participants.CountContributors(goalID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return s.goals.WithTx(tx).SetShared(goalID, false)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotParticipant) {
			return err
		}
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	slog.Info("participant removed", "goal_id", goalID, "actor_id", actorID, "user_id", userID)
	return nil
}
