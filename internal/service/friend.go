package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrCannotBefriendSelf = errors.New("you cannot add yourself as a friend")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrRequestPending     = errors.New("friend request already pending")
	ErrNotAddressee       = errors.New("only the recipient can answer this request")
	ErrRequestNotPending  = errors.New("friend request is no longer pending")
)

type FriendRequests struct {
	Incoming []*model.FriendRequest `json:"incoming"`
	Outgoing []*model.FriendRequest `json:"outgoing"`
}

type FriendService struct {
	db           *sqlx.DB
	users        repository.UserRepository
	friendships  repository.FriendshipRepository
	participants repository.ParticipantRepository
	goals        repository.GoalRepository
	savings      repository.SavingRepository
	achievements *AchievementService
	emailService *EmailService
	calendar     *Calendar
}

func NewFriendService(
	db *sqlx.DB,
	users repository.UserRepository,
	friendships repository.FriendshipRepository,
	participants repository.ParticipantRepository,
	goals repository.GoalRepository,
	savings repository.SavingRepository,
	achievements *AchievementService,
	emailService *EmailService,
	calendar *Calendar,
) *FriendService {
	return &FriendService{
		db:           db,
		users:        users,
		friendships:  friendships,
		participants: participants,
		goals:        goals,
		savings:      savings,
		achievements: achievements,
		emailService: emailService,
		calendar:     calendar,
	}
}

// Friends lists accepted friends with the streak they have today.
func (s *FriendService) Friends(userID string) ([]*model.Friend, error) {
	friends, err := s.friendships.Friends(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	today := s.calendar.Today()
	for _, f := range friends {
		streak := model.Streak{CurrentStreak: f.CurrentStreak, LastSavingDate: f.LastSavingDate}
		f.CurrentStreak = streak.Effective(today)
	}
	if friends == nil {
		friends = []*model.Friend{}
	}
	return friends, nil
}

func (s *FriendService) Requests(userID string) (*FriendRequests, error) {
	incoming, err := s.friendships.Incoming(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}

	outgoing, err := s.friendships.Outgoing(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing requests: %w", err)
	}

	if incoming == nil {
		incoming = []*model.FriendRequest{}
	}
	if outgoing == nil {
		outgoing = []*model.FriendRequest{}
	}
	return &FriendRequests{Incoming: incoming, Outgoing: outgoing}, nil
}

// SendRequest asks username to become a friend. A pending request from the
// other side is accepted instead; a declined one is replaced.
func (s *FriendService) SendRequest(ctx context.Context, userID, username string) (*model.Friendship, error) {
	target, err := s.users.ByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if target.ID == userID {
		return nil, ErrCannotBefriendSelf
	}

	existing, err := s.friendships.Between(userID, target.ID)
	if err != nil && !errors.Is(err, repository.ErrFriendshipNotFound) {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}

	if existing != nil {
		switch existing.Status {
		case model.FriendshipAccepted:
			return nil, ErrAlreadyFriends
		case model.FriendshipPending:
			if existing.RequesterID == userID {
				return nil, ErrRequestPending
			}
			return s.accept(existing)
		}
	}

	now := time.Now().UTC()
	friendship := &model.Friendship{
		ID:          uuid.New().String(),
		RequesterID: userID,
		AddresseeID: target.ID,
		Status:      model.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		repo := s.friendships.WithTx(tx)
		if existing != nil {
			if err := repo.Delete(existing.ID); err != nil {
				return err
			}
		}
		return repo.Create(friendship)
	})
	if err != nil {
		if errors.Is(err, repository.ErrFriendshipDuplicate) {
			return nil, ErrRequestPending
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	slog.Info("friend request sent", "user_id", userID, "addressee_id", target.ID)

	requester, err := s.users.ByID(userID)
	if err == nil {
		err = s.emailService.SendFriendRequestEmail(ctx, target.Email, target.DisplayName(), requester.Username)
	}
	if err != nil {
		slog.Warn("failed to send friend request email", "error", err, "user_id", userID)
	}

	return friendship, nil
}

// pending loads a request userID may answer.
func (s *FriendService) pending(userID, requestID string) (*model.Friendship, error) {
	f, err := s.friendships.ByID(requestID)
	if err != nil {
		return nil, err
	}
	if f.AddresseeID != userID {
		if f.RequesterID == userID {
			return nil, ErrNotAddressee
		}
		return nil, repository.ErrFriendshipNotFound
	}
	if f.Status != model.FriendshipPending {
		return nil, ErrRequestNotPending
	}
	return f, nil
}

func (s *FriendService) Accept(userID, requestID string) (*model.Friendship, error) {
	f, err := s.pending(userID, requestID)
	if err != nil {
		return nil, err
	}
	return s.accept(f)
}

func (s *FriendService) accept(f *model.Friendship) (*model.Friendship, error) {
	err := s.friendships.UpdateStatus(f.ID, model.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}
	f.Status = model.FriendshipAccepted
	f.UpdatedAt = time.Now().UTC()

	slog.Info("friend request accepted", "requester_id", f.RequesterID, "addressee_id", f.AddresseeID)

	for _, id := range []string{f.RequesterID, f.AddresseeID} {
		if _, err := s.achievements.Evaluate(id, AchievementEvent{}); err != nil {
			slog.Error("failed to evaluate achievements", "error", err, "user_id", id)
		}
	}

	return f, nil
}

func (s *FriendService) Decline(userID, requestID string) error {
	f, err := s.pending(userID, requestID)
	if err != nil {
		return err
	}

	err = s.friendships.UpdateStatus(f.ID, model.FriendshipDeclined)
	if err != nil {
		return fmt.Errorf("failed to decline friend request: %w", err)
	}

	slog.Info("friend request declined", "requester_id", f.RequesterID, "addressee_id", f.AddresseeID)
	return nil
}

// Remove ends the friendship and takes both users off each other's goals.
// Goals left without contributors are no longer shared.
func (s *FriendService) Remove(userID, friendID string) error {
	f, err := s.friendships.Between(userID, friendID)
	if err != nil {
		return err
	}
	if f.Status != model.FriendshipAccepted {
		return repository.ErrFriendshipNotFound
	}

	err = repository.Transact(s.db, func(tx *sqlx.Tx) error {
		if err := s.friendships.WithTx(tx).Delete(f.ID); err != nil {
			return err
		}

		participants := s.participants.WithTx(tx)
		goalIDs, err := participants.RemoveBetween(userID, friendID)
		if err != nil {
			return err
		}

		goals := s.goals.WithTx(tx)
		for _, goalID := range goalIDs {
			n, err := participants.CountContributors(goalID)
			if err != nil {
				return err
			}
			if n == 0 {
				if err := goals.SetShared(goalID, false); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}

	slog.Info("friend removed", "user_id", userID, "friend_id", friendID)
	return nil
}

// Leaderboard ranks the user and their friends by the amount saved in the
// period. Ties are broken by the current streak, then by username.
func (s *FriendService) Leaderboard(userID, period string) ([]*model.LeaderboardEntry, error) {
	since, err := s.calendar.PeriodStart(period)
	if err != nil {
		return nil, err
	}

	ids, err := s.friendships.FriendIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	ids = append(ids, userID)

	entries, err := s.savings.Leaderboard(ids, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	today := s.calendar.Today()
	for _, e := range entries {
		streak := model.Streak{CurrentStreak: e.CurrentStreak, LastSavingDate: e.LastSaving}
		e.CurrentStreak = streak.Effective(today)
		e.IsSelf = e.UserID == userID
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		return strings.ToLower(a.Username) < strings.ToLower(b.Username)
	})

	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries, nil
}
