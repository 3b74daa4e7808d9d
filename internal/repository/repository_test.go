package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/testutil"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(username string) *model.User {
	now := time.Now().UTC()
	return &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func insertUser(t *testing.T, users repository.UserRepository, username string) *model.User {
	t.Helper()
	u := newUser(username)
	require.NoError(t, users.Create(u))
	return u
}

// -- Transact tests --

func TestTransact_RollbackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	goals := repository.NewGoalRepository(db)
	owner := insertUser(t, users, "anna")

	goal := newGoal(owner.ID, "Velo")
	boom := errors.New("boom")
	err := repository.Transact(db, func(tx *sqlx.Tx) error {
		require.NoError(t, goals.WithTx(tx).Create(goal))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = goals.ByID(goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestTransact_JoinsOuterTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	goals := repository.NewGoalRepository(db)
	owner := insertUser(t, users, "anna")

	goal := newGoal(owner.ID, "Velo")
	err := repository.Transact(db, func(tx *sqlx.Tx) error {
		// Create opens its own Transact, which must reuse tx.
		return goals.WithTx(tx).Create(goal)
	})
	require.NoError(t, err)

	got, err := goals.ForUser(owner.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, got.Role)
}

// -- User tests --

func TestUserRepository_Duplicates(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	insertUser(t, users, "anna")

	dupEmail := newUser("anna2")
	dupEmail.Email = "anna@example.com"
	assert.ErrorIs(t, users.Create(dupEmail), repository.ErrDuplicateEmail)

	dupName := newUser("anna")
	dupName.Email = "other@example.com"
	assert.ErrorIs(t, users.Create(dupName), repository.ErrDuplicateUsername)

	got, err := users.ByEmail("ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Username)

	_, err = users.ByID("missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

// -- Goal tests --

func newGoal(userID, title string) *model.Goal {
	now := time.Now().UTC()
	return &model.Goal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         title,
		TargetAmount:  decimal.NewFromInt(100),
		CurrentAmount: decimal.Zero,
		Status:        model.GoalStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestGoalRepository_Amounts(t *testing.T) {
	db := testutil.NewDB(t)
	owner := insertUser(t, repository.NewUserRepository(db), "anna")
	goals := repository.NewGoalRepository(db)

	goal := newGoal(owner.ID, "Velo")
	require.NoError(t, goals.Create(goal))

	require.NoError(t, goals.AddAmount(goal.ID, decimal.RequireFromString("12.5")))
	got, err := goals.ByID(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.CurrentAmount.String())

	// never below zero
	require.NoError(t, goals.SubtractAmount(goal.ID, decimal.NewFromInt(20)))
	got, err = goals.ByID(goal.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentAmount.IsZero())

	assert.ErrorIs(t, goals.AddAmount("missing", decimal.NewFromInt(1)), repository.ErrGoalNotFound)
}

func TestGoalRepository_CountByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	owner := insertUser(t, repository.NewUserRepository(db), "anna")
	goals := repository.NewGoalRepository(db)

	require.NoError(t, goals.Create(newGoal(owner.ID, "Velo")))
	done := newGoal(owner.ID, "Kopfhörer")
	done.Status = model.GoalStatusCompleted
	require.NoError(t, goals.Create(done))

	active, completed, err := goals.CountByStatus(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, completed)

	n, err := goals.CountActive(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// -- Friendship tests --

func TestFriendshipRepository_Between(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	anna := insertUser(t, users, "anna")
	ben := insertUser(t, users, "ben")
	friends := repository.NewFriendshipRepository(db)

	_, err := friends.Between(anna.ID, ben.ID)
	assert.ErrorIs(t, err, repository.ErrFriendshipNotFound)

	now := time.Now().UTC()
	f := &model.Friendship{
		ID:          uuid.NewString(),
		RequesterID: anna.ID,
		AddresseeID: ben.ID,
		Status:      model.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, friends.Create(f))

	again := *f
	again.ID = uuid.NewString()
	assert.ErrorIs(t, friends.Create(&again), repository.ErrFriendshipDuplicate)

	for _, pair := range [][2]string{{anna.ID, ben.ID}, {ben.ID, anna.ID}} {
		got, err := friends.Between(pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, f.ID, got.ID)
	}

	require.NoError(t, friends.UpdateStatus(f.ID, model.FriendshipAccepted))
	n, err := friends.CountAccepted(ben.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := friends.FriendIDs(anna.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ben.ID}, ids)

	assert.ErrorIs(t, friends.UpdateStatus("missing", model.FriendshipAccepted), repository.ErrFriendshipNotFound)
}

// -- Token tests --

func TestTokenRepository_ConsumeOnce(t *testing.T) {
	db := testutil.NewDB(t)
	user := insertUser(t, repository.NewUserRepository(db), "anna")
	tokens := repository.NewTokenRepository(db)

	require.NoError(t, tokens.Create(&model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     "reset-me",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))
	require.NoError(t, tokens.Create(&model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     "too-late",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))

	got, err := tokens.ConsumeToken("reset-me")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.True(t, got.IsUsed())

	_, err = tokens.ConsumeToken("reset-me")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)

	_, err = tokens.ConsumeToken("too-late")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}
