package service_test

import (
	"testing"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Request tests --

func TestSendRequest_Pending(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")

	req, err := env.FriendService.SendRequest(t.Context(), anna.ID, " ben ")
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, req.Status)
	assert.Equal(t, ben.ID, req.AddresseeID)

	_, err = env.FriendService.SendRequest(t.Context(), anna.ID, "ben")
	assert.ErrorIs(t, err, service.ErrRequestPending)

	annaRequests, err := env.FriendService.Requests(anna.ID)
	require.NoError(t, err)
	assert.Empty(t, annaRequests.Incoming)
	require.Len(t, annaRequests.Outgoing, 1)
	assert.Equal(t, "ben", annaRequests.Outgoing[0].Username)

	benRequests, err := env.FriendService.Requests(ben.ID)
	require.NoError(t, err)
	require.Len(t, benRequests.Incoming, 1)
	assert.Equal(t, "anna", benRequests.Incoming[0].Username)
}

func TestSendRequest_Errors(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")

	_, err := env.FriendService.SendRequest(t.Context(), anna.ID, "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = env.FriendService.SendRequest(t.Context(), anna.ID, "anna")
	assert.ErrorIs(t, err, service.ErrCannotBefriendSelf)

	env.Befriend(t, anna, ben)
	_, err = env.FriendService.SendRequest(t.Context(), ben.ID, "anna")
	assert.ErrorIs(t, err, service.ErrAlreadyFriends)
}

func TestSendRequest_ReversePendingIsAccepted(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")

	_, err := env.FriendService.SendRequest(t.Context(), anna.ID, "ben")
	require.NoError(t, err)

	f, err := env.FriendService.SendRequest(t.Context(), ben.ID, "anna")
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, f.Status)
	assert.Equal(t, anna.ID, f.RequesterID)

	friends, err := env.FriendService.Friends(ben.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "anna", friends[0].Username)
}

func TestSendRequest_AfterDecline(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")

	req, err := env.FriendService.SendRequest(t.Context(), anna.ID, "ben")
	require.NoError(t, err)
	require.NoError(t, env.FriendService.Decline(ben.ID, req.ID))

	again, err := env.FriendService.SendRequest(t.Context(), anna.ID, "ben")
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)
	assert.Equal(t, model.FriendshipPending, again.Status)
}

// -- Answer tests --

func TestAccept_OnlyAddressee(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	carla := env.CreateUser(t, "carla")

	req, err := env.FriendService.SendRequest(t.Context(), anna.ID, "ben")
	require.NoError(t, err)

	_, err = env.FriendService.Accept(anna.ID, req.ID)
	assert.ErrorIs(t, err, service.ErrNotAddressee)

	_, err = env.FriendService.Accept(carla.ID, req.ID)
	assert.ErrorIs(t, err, repository.ErrFriendshipNotFound)

	accepted, err := env.FriendService.Accept(ben.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, accepted.Status)

	_, err = env.FriendService.Accept(ben.ID, req.ID)
	assert.ErrorIs(t, err, service.ErrRequestNotPending)
	assert.ErrorIs(t, env.FriendService.Decline(ben.ID, req.ID), service.ErrRequestNotPending)

	progress, err := env.AchievementService.Progress(anna.ID)
	require.NoError(t, err)
	assert.True(t, unlocked(progress, "first-friend"))
}

// -- Remove tests --

func TestRemoveFriend_UnsharesGoals(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	env.Befriend(t, anna, ben)

	annaGoal := createGoal(t, env, anna.ID, "Ferien", 100)
	benGoal := createGoal(t, env, ben.ID, "Konzert", 100)
	_, err := env.SharingService.Invite(anna.ID, annaGoal.ID, ben.ID)
	require.NoError(t, err)
	_, err = env.SharingService.Invite(ben.ID, benGoal.ID, anna.ID)
	require.NoError(t, err)

	require.NoError(t, env.FriendService.Remove(anna.ID, ben.ID))

	friends, err := env.FriendService.Friends(anna.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	for _, g := range []struct{ owner, other, goal string }{
		{anna.ID, ben.ID, annaGoal.ID},
		{ben.ID, anna.ID, benGoal.ID},
	} {
		view, err := env.GoalService.View(g.owner, g.goal)
		require.NoError(t, err)
		assert.False(t, view.IsShared)

		_, err = env.GoalService.View(g.other, g.goal)
		assert.ErrorIs(t, err, repository.ErrGoalNotFound)
	}

	assert.ErrorIs(t, env.FriendService.Remove(anna.ID, ben.ID), repository.ErrFriendshipNotFound)
}

// -- Leaderboard tests --

func TestLeaderboard_Ranking(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	carla := env.CreateUser(t, "carla")
	dora := env.CreateUser(t, "dora")
	stranger := env.CreateUser(t, "stranger")
	for _, friend := range []*model.User{ben, carla, dora} {
		env.Befriend(t, anna, friend)
	}

	save := func(user *model.User, v float64) {
		goal := createGoal(t, env, user.ID, "Topf", 1000)
		_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(v)})
		require.NoError(t, err)
	}

	// an older saving only counts for the all-time board
	env.Clock.Set(tuesdayNoon.AddDate(0, -1, 0))
	save(dora, 25)
	env.Clock.Set(tuesdayNoon)

	save(carla, 25)
	save(ben, 20)
	save(anna, 20)
	save(stranger, 25)

	board, err := env.FriendService.Leaderboard(anna.ID, "week")
	require.NoError(t, err)
	require.Len(t, board, 4)

	names := make([]string, len(board))
	for i, e := range board {
		names[i] = e.Username
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, []string{"carla", "anna", "ben", "dora"}, names)
	assert.True(t, board[1].IsSelf)
	assert.Equal(t, 1, board[1].CurrentStreak)
	assert.Equal(t, 0, board[3].CurrentStreak)

	allTime, err := env.FriendService.Leaderboard(anna.ID, "all")
	require.NoError(t, err)
	assert.Equal(t, "carla", allTime[0].Username)
	assert.Equal(t, "dora", allTime[1].Username)

	_, err = env.FriendService.Leaderboard(anna.ID, "year")
	assert.ErrorIs(t, err, service.ErrInvalidPeriod)
}

func TestLeaderboard_NoFriends(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon.Add(-48*time.Hour))
	anna := env.CreateUser(t, "anna")

	board, err := env.FriendService.Leaderboard(anna.ID, "month")
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.True(t, board[0].IsSelf)
	assert.True(t, board[0].Total.IsZero())
}
