package service_test

import (
	"testing"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Invite tests --

func TestInvite_RequiresFriendship(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	_, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	assert.ErrorIs(t, err, service.ErrNotFriends)

	// a pending request is not enough
	_, err = env.FriendService.SendRequest(t.Context(), anna.ID, "ben")
	require.NoError(t, err)
	_, err = env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	assert.ErrorIs(t, err, service.ErrNotFriends)

	_, err = env.SharingService.Invite(anna.ID, goal.ID, anna.ID)
	assert.ErrorIs(t, err, service.ErrCannotInviteSelf)
}

func TestInvite_SharesGoal(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	env.Befriend(t, anna, ben)
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	participant, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleContributor, participant.Role)

	view, err := env.GoalService.View(ben.ID, goal.ID)
	require.NoError(t, err)
	assert.True(t, view.IsShared)
	assert.Equal(t, model.RoleContributor, view.Role)

	_, err = env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyParticipant)

	progress, err := env.AchievementService.Progress(ben.ID)
	require.NoError(t, err)
	assert.True(t, unlocked(progress, "team-player"))
}

func TestInvite_OwnerOnly(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	carla := env.CreateUser(t, "carla")
	env.Befriend(t, anna, ben)
	env.Befriend(t, ben, carla)
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	_, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	require.NoError(t, err)

	_, err = env.SharingService.Invite(ben.ID, goal.ID, carla.ID)
	assert.ErrorIs(t, err, service.ErrNotGoalOwner)

	_, err = env.SharingService.Invite(carla.ID, goal.ID, ben.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

// -- Contributions tests --

func TestSharedGoal_ContributorSavings(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	env.Befriend(t, anna, ben)
	goal := createGoal(t, env, anna.ID, "Ferien", 30)

	_, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	require.NoError(t, err)

	_, err = env.SavingService.Create(anna.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(12)})
	require.NoError(t, err)
	result, err := env.SavingService.Create(ben.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(20)})
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, result.Goal.Status)
	assert.Equal(t, model.RoleContributor, result.Goal.Role)

	detail, err := env.GoalService.Detail(anna.ID, goal.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Participants, 2)
	assert.Len(t, detail.Contributions, 2)

	// the owner is credited with the completed goal
	progress, err := env.AchievementService.Progress(anna.ID)
	require.NoError(t, err)
	assert.True(t, unlocked(progress, "first-goal"))
}

func TestSharedGoal_CompletionCountsForEveryParticipant(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	cara := env.CreateUser(t, "cara")
	env.Befriend(t, anna, ben)
	env.Befriend(t, anna, cara)
	goal := createGoal(t, env, anna.ID, "Ferien", 30)

	_, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	require.NoError(t, err)
	_, err = env.SharingService.Invite(anna.ID, goal.ID, cara.ID)
	require.NoError(t, err)

	result, err := env.SavingService.Create(cara.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(30)})
	require.NoError(t, err)
	require.Equal(t, model.GoalStatusCompleted, result.Goal.Status)
	assert.Contains(t, achievementIDs(result.NewAchievements), "first-goal")

	for _, user := range []*model.User{anna, ben} {
		progress, err := env.AchievementService.Progress(user.ID)
		require.NoError(t, err)
		assert.True(t, unlocked(progress, "first-goal"), user.Username)
	}
}

// -- Remove tests --

func TestRemoveParticipant_ContributorLeaves(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	env.Befriend(t, anna, ben)
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	_, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.SharingService.Remove(ben.ID, goal.ID, anna.ID), service.ErrNotGoalOwner)
	assert.ErrorIs(t, env.SharingService.Remove(anna.ID, goal.ID, anna.ID), service.ErrCannotRemoveOwner)

	require.NoError(t, env.SharingService.Remove(ben.ID, goal.ID, ben.ID))

	view, err := env.GoalService.View(anna.ID, goal.ID)
	require.NoError(t, err)
	assert.False(t, view.IsShared)

	_, err = env.GoalService.View(ben.ID, goal.ID)
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestRemoveParticipant_OwnerRemovesContributor(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	carla := env.CreateUser(t, "carla")
	env.Befriend(t, anna, ben)
	env.Befriend(t, anna, carla)
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	_, err := env.SharingService.Invite(anna.ID, goal.ID, ben.ID)
	require.NoError(t, err)
	_, err = env.SharingService.Invite(anna.ID, goal.ID, carla.ID)
	require.NoError(t, err)

	require.NoError(t, env.SharingService.Remove(anna.ID, goal.ID, ben.ID))

	view, err := env.GoalService.View(anna.ID, goal.ID)
	require.NoError(t, err)
	assert.True(t, view.IsShared, "carla still contributes")

	assert.ErrorIs(t, env.SharingService.Remove(anna.ID, goal.ID, ben.ID), repository.ErrNotParticipant)
}

func unlocked(progress []*model.AchievementProgress, id string) bool {
	for _, p := range progress {
		if p.ID == id {
			return p.Unlocked
		}
	}
	return false
}
