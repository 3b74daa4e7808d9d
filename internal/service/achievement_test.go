package service_test

import (
	"testing"
	"time"

	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Time-based achievement tests --

func TestAchievements_TimeOfDay(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want []string
		not  []string
	}{
		{"early morning", time.Date(2026, 3, 10, 7, 59, 0, 0, time.UTC), []string{"early-bird"}, []string{"night-owl", "weekend-saver"}},
		{"exactly ten", time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), nil, []string{"early-bird", "night-owl", "weekend-saver"}},
		{"late evening", time.Date(2026, 3, 10, 22, 1, 0, 0, time.UTC), []string{"night-owl"}, []string{"early-bird", "weekend-saver"}},
		{"saturday noon", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), []string{"weekend-saver"}, []string{"early-bird", "night-owl"}},
		{"weekday noon", tuesdayNoon, nil, []string{"early-bird", "night-owl", "weekend-saver"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t, tt.at)
			user := env.CreateUser(t, "anna")
			goal := createGoal(t, env, user.ID, "Ferien", 100)

			result, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(2.5)})
			require.NoError(t, err)

			ids := achievementIDs(result.NewAchievements)
			for _, id := range tt.want {
				assert.Contains(t, ids, id)
			}
			for _, id := range tt.not {
				assert.NotContains(t, ids, id)
			}
		})
	}
}

// -- Evaluation tests --

func TestAchievements_UnlockOnce(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 1000)

	first, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(25)})
	require.NoError(t, err)
	assert.Equal(t, []string{"first-saving"}, achievementIDs(first.NewAchievements))

	second, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(25)})
	require.NoError(t, err)
	assert.Equal(t, []string{"saved-50"}, achievementIDs(second.NewAchievements))

	again, err := env.AchievementService.Evaluate(user.ID, service.AchievementEvent{})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestAchievements_Progress(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 1000)

	_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(25)})
	require.NoError(t, err)

	progress, err := env.AchievementService.Progress(user.ID)
	require.NoError(t, err)

	byID := map[string]string{}
	for _, p := range progress {
		byID[p.ID] = p.Progress.String()
		if p.ID == "first-saving" {
			assert.True(t, p.Unlocked)
			assert.NotNil(t, p.UnlockedAt)
		}
	}
	assert.Equal(t, "100", byID["first-saving"])
	assert.Equal(t, "50", byID["saved-50"])
	assert.Equal(t, "10", byID["ten-savings"])
	assert.Equal(t, "0", byID["early-bird"])

	latest, err := env.AchievementService.Latest(user.ID, 3)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "first-saving", latest[0].ID)
}

// -- Dashboard tests --

func TestDashboard(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	open := createGoal(t, env, user.ID, "Ferien", 1000)
	done := createGoal(t, env, user.ID, "Kino", 20)

	for i := 0; i < 6; i++ {
		_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: open.ID, Amount: amount(2.5)})
		require.NoError(t, err)
		env.Clock.Advance(time.Minute)
	}
	_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: done.ID, Amount: amount(20)})
	require.NoError(t, err)

	dash, err := env.DashboardService.Dashboard(user.ID)
	require.NoError(t, err)

	assert.Equal(t, "35", dash.TotalSaved.String())
	assert.Equal(t, 1, dash.ActiveGoals)
	assert.Equal(t, 1, dash.CompletedGoals)
	assert.Equal(t, 1, dash.Streak.CurrentStreak)
	assert.Len(t, dash.RecentSavings, 5)
	assert.Equal(t, "Kino", dash.RecentSavings[0].GoalTitle)
	assert.LessOrEqual(t, len(dash.RecentAchievements), 3)
	assert.NotEmpty(t, dash.RecentAchievements)
}

func TestDashboard_Empty(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")

	dash, err := env.DashboardService.Dashboard(user.ID)
	require.NoError(t, err)
	assert.True(t, dash.TotalSaved.IsZero())
	assert.NotNil(t, dash.RecentSavings)
	assert.NotNil(t, dash.RecentAchievements)
	assert.Equal(t, 0, dash.Streak.CurrentStreak)
}
