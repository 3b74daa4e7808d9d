package service_test

import (
	"testing"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/testutil"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func achievementIDs(list []*model.Achievement) []string {
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}

// -- Create tests --

func TestSavingCreate_WithAmount(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 100)

	result, err := env.SavingService.Create(user.ID, service.SavingInput{
		GoalID: goal.ID,
		Amount: amount(12),
		Note:   "  Znüni eingepackt ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Znüni eingepackt", result.Saving.Note)
	assert.Equal(t, "12", result.Goal.CurrentAmount.String())
	assert.Equal(t, "88", result.Goal.RemainingAmount.String())
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	assert.True(t, result.Streak.ActiveToday)
	assert.Contains(t, achievementIDs(result.NewAchievements), "first-saving")
}

func TestSavingCreate_WithAction(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 100)

	coffee := "skip-coffee"
	result, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, ActionID: &coffee})
	require.NoError(t, err)
	assert.Equal(t, "4.5", result.Saving.Amount.String())

	// an explicit amount wins over the action default
	result, err = env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, ActionID: &coffee, Amount: amount(2.5)})
	require.NoError(t, err)
	assert.Equal(t, "2.5", result.Saving.Amount.String())
	assert.Equal(t, "7", result.Goal.CurrentAmount.String())
}

func TestSavingCreate_Validation(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 100)

	var fields validation.FieldErrors

	_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID})
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "amount")

	_, err = env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(0)})
	require.ErrorAs(t, err, &fields)

	_, err = env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(10000.5)})
	require.ErrorAs(t, err, &fields)

	unknown := "no-such-action"
	_, err = env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, ActionID: &unknown})
	assert.ErrorIs(t, err, repository.ErrActionNotFound)
}

func TestSavingCreate_ForeignGoal(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	_, err := env.SavingService.Create(ben.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(12)})
	assert.ErrorIs(t, err, repository.ErrGoalNotFound)
}

func TestSavingCreate_CompletesGoal(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Kino", 25)

	first, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(20)})
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, first.Goal.Status)

	second, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(20)})
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, second.Goal.Status)
	assert.Equal(t, "100", second.Goal.ProgressPercent.String())
	assert.True(t, second.Goal.RemainingAmount.IsZero())
	assert.Contains(t, achievementIDs(second.NewAchievements), "first-goal")
}

func TestSavingCreate_CentAmountsStayExact(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal, err := env.GoalService.Create(user.ID, service.GoalInput{
		Title:        "Kaugummi",
		TargetAmount: decimal.RequireFromString("0.80"),
	})
	require.NoError(t, err)

	_, err = env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(0.7)})
	require.NoError(t, err)
	last, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(0.1)})
	require.NoError(t, err)

	assert.Equal(t, model.GoalStatusCompleted, last.Goal.Status)
	assert.Equal(t, "0.8", last.Goal.CurrentAmount.String())
	assert.True(t, last.Goal.RemainingAmount.IsZero())
	assert.Contains(t, achievementIDs(last.NewAchievements), "first-goal")

	stats, err := env.SavingService.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.8", stats.TotalSaved.String())
	assert.Equal(t, "0.8", stats.Today.String())

	view, err := env.SavingService.Delete(user.ID, last.Saving.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.7", view.CurrentAmount.String())
	assert.Equal(t, model.GoalStatusActive, view.Status)
}

func TestSavingCreate_StreakAcrossDays(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 1000)

	var result *service.SavingResult
	for day := 0; day < 3; day++ {
		var err error
		result, err = env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(4.5)})
		require.NoError(t, err)
		env.Clock.Advance(24 * time.Hour)
	}

	assert.Equal(t, 3, result.Streak.CurrentStreak)
	assert.Equal(t, 3, result.Streak.LongestStreak)
	assert.Contains(t, achievementIDs(result.NewAchievements), "streak-3")

	// skipping a day breaks the streak when read
	env.Clock.Advance(24 * time.Hour)
	view, err := env.StreakService.Streak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentStreak)
	assert.Equal(t, 3, view.StoredStreak)
	assert.Equal(t, 3, view.LongestStreak)
}

func TestSavingCreate_SameDayKeepsStreak(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 1000)

	for i := 0; i < 3; i++ {
		_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(2.5)})
		require.NoError(t, err)
		env.Clock.Advance(time.Hour)
	}

	view, err := env.StreakService.Streak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentStreak)
}

// -- List tests --

func TestSavings_Pagination(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 1000)

	for i := 0; i < 5; i++ {
		_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(2.5)})
		require.NoError(t, err)
		env.Clock.Advance(time.Minute)
	}

	page, err := env.SavingService.Savings(user.ID, "", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Savings, 2)
	assert.True(t, page.Savings[0].CreatedAt.After(page.Savings[1].CreatedAt))
	assert.Equal(t, "Ferien", page.Savings[0].GoalTitle)

	last, err := env.SavingService.Savings(user.ID, goal.ID, 2, 4)
	require.NoError(t, err)
	assert.Len(t, last.Savings, 1)

	capped, err := env.SavingService.Savings(user.ID, "", 500, -3)
	require.NoError(t, err)
	assert.Equal(t, service.MaxSavingsLimit, capped.Limit)
	assert.Equal(t, 0, capped.Offset)
}

// -- Delete tests --

func TestSavingDelete_ReopensGoal(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Kino", 25)

	_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(20)})
	require.NoError(t, err)
	second, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(12)})
	require.NoError(t, err)
	require.Equal(t, model.GoalStatusCompleted, second.Goal.Status)

	view, err := env.SavingService.Delete(user.ID, second.Saving.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, view.Status)
	assert.Equal(t, "20", view.CurrentAmount.String())
	assert.Nil(t, view.CompletedAt)

	// streaks survive deletions
	streak, err := env.StreakService.Streak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
}

func TestSavingDelete_CompletesWithCalendarTime(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Kino", 25)

	_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(30)})
	require.NoError(t, err)
	extra, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(5)})
	require.NoError(t, err)

	// an active goal that is already over its target
	_, err = env.DB.Exec(env.DB.Rebind(`UPDATE goals SET status = ?, completed_at = NULL WHERE id = ?`),
		model.GoalStatusActive, goal.ID)
	require.NoError(t, err)

	env.Clock.Advance(3 * time.Hour)
	view, err := env.SavingService.Delete(user.ID, extra.Saving.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, view.Status)
	require.NotNil(t, view.CompletedAt)
	assert.True(t, env.Clock.Now().Equal(*view.CompletedAt))
}

func TestSavingDelete_OtherUser(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	goal := createGoal(t, env, anna.ID, "Ferien", 100)

	result, err := env.SavingService.Create(anna.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(12)})
	require.NoError(t, err)

	_, err = env.SavingService.Delete(ben.ID, result.Saving.ID)
	assert.ErrorIs(t, err, repository.ErrSavingNotFound)

	_, err = env.SavingService.Delete(anna.ID, "missing")
	assert.ErrorIs(t, err, repository.ErrSavingNotFound)
}

// -- Stats tests --

func TestSavingStats_Periods(t *testing.T) {
	// read on Tuesday 2026-03-10: the week starts Monday 03-09, the month on 03-01
	env := testutil.NewEnv(t, time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC))
	user := env.CreateUser(t, "anna")
	goal := createGoal(t, env, user.ID, "Ferien", 1000)
	coffee := "skip-coffee"

	log := func(at time.Time, v float64) {
		env.Clock.Set(at)
		_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(v)})
		require.NoError(t, err)
	}

	log(time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC), 25)  // last month
	log(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 20)   // this month, last week
	log(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), 12)   // this week
	log(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), 2.5) // today

	env.Clock.Set(tuesdayNoon)
	_, err := env.SavingService.Create(user.ID, service.SavingInput{GoalID: goal.ID, ActionID: &coffee})
	require.NoError(t, err)

	stats, err := env.SavingService.Stats(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, "64", stats.TotalSaved.String())
	assert.Equal(t, "7", stats.Today.String())
	assert.Equal(t, "19", stats.ThisWeek.String())
	assert.Equal(t, "39", stats.ThisMonth.String())
	require.Len(t, stats.TopActions, 1)
	assert.Equal(t, "skip-coffee", stats.TopActions[0].ActionID)
}
