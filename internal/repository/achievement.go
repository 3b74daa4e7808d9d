package repository

import (
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type AchievementRepository interface {
	Catalogue() ([]*model.Achievement, error)
	Unlocked(userID string) ([]*model.UserAchievement, error)
	Latest(userID string, limit int) ([]*model.UnlockedAchievement, error)
	Unlock(userID, achievementID string, at time.Time) (bool, error)
	Stats(userID string) (model.UserStats, error)
}

type achievementRepository struct {
	db DBTX
}

func NewAchievementRepository(db *sqlx.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Catalogue() ([]*model.Achievement, error) {
	var achievements []*model.Achievement
	err := r.db.Select(&achievements, `SELECT * FROM achievements ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, err
	}

	return achievements, nil
}

func (r *achievementRepository) Unlocked(userID string) ([]*model.UserAchievement, error) {
	var unlocked []*model.UserAchievement
	query := r.db.Rebind(`SELECT * FROM user_achievements WHERE user_id = ?`)

	err := r.db.Select(&unlocked, query, userID)
	if err != nil {
		return nil, err
	}

	return unlocked, nil
}

func (r *achievementRepository) Latest(userID string, limit int) ([]*model.UnlockedAchievement, error) {
	var latest []*model.UnlockedAchievement
	query := r.db.Rebind(`SELECT a.*, ua.unlocked_at
	          FROM user_achievements ua
	          JOIN achievements a ON a.id = ua.achievement_id
	          WHERE ua.user_id = ?
	          ORDER BY ua.unlocked_at DESC
	          LIMIT ?`)

	err := r.db.Select(&latest, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return latest, nil
}

// Unlock records an achievement. Returns false when it was already unlocked.
func (r *achievementRepository) Unlock(userID, achievementID string, at time.Time) (bool, error) {
	query := r.db.Rebind(`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)`)

	_, err := r.db.Exec(query, userID, achievementID, at.UTC())
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Stats loads the figures threshold achievements compare against.
func (r *achievementRepository) Stats(userID string) (model.UserStats, error) {
	var stats model.UserStats

	var savings struct {
		Total decimal.NullDecimal `db:"total"`
		Count int                 `db:"count"`
	}
	err := r.db.Get(&savings, r.db.Rebind(`SELECT ROUND(SUM(amount), 2) AS total, COUNT(*) AS count FROM savings WHERE user_id = ?`), userID)
	if err != nil {
		return stats, err
	}
	stats.TotalSaved = savings.Total.Decimal
	stats.SavingsCount = savings.Count

	err = r.db.QueryRowx(r.db.Rebind(`SELECT COUNT(*) FROM goals g
	          JOIN goal_participants gp ON gp.goal_id = g.id
	          WHERE gp.user_id = ? AND g.status = ?`),
		userID, model.GoalStatusCompleted).Scan(&stats.GoalsCompleted)
	if err != nil {
		return stats, err
	}

	err = r.db.QueryRowx(r.db.Rebind(`SELECT COALESCE(MAX(longest_streak), 0) FROM streaks WHERE user_id = ?`),
		userID).Scan(&stats.LongestStreak)
	if err != nil {
		return stats, err
	}

	return stats, nil
}
