package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrStreakNotFound = errors.New("streak not found")
)

type StreakRepository interface {
	WithTx(tx *sqlx.Tx) StreakRepository
	ByUserID(userID string) (*model.Streak, error)
	Save(streak *model.Streak) error
}

type streakRepository struct {
	db DBTX
}

func NewStreakRepository(db *sqlx.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) WithTx(tx *sqlx.Tx) StreakRepository {
	return &streakRepository{db: tx}
}

func (r *streakRepository) ByUserID(userID string) (*model.Streak, error) {
	streak := &model.Streak{}
	query := r.db.Rebind(`SELECT * FROM streaks WHERE user_id = ?`)

	err := r.db.Get(streak, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrStreakNotFound
	}

	return streak, err
}

// Save writes the user's single streak row, creating it on first use.
func (r *streakRepository) Save(streak *model.Streak) error {
	streak.UpdatedAt = time.Now().UTC()

	return Transact(r.db, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.QueryRowx(tx.Rebind(`SELECT COUNT(*) FROM streaks WHERE user_id = ?`), streak.UserID).Scan(&exists)
		if err != nil {
			return err
		}

		if exists == 0 {
			_, err = tx.Exec(tx.Rebind(`INSERT INTO streaks (user_id, current_streak, longest_streak, last_saving_date, updated_at)
			          VALUES (?, ?, ?, ?, ?)`),
				streak.UserID, streak.CurrentStreak, streak.LongestStreak, streak.LastSavingDate, streak.UpdatedAt)
			return err
		}

		_, err = tx.Exec(tx.Rebind(`UPDATE streaks
		          SET current_streak = ?, longest_streak = ?, last_saving_date = ?, updated_at = ?
		          WHERE user_id = ?`),
			streak.CurrentStreak, streak.LongestStreak, streak.LastSavingDate, streak.UpdatedAt, streak.UserID)
		return err
	})
}
