package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrSavingNotFound = errors.New("saving not found")
)

// SavingFilter narrows a savings listing. GoalID lists every participant's
// savings on that goal; otherwise only UserID's own savings are returned.
type SavingFilter struct {
	UserID string
	GoalID string
	Limit  int // 0 = no limit
	Offset int
}

type SavingRepository interface {
	WithTx(tx *sqlx.Tx) SavingRepository
	Create(saving *model.Saving) error
	ByID(id string) (*model.Saving, error)
	Delete(id string) error
	Savings(f SavingFilter) ([]*model.SavingDetail, error)
	Count(f SavingFilter) (int, error)
	SumSince(userID string, since time.Time) (decimal.Decimal, error)
	Totals(userID string) (decimal.Decimal, int, error)
	TopActions(userID string, limit int) ([]*model.ActionTotal, error)
	Leaderboard(userIDs []string, since time.Time) ([]*model.LeaderboardEntry, error)
}

type savingRepository struct {
	db DBTX
}

func NewSavingRepository(db *sqlx.DB) SavingRepository {
	return &savingRepository{db: db}
}

func (r *savingRepository) WithTx(tx *sqlx.Tx) SavingRepository {
	return &savingRepository{db: tx}
}

func (r *savingRepository) Create(saving *model.Saving) error {
	query := r.db.Rebind(`INSERT INTO savings (id, user_id, goal_id, action_id, amount, note, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query,
		saving.ID,
		saving.UserID,
		saving.GoalID,
		saving.ActionID,
		saving.Amount,
		saving.Note,
		saving.CreatedAt,
	)

	return err
}

func (r *savingRepository) ByID(id string) (*model.Saving, error) {
	saving := &model.Saving{}
	query := r.db.Rebind(`SELECT * FROM savings WHERE id = ?`)

	err := r.db.Get(saving, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSavingNotFound
	}

	return saving, err
}

func (r *savingRepository) Delete(id string) error {
	query := r.db.Rebind(`DELETE FROM savings WHERE id = ?`)
	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrSavingNotFound)
}

func savingFilterClause(f SavingFilter) (string, []interface{}) {
	if f.GoalID != "" {
		return ` WHERE s.goal_id = ?`, []interface{}{f.GoalID}
	}
	return ` WHERE s.user_id = ?`, []interface{}{f.UserID}
}

// Savings lists newest first.
func (r *savingRepository) Savings(f SavingFilter) ([]*model.SavingDetail, error) {
	var savings []*model.SavingDetail

	where, args := savingFilterClause(f)
	query := `SELECT s.id, s.user_id, s.goal_id, s.action_id, s.amount, s.note, s.created_at,
	              g.title AS goal_title, a.title AS action_title, u.username AS username
	          FROM savings s
	          JOIN goals g ON g.id = s.goal_id
	          JOIN users u ON u.id = s.user_id
	          LEFT JOIN actions a ON a.id = s.action_id` + where + `
	          ORDER BY s.created_at DESC, s.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	err := r.db.Select(&savings, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return savings, nil
}

func (r *savingRepository) Count(f SavingFilter) (int, error) {
	var count int
	where, args := savingFilterClause(f)
	query := r.db.Rebind(`SELECT COUNT(*) FROM savings s` + where)
	err := r.db.QueryRowx(query, args...).Scan(&count)
	return count, err
}

// SumSince totals the user's savings created at or after since.
func (r *savingRepository) SumSince(userID string, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := r.db.Rebind(`SELECT COALESCE(ROUND(SUM(amount), 2), 0) FROM savings WHERE user_id = ? AND created_at >= ?`)
	err := r.db.QueryRowx(query, userID, since.UTC()).Scan(&total)
	return total, err
}

func (r *savingRepository) Totals(userID string) (decimal.Decimal, int, error) {
	var row struct {
		Total decimal.Decimal `db:"total"`
		Count int             `db:"count"`
	}
	query := r.db.Rebind(`SELECT COALESCE(ROUND(SUM(amount), 2), 0) AS total, COUNT(*) AS count FROM savings WHERE user_id = ?`)
	err := r.db.Get(&row, query, userID)
	return row.Total, row.Count, err
}

func (r *savingRepository) TopActions(userID string, limit int) ([]*model.ActionTotal, error) {
	var totals []*model.ActionTotal
	query := r.db.Rebind(`SELECT a.id AS action_id, a.title AS title, ROUND(SUM(s.amount), 2) AS total, COUNT(*) AS count
	          FROM savings s
	          JOIN actions a ON a.id = s.action_id
	          WHERE s.user_id = ?
	          GROUP BY a.id, a.title
	          ORDER BY total DESC
	          LIMIT ?`)

	err := r.db.Select(&totals, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return totals, nil
}

// Leaderboard sums savings since the given instant for each user id,
// including users with nothing saved in the period.
func (r *savingRepository) Leaderboard(userIDs []string, since time.Time) ([]*model.LeaderboardEntry, error) {
	var entries []*model.LeaderboardEntry
	if len(userIDs) == 0 {
		return entries, nil
	}

	query, args, err := sqlx.In(`SELECT u.id AS user_id, u.username AS username,
	              COALESCE(ROUND(SUM(s.amount), 2), 0) AS total,
	              COALESCE(MAX(st.current_streak), 0) AS current_streak,
	              MAX(st.last_saving_date) AS last_saving_date
	          FROM users u
	          LEFT JOIN savings s ON s.user_id = u.id AND s.created_at >= ?
	          LEFT JOIN streaks st ON st.user_id = u.id
	          WHERE u.id IN (?)
	          GROUP BY u.id, u.username`, since.UTC(), userIDs)
	if err != nil {
		return nil, err
	}

	err = r.db.Select(&entries, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
