package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	GoalSortRecent   = "recent"
	GoalSortProgress = "progress"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	WithTx(tx *sqlx.Tx) GoalRepository
	Create(goal *model.Goal) error
	ByID(goalID string) (*model.Goal, error)
	ForUser(userID, goalID string) (*model.UserGoal, error)
	Goals(userID, sortBy string) ([]*model.UserGoal, error)
	OwnedGoals(userID string) ([]*model.Goal, error)
	CountActive(userID string) (int, error)
	CountByStatus(userID string) (active int, completed int, err error)
	Update(goal *model.Goal) error
	AddAmount(goalID string, delta decimal.Decimal) error
	SubtractAmount(goalID string, delta decimal.Decimal) error
	SetShared(goalID string, shared bool) error
	Delete(goalID string) error
}

type goalRepository struct {
	db DBTX
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) WithTx(tx *sqlx.Tx) GoalRepository {
	return &goalRepository{db: tx}
}

// Create inserts the goal and its owner participant row.
func (r *goalRepository) Create(goal *model.Goal) error {
	return Transact(r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO goals (id, user_id, title, description, target_amount, current_amount, status, is_shared, completed_at, created_at, updated_at)
		          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		_, err := tx.Exec(query,
			goal.ID,
			goal.UserID,
			goal.Title,
			goal.Description,
			goal.TargetAmount,
			goal.CurrentAmount,
			goal.Status,
			goal.IsShared,
			goal.CompletedAt,
			goal.CreatedAt,
			goal.UpdatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(tx.Rebind(`INSERT INTO goal_participants (goal_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`),
			goal.ID, goal.UserID, model.RoleOwner, goal.CreatedAt)
		return err
	})
}

func (r *goalRepository) ByID(goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := r.db.Rebind(`SELECT * FROM goals WHERE id = ?`)

	err := r.db.Get(goal, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}

	return goal, err
}

const userGoalColumns = `g.id, g.user_id, g.title, g.description, g.target_amount, g.current_amount,
	g.status, g.is_shared, g.completed_at, g.created_at, g.updated_at, gp.role`

// ForUser returns the goal only when userID participates in it.
func (r *goalRepository) ForUser(userID, goalID string) (*model.UserGoal, error) {
	goal := &model.UserGoal{}
	query := r.db.Rebind(`SELECT ` + userGoalColumns + `
	          FROM goals g
	          JOIN goal_participants gp ON gp.goal_id = g.id
	          WHERE g.id = ? AND gp.user_id = ?`)

	err := r.db.Get(goal, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}

	return goal, err
}

func (r *goalRepository) Goals(userID, sortBy string) ([]*model.UserGoal, error) {
	var goals []*model.UserGoal

	var orderBy string
	switch sortBy {
	case GoalSortProgress:
		orderBy = "ORDER BY g.current_amount * 1.0 / g.target_amount DESC, g.updated_at DESC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(g.title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY g.updated_at DESC"
	}

	query := r.db.Rebind(`SELECT ` + userGoalColumns + `
	          FROM goals g
	          JOIN goal_participants gp ON gp.goal_id = g.id
	          WHERE gp.user_id = ? ` + orderBy)

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) OwnedGoals(userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := r.db.Rebind(`SELECT * FROM goals WHERE user_id = ? ORDER BY created_at ASC`)

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) CountActive(userID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM goals WHERE user_id = ? AND status = ?`)
	err := r.db.QueryRowx(query, userID, model.GoalStatusActive).Scan(&count)
	return count, err
}

// CountByStatus counts the goals userID participates in.
func (r *goalRepository) CountByStatus(userID string) (int, int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	query := r.db.Rebind(`SELECT g.status AS status, COUNT(*) AS count
	          FROM goals g
	          JOIN goal_participants gp ON gp.goal_id = g.id
	          WHERE gp.user_id = ?
	          GROUP BY g.status`)

	if err := r.db.Select(&rows, query, userID); err != nil {
		return 0, 0, err
	}

	var active, completed int
	for _, row := range rows {
		switch row.Status {
		case model.GoalStatusActive:
			active = row.Count
		case model.GoalStatusCompleted:
			completed = row.Count
		}
	}
	return active, completed, nil
}

func (r *goalRepository) Update(goal *model.Goal) error {
	goal.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE goals
	          SET title = ?, description = ?, target_amount = ?, status = ?, is_shared = ?, completed_at = ?, updated_at = ?
	          WHERE id = ?`)

	result, err := r.db.Exec(query,
		goal.Title,
		goal.Description,
		goal.TargetAmount,
		goal.Status,
		goal.IsShared,
		goal.CompletedAt,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrGoalNotFound)
}

// AddAmount increments current_amount in place so concurrent savings on a
// shared goal do not overwrite each other.
func (r *goalRepository) AddAmount(goalID string, delta decimal.Decimal) error {
	query := r.db.Rebind(`UPDATE goals SET current_amount = ROUND(current_amount + ?, 2), updated_at = ? WHERE id = ?`)

	result, err := r.db.Exec(query, delta, time.Now().UTC(), goalID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrGoalNotFound)
}

// SubtractAmount decrements current_amount, clamping at zero.
func (r *goalRepository) SubtractAmount(goalID string, delta decimal.Decimal) error {
	query := r.db.Rebind(`UPDATE goals
	          SET current_amount = CASE WHEN current_amount - ? < 0 THEN 0 ELSE ROUND(current_amount - ?, 2) END, updated_at = ?
	          WHERE id = ?`)

	result, err := r.db.Exec(query, delta, delta, time.Now().UTC(), goalID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrGoalNotFound)
}

func (r *goalRepository) SetShared(goalID string, shared bool) error {
	query := r.db.Rebind(`UPDATE goals SET is_shared = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.Exec(query, shared, time.Now().UTC(), goalID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrGoalNotFound)
}

func (r *goalRepository) Delete(goalID string) error {
	query := r.db.Rebind(`DELETE FROM goals WHERE id = ?`)
	result, err := r.db.Exec(query, goalID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrGoalNotFound)
}
