package repository

import (
	"database/sql"
	"errors"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrActionNotFound = errors.New("action not found")
)

type ActionRepository interface {
	Create(action *model.Action) error
	ByID(id string) (*model.Action, error)
	Actions(userID string) ([]*model.Action, error)
	CustomActions(userID string) ([]*model.Action, error)
	CountCustom(userID string) (int, error)
	Update(action *model.Action) error
	Delete(userID, id string) error
}

type actionRepository struct {
	db DBTX
}

func NewActionRepository(db *sqlx.DB) ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Create(action *model.Action) error {
	query := r.db.Rebind(`INSERT INTO actions (id, user_id, title, description, default_amount, category, is_custom, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query,
		action.ID,
		action.UserID,
		action.Title,
		action.Description,
		action.DefaultAmount,
		action.Category,
		action.IsCustom,
		action.CreatedAt,
	)

	return err
}

func (r *actionRepository) ByID(id string) (*model.Action, error) {
	action := &model.Action{}
	query := r.db.Rebind(`SELECT * FROM actions WHERE id = ?`)

	err := r.db.Get(action, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrActionNotFound
	}

	return action, err
}

// Actions returns the predefined catalogue followed by the user's own actions.
func (r *actionRepository) Actions(userID string) ([]*model.Action, error) {
	var actions []*model.Action
	query := r.db.Rebind(`SELECT * FROM actions
	          WHERE user_id IS NULL OR user_id = ?
	          ORDER BY is_custom ASC, category ASC, title ASC`)

	err := r.db.Select(&actions, query, userID)
	if err != nil {
		return nil, err
	}

	return actions, nil
}

func (r *actionRepository) CustomActions(userID string) ([]*model.Action, error) {
	var actions []*model.Action
	query := r.db.Rebind(`SELECT * FROM actions WHERE user_id = ? ORDER BY created_at ASC`)

	err := r.db.Select(&actions, query, userID)
	if err != nil {
		return nil, err
	}

	return actions, nil
}

func (r *actionRepository) CountCustom(userID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM actions WHERE user_id = ?`)
	err := r.db.QueryRowx(query, userID).Scan(&count)
	return count, err
}

func (r *actionRepository) Update(action *model.Action) error {
	query := r.db.Rebind(`UPDATE actions
	          SET title = ?, description = ?, default_amount = ?, category = ?
	          WHERE id = ? AND user_id = ?`)

	result, err := r.db.Exec(query,
		action.Title,
		action.Description,
		action.DefaultAmount,
		action.Category,
		action.ID,
		action.UserID,
	)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrActionNotFound)
}

func (r *actionRepository) Delete(userID, id string) error {
	query := r.db.Rebind(`DELETE FROM actions WHERE id = ? AND user_id = ?`)
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrActionNotFound)
}
