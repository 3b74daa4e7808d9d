package repository

import (
	"database/sql"
	"errors"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotParticipant     = errors.New("user does not participate in goal")
	ErrAlreadyParticipant = errors.New("user already participates in goal")
)

type ParticipantRepository interface {
	WithTx(tx *sqlx.Tx) ParticipantRepository
	Add(p *model.GoalParticipant) error
	Remove(goalID, userID string) error
	Role(goalID, userID string) (string, error)
	Participants(goalID string) ([]*model.GoalParticipant, error)
	CountContributors(goalID string) (int, error)
	Contributions(goalID string) ([]*model.Contribution, error)
	CountSharedParticipations(userID string) (int, error)
	RemoveBetween(userA, userB string) ([]string, error)
}

type participantRepository struct {
	db DBTX
}

func NewParticipantRepository(db *sqlx.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) WithTx(tx *sqlx.Tx) ParticipantRepository {
	return &participantRepository{db: tx}
}

func (r *participantRepository) Add(p *model.GoalParticipant) error {
	query := r.db.Rebind(`INSERT INTO goal_participants (goal_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`)

	_, err := r.db.Exec(query, p.GoalID, p.UserID, p.Role, p.JoinedAt)
	if isDuplicate(err) {
		return ErrAlreadyParticipant
	}
	return err
}

func (r *participantRepository) Remove(goalID, userID string) error {
	query := r.db.Rebind(`DELETE FROM goal_participants WHERE goal_id = ? AND user_id = ?`)

	result, err := r.db.Exec(query, goalID, userID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrNotParticipant)
}

func (r *participantRepository) Role(goalID, userID string) (string, error) {
	var role string
	query := r.db.Rebind(`SELECT role FROM goal_participants WHERE goal_id = ? AND user_id = ?`)

	err := r.db.QueryRowx(query, goalID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", ErrNotParticipant
	}

	return role, err
}

func (r *participantRepository) Participants(goalID string) ([]*model.GoalParticipant, error) {
	var participants []*model.GoalParticipant
	query := r.db.Rebind(`SELECT gp.goal_id, gp.user_id, gp.role, gp.joined_at, u.username, u.first_name, u.last_name
	          FROM goal_participants gp
	          JOIN users u ON u.id = gp.user_id
	          WHERE gp.goal_id = ?
	          ORDER BY gp.role DESC, gp.joined_at ASC`)

	err := r.db.Select(&participants, query, goalID)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *participantRepository) CountContributors(goalID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM goal_participants WHERE goal_id = ? AND role = ?`)
	err := r.db.QueryRowx(query, goalID, model.RoleContributor).Scan(&count)
	return count, err
}

// Contributions sums every participant's savings on a goal, including
// participants who have not saved anything yet.
func (r *participantRepository) Contributions(goalID string) ([]*model.Contribution, error) {
	var contributions []*model.Contribution
	query := r.db.Rebind(`SELECT gp.user_id AS user_id, u.username AS username,
	              COALESCE(ROUND(SUM(s.amount), 2), 0) AS total, COUNT(s.id) AS count
	          FROM goal_participants gp
	          JOIN users u ON u.id = gp.user_id
	          LEFT JOIN savings s ON s.goal_id = gp.goal_id AND s.user_id = gp.user_id
	          WHERE gp.goal_id = ?
	          GROUP BY gp.user_id, u.username
	          ORDER BY total DESC`)

	err := r.db.Select(&contributions, query, goalID)
	if err != nil {
		return nil, err
	}

	return contributions, nil
}

// CountSharedParticipations counts shared goals userID owns or contributes to.
func (r *participantRepository) CountSharedParticipations(userID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM goal_participants gp
	          JOIN goals g ON g.id = gp.goal_id
	          WHERE gp.user_id = ? AND g.is_shared = ?`)
	err := r.db.QueryRowx(query, userID, true).Scan(&count)
	return count, err
}

// RemoveBetween drops each user's contributor rows on the other's goals and
// returns the affected goal ids.
func (r *participantRepository) RemoveBetween(userA, userB string) ([]string, error) {
	var goalIDs []string
	query := r.db.Rebind(`SELECT gp.goal_id FROM goal_participants gp
	          JOIN goals g ON g.id = gp.goal_id
	          WHERE gp.role = ?
	          AND ((gp.user_id = ? AND g.user_id = ?) OR (gp.user_id = ? AND g.user_id = ?))`)

	err := r.db.Select(&goalIDs, query, model.RoleContributor, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	if len(goalIDs) == 0 {
		return nil, nil
	}

	del, args, err := sqlx.In(`DELETE FROM goal_participants
	          WHERE role = ? AND user_id IN (?, ?) AND goal_id IN (?)`,
		model.RoleContributor, userA, userB, goalIDs)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(r.db.Rebind(del), args...); err != nil {
		return nil, err
	}

	return goalIDs, nil
}
