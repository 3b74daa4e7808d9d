package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFriendshipNotFound  = errors.New("friendship not found")
	ErrFriendshipDuplicate = errors.New("friendship already exists")
)

type FriendshipRepository interface {
	WithTx(tx *sqlx.Tx) FriendshipRepository
	Create(f *model.Friendship) error
	ByID(id string) (*model.Friendship, error)
	Between(userA, userB string) (*model.Friendship, error)
	UpdateStatus(id, status string) error
	Delete(id string) error
	Friends(userID string) ([]*model.Friend, error)
	FriendIDs(userID string) ([]string, error)
	Incoming(userID string) ([]*model.FriendRequest, error)
	Outgoing(userID string) ([]*model.FriendRequest, error)
	CountAccepted(userID string) (int, error)
	Statuses(userID string, otherIDs []string) (map[string]string, error)
}

type friendshipRepository struct {
	db DBTX
}

func NewFriendshipRepository(db *sqlx.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) WithTx(tx *sqlx.Tx) FriendshipRepository {
	return &friendshipRepository{db: tx}
}

func (r *friendshipRepository) Create(f *model.Friendship) error {
	query := r.db.Rebind(`INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query, f.ID, f.RequesterID, f.AddresseeID, f.Status, f.CreatedAt, f.UpdatedAt)
	if isDuplicate(err) {
		return ErrFriendshipDuplicate
	}

	return err
}

func (r *friendshipRepository) ByID(id string) (*model.Friendship, error) {
	f := &model.Friendship{}
	query := r.db.Rebind(`SELECT * FROM friendships WHERE id = ?`)

	err := r.db.Get(f, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFriendshipNotFound
	}

	return f, err
}

// Between finds the friendship row in either direction.
func (r *friendshipRepository) Between(userA, userB string) (*model.Friendship, error) {
	f := &model.Friendship{}
	query := r.db.Rebind(`SELECT * FROM friendships
	          WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)
	          ORDER BY updated_at DESC LIMIT 1`)

	err := r.db.Get(f, query, userA, userB, userB, userA)
	if err == sql.ErrNoRows {
		return nil, ErrFriendshipNotFound
	}

	return f, err
}

func (r *friendshipRepository) UpdateStatus(id, status string) error {
	query := r.db.Rebind(`UPDATE friendships SET status = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.Exec(query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrFriendshipNotFound)
}

func (r *friendshipRepository) Delete(id string) error {
	query := r.db.Rebind(`DELETE FROM friendships WHERE id = ?`)

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrFriendshipNotFound)
}

func (r *friendshipRepository) Friends(userID string) ([]*model.Friend, error) {
	var friends []*model.Friend
	query := r.db.Rebind(`SELECT u.id, u.username, u.first_name, u.last_name, f.updated_at AS since,
	              COALESCE(st.current_streak, 0) AS current_streak, st.last_saving_date
	          FROM friendships f
	          JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END
	          LEFT JOIN streaks st ON st.user_id = u.id
	          WHERE f.status = ? AND (f.requester_id = ? OR f.addressee_id = ?)
	          ORDER BY u.username ASC`)

	err := r.db.Select(&friends, query, userID, model.FriendshipAccepted, userID, userID)
	if err != nil {
		return nil, err
	}

	return friends, nil
}

func (r *friendshipRepository) FriendIDs(userID string) ([]string, error) {
	var ids []string
	query := r.db.Rebind(`SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END
	          FROM friendships
	          WHERE status = ? AND (requester_id = ? OR addressee_id = ?)`)

	err := r.db.Select(&ids, query, userID, model.FriendshipAccepted, userID, userID)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *friendshipRepository) Incoming(userID string) ([]*model.FriendRequest, error) {
	var requests []*model.FriendRequest
	query := r.db.Rebind(`SELECT f.id, u.id AS user_id, u.username, u.first_name, u.last_name, f.created_at
	          FROM friendships f
	          JOIN users u ON u.id = f.requester_id
	          WHERE f.addressee_id = ? AND f.status = ?
	          ORDER BY f.created_at DESC`)

	err := r.db.Select(&requests, query, userID, model.FriendshipPending)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *friendshipRepository) Outgoing(userID string) ([]*model.FriendRequest, error) {
	var requests []*model.FriendRequest
	query := r.db.Rebind(`SELECT f.id, u.id AS user_id, u.username, u.first_name, u.last_name, f.created_at
	          FROM friendships f
	          JOIN users u ON u.id = f.addressee_id
	          WHERE f.requester_id = ? AND f.status = ?
	          ORDER BY f.created_at DESC`)

	err := r.db.Select(&requests, query, userID, model.FriendshipPending)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *friendshipRepository) CountAccepted(userID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM friendships WHERE status = ? AND (requester_id = ? OR addressee_id = ?)`)
	err := r.db.QueryRowx(query, model.FriendshipAccepted, userID, userID).Scan(&count)
	return count, err
}

// Statuses maps each of otherIDs that has a friendship with userID to its
// status. Pending requests are reported as "pending_incoming" or
// "pending_outgoing" from userID's point of view.
func (r *friendshipRepository) Statuses(userID string, otherIDs []string) (map[string]string, error) {
	statuses := make(map[string]string, len(otherIDs))
	if len(otherIDs) == 0 {
		return statuses, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM friendships
	          WHERE (requester_id = ? AND addressee_id IN (?)) OR (addressee_id = ? AND requester_id IN (?))`,
		userID, otherIDs, userID, otherIDs)
	if err != nil {
		return nil, err
	}

	var rows []*model.Friendship
	if err := r.db.Select(&rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	for _, f := range rows {
		status := f.Status
		if status == model.FriendshipPending {
			if f.RequesterID == userID {
				status = "pending_outgoing"
			} else {
				status = "pending_incoming"
			}
		}
		statuses[f.Other(userID)] = status
	}

	return statuses, nil
}
