package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrSubscriptionNotFound = errors.New("push subscription not found")
	ErrPreferenceNotFound   = errors.New("notification preference not found")
)

type PushSubscriptionRepository interface {
	Upsert(sub *model.PushSubscription) error
	ByUserID(userID string) ([]*model.PushSubscription, error)
	Delete(userID, endpoint string) error
	DeleteEndpoint(endpoint string) error
}

type pushSubscriptionRepository struct {
	db DBTX
}

func NewPushSubscriptionRepository(db *sqlx.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

// Upsert stores a subscription keyed by endpoint. A browser endpoint that
// re-subscribes under another account moves to that account.
func (r *pushSubscriptionRepository) Upsert(sub *model.PushSubscription) error {
	return Transact(r.db, func(tx *sqlx.Tx) error {
		var existingID string
		err := tx.QueryRowx(tx.Rebind(`SELECT id FROM push_subscriptions WHERE endpoint = ?`), sub.Endpoint).Scan(&existingID)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		if err == sql.ErrNoRows {
			_, err = tx.Exec(tx.Rebind(`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, user_agent, created_at)
			          VALUES (?, ?, ?, ?, ?, ?, ?)`),
				sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.UserAgent, sub.CreatedAt)
			return err
		}

		sub.ID = existingID
		_, err = tx.Exec(tx.Rebind(`UPDATE push_subscriptions SET user_id = ?, p256dh = ?, auth = ?, user_agent = ? WHERE id = ?`),
			sub.UserID, sub.P256dh, sub.Auth, sub.UserAgent, existingID)
		return err
	})
}

func (r *pushSubscriptionRepository) ByUserID(userID string) ([]*model.PushSubscription, error) {
	var subs []*model.PushSubscription
	query := r.db.Rebind(`SELECT * FROM push_subscriptions WHERE user_id = ? ORDER BY created_at ASC`)

	err := r.db.Select(&subs, query, userID)
	if err != nil {
		return nil, err
	}

	return subs, nil
}

func (r *pushSubscriptionRepository) Delete(userID, endpoint string) error {
	query := r.db.Rebind(`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`)

	result, err := r.db.Exec(query, userID, endpoint)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrSubscriptionNotFound)
}

// DeleteEndpoint removes a subscription the push service reported as gone.
func (r *pushSubscriptionRepository) DeleteEndpoint(endpoint string) error {
	query := r.db.Rebind(`DELETE FROM push_subscriptions WHERE endpoint = ?`)
	_, err := r.db.Exec(query, endpoint)
	return err
}

type NotificationPreferenceRepository interface {
	ByUserID(userID string) (*model.NotificationPreference, error)
	Save(pref *model.NotificationPreference) error
	Due(sendTime, today string) ([]*model.ReminderTarget, error)
	MarkSent(userID, day string) error
}

type notificationPreferenceRepository struct {
	db DBTX
}

func NewNotificationPreferenceRepository(db *sqlx.DB) NotificationPreferenceRepository {
	return &notificationPreferenceRepository{db: db}
}

func (r *notificationPreferenceRepository) ByUserID(userID string) (*model.NotificationPreference, error) {
	pref := &model.NotificationPreference{}
	query := r.db.Rebind(`SELECT * FROM notification_preferences WHERE user_id = ?`)

	err := r.db.Get(pref, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrPreferenceNotFound
	}

	return pref, err
}

func (r *notificationPreferenceRepository) Save(pref *model.NotificationPreference) error {
	pref.UpdatedAt = time.Now().UTC()

	return Transact(r.db, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.QueryRowx(tx.Rebind(`SELECT COUNT(*) FROM notification_preferences WHERE user_id = ?`), pref.UserID).Scan(&exists)
		if err != nil {
			return err
		}

		if exists == 0 {
			_, err = tx.Exec(tx.Rebind(`INSERT INTO notification_preferences (user_id, enabled, send_time, last_sent_date, updated_at)
			          VALUES (?, ?, ?, ?, ?)`),
				pref.UserID, pref.Enabled, pref.SendTime, pref.LastSentDate, pref.UpdatedAt)
			return err
		}

		_, err = tx.Exec(tx.Rebind(`UPDATE notification_preferences SET enabled = ?, send_time = ?, updated_at = ? WHERE user_id = ?`),
			pref.Enabled, pref.SendTime, pref.UpdatedAt, pref.UserID)
		return err
	})
}

// Due lists enabled users whose send time is sendTime and who have not been
// reminded on today.
func (r *notificationPreferenceRepository) Due(sendTime, today string) ([]*model.ReminderTarget, error) {
	var targets []*model.ReminderTarget
	query := r.db.Rebind(`SELECT u.id AS user_id, u.username, u.first_name,
	              COALESCE(st.current_streak, 0) AS current_streak, st.last_saving_date
	          FROM notification_preferences np
	          JOIN users u ON u.id = np.user_id
	          LEFT JOIN streaks st ON st.user_id = np.user_id
	          WHERE np.enabled = ? AND np.send_time = ?
	          AND (np.last_sent_date IS NULL OR np.last_sent_date <> ?)`)

	err := r.db.Select(&targets, query, true, sendTime, today)
	if err != nil {
		return nil, err
	}

	return targets, nil
}

func (r *notificationPreferenceRepository) MarkSent(userID, day string) error {
	query := r.db.Rebind(`UPDATE notification_preferences SET last_sent_date = ? WHERE user_id = ?`)

	result, err := r.db.Exec(query, day, userID)
	if err != nil {
		return err
	}

	return rowsAffected(result, ErrPreferenceNotFound)
}
