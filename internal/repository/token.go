package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(token *model.Token) error
	ConsumeToken(token string) (*model.Token, error)
	DeleteByUserAndType(userID, tokenType string) error
	CleanupExpired(olderThan time.Duration) (int64, error)
}

type tokenRepository struct {
	db DBTX
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO tokens (id, user_id, type, token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.Exec(query,
		token.ID,
		token.UserID,
		token.Type,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// ConsumeToken marks an unused, unexpired token as used and returns it.
// The conditional UPDATE lets exactly one concurrent caller win; everyone
// else gets ErrTokenNotFound.
func (r *tokenRepository) ConsumeToken(token string) (*model.Token, error) {
	var t model.Token
	now := time.Now().UTC()

	err := Transact(r.db, func(tx *sqlx.Tx) error {
		res, err := tx.Exec(tx.Rebind(`
			UPDATE tokens
			SET used_at = ?
			WHERE token = ?
			AND used_at IS NULL
			AND expires_at > ?
		`), now, token, now)
		if err != nil {
			return err
		}
		if err := rowsAffected(res, ErrTokenNotFound); err != nil {
			return err
		}

		return tx.Get(&t, tx.Rebind(`SELECT * FROM tokens WHERE token = ?`), token)
	})
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *tokenRepository) DeleteByUserAndType(userID, tokenType string) error {
	query := r.db.Rebind(`DELETE FROM tokens WHERE user_id = ? AND type = ? AND used_at IS NULL`)
	_, err := r.db.Exec(query, userID, tokenType)
	return err
}

// CleanupExpired removes used and expired tokens older than olderThan.
func (r *tokenRepository) CleanupExpired(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := r.db.Rebind(`
		DELETE FROM tokens
		WHERE (used_at IS NOT NULL AND used_at < ?)
		   OR (expires_at < ?)
	`)
	result, err := r.db.Exec(query, cutoff, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
