package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	Update(user *model.User) error
	UpdatePassword(id string, hash *string) error
	Delete(id string) error
	Search(prefix, excludeID string, limit int) ([]*model.PublicUser, error)
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := r.db.Rebind(`INSERT INTO users (id, username, email, password_hash, first_name, last_name, email_verified_at, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.EmailVerifiedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isDuplicate(err) {
		return duplicateUserErr(err)
	}

	return err
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := r.db.Rebind(`SELECT * FROM users WHERE id = ?`)

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := r.db.Rebind(`SELECT * FROM users WHERE LOWER(email) = LOWER(?)`)

	err := r.db.Get(user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	user := &model.User{}
	query := r.db.Rebind(`SELECT * FROM users WHERE LOWER(username) = LOWER(?)`)

	err := r.db.Get(user, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) Update(user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`UPDATE users
	          SET username = ?, email = ?, first_name = ?, last_name = ?, email_verified_at = ?, updated_at = ?
	          WHERE id = ?`)

	res, err := r.db.Exec(query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.EmailVerifiedAt,
		user.UpdatedAt,
		user.ID,
	)
	if isDuplicate(err) {
		return duplicateUserErr(err)
	}
	if err != nil {
		return err
	}

	return rowsAffected(res, ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(id string, hash *string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)

	res, err := r.db.Exec(query, hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	return rowsAffected(res, ErrUserNotFound)
}

func (r *userRepository) Delete(id string) error {
	query := r.db.Rebind(`DELETE FROM users WHERE id = ?`)

	res, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	return rowsAffected(res, ErrUserNotFound)
}

// Search matches usernames by case-insensitive prefix.
func (r *userRepository) Search(prefix, excludeID string, limit int) ([]*model.PublicUser, error) {
	var users []*model.PublicUser
	query := r.db.Rebind(`SELECT id, username, first_name, last_name FROM users
	          WHERE LOWER(username) LIKE ? ESCAPE '!' AND id <> ?
	          ORDER BY username ASC LIMIT ?`)

	pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
	err := r.db.Select(&users, query, pattern, excludeID, limit)
	if err != nil {
		return nil, err
	}

	return users, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func duplicateUserErr(err error) error {
	if strings.Contains(err.Error(), "username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}
