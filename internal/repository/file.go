package repository

import (
	"database/sql"
	"errors"

	"github.com/Dune005/syfte/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(file *model.File) error
	FileByType(ownerType, ownerID, fileType string) (*model.File, error)
	AllUserFiles(userID string) ([]*model.File, error)
	Delete(id string) error
}

type fileRepository struct {
	db DBTX
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := r.db.Rebind(`INSERT INTO files (id, user_id, owner_type, owner_id, type, filename, original_name, mime_type, size, storage_path, public, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.Exec(query,
		file.ID,
		file.UserID,
		file.OwnerType,
		file.OwnerID,
		file.Type,
		file.Filename,
		file.OriginalName,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.Public,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) FileByType(ownerType, ownerID, fileType string) (*model.File, error) {
	file := &model.File{}
	query := r.db.Rebind(`SELECT * FROM files WHERE owner_type = ? AND owner_id = ? AND type = ? ORDER BY created_at DESC LIMIT 1`)

	err := r.db.Get(file, query, ownerType, ownerID, fileType)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) AllUserFiles(userID string) ([]*model.File, error) {
	var files []*model.File
	query := r.db.Rebind(`SELECT * FROM files WHERE user_id = ? ORDER BY created_at DESC`)

	err := r.db.Select(&files, query, userID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Delete(id string) error {
	query := r.db.Rebind(`DELETE FROM files WHERE id = ?`)
	_, err := r.db.Exec(query, id)
	return err
}
