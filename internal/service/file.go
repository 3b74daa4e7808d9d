package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/storage"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrStorageDisabled = errors.New("file storage is not configured")
	ErrInvalidFile     = errors.New("invalid file")
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

// NewFileService accepts a nil storage; uploads then fail with ErrStorageDisabled.
func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

// Upload validates an image, stores it and records it in the database.
func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader, isPublic bool) (*model.File, error) {
	if !s.Enabled() {
		return nil, ErrStorageDisabled
	}

	if err := validation.ValidateImage(header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.New().String() + ext

	prefix := "private"
	if isPublic {
		prefix = "public"
	}
	storagePath := path.Join(prefix, fileType+"s", filename) // avatar -> avatars

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err := s.storage.Save(ctx, storagePath, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     contentType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       isPublic,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.fileRepo.Create(fileModel)
	if err != nil {
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return fileModel, nil
}

func (s *FileService) Avatar(userID string) (*model.File, error) {
	return s.fileRepo.FileByType(model.FileOwnerUser, userID, model.FileTypeAvatar)
}

// URL returns a presigned (or public) URL for file. Empty when storage is
// off or presigning fails.
func (s *FileService) URL(ctx context.Context, file *model.File) string {
	if file == nil || !s.Enabled() {
		return ""
	}

	url, err := s.storage.URL(ctx, file.StoragePath, file.Public)
	if err != nil {
		slog.Warn("failed to build file url", "error", err, "path", file.StoragePath)
		return ""
	}
	return url
}

// ReplaceAvatar uploads a new avatar and removes the previous one.
func (s *FileService) ReplaceAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	previous, err := s.Avatar(userID)
	if err != nil && !errors.Is(err, repository.ErrFileNotFound) {
		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}

	avatar, err := s.Upload(ctx, userID, model.FileOwnerUser, userID, model.FileTypeAvatar, file, header, true)
	if err != nil {
		return nil, err
	}

	if previous != nil {
		if err := s.delete(ctx, previous); err != nil {
			slog.Warn("failed to delete previous avatar", "error", err, "user_id", userID)
		}
	}

	return avatar, nil
}

func (s *FileService) DeleteAvatar(ctx context.Context, userID string) error {
	file, err := s.Avatar(userID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil
		}
		return err
	}

	return s.delete(ctx, file)
}

func (s *FileService) delete(ctx context.Context, file *model.File) error {
	if s.Enabled() {
		if err := s.storage.Delete(ctx, file.StoragePath); err != nil {
			slog.Error("failed to delete file from storage", "error", err, "path", file.StoragePath)
		}
	}

	err := s.fileRepo.Delete(file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// DeleteAllUserFilesFromStorage removes stored objects only; the rows go
// with the user's cascade delete.
func (s *FileService) DeleteAllUserFilesFromStorage(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return nil
	}

	files, err := s.fileRepo.AllUserFiles(userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
