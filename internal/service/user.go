package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const (
	searchLimit    = 20
	searchMinQuery = 2

	FriendshipStatusNone = "none"
)

var (
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrSearchQueryTooShort    = errors.New("search query must be at least 2 characters")
)

type UserService struct {
	userRepository       repository.UserRepository
	friendshipRepository repository.FriendshipRepository
	fileService          *FileService
	emailService         *EmailService
}

func NewUserService(
	userRepository repository.UserRepository,
	friendshipRepository repository.FriendshipRepository,
	fileService *FileService,
	emailService *EmailService,
) *UserService {
	return &UserService{
		userRepository:       userRepository,
		friendshipRepository: friendshipRepository,
		fileService:          fileService,
		emailService:         emailService,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		return nil, err
	}

	avatar, err := s.fileService.Avatar(id)
	if err == nil {
		user.AvatarURL = s.fileService.URL(ctx, avatar)
	}

	return user, nil
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	Username  *string `json:"username" validate:"omitnil,username"`
	FirstName *string `json:"first_name" validate:"omitnil,max=100"`
	LastName  *string `json:"last_name" validate:"omitnil,max=100"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	if in.Username != nil {
		trimmed := strings.TrimSpace(*in.Username)
		in.Username = &trimmed
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && !strings.EqualFold(*in.Username, user.Username) {
		existing, err := s.userRepository.ByUsername(*in.Username)
		if err == nil && existing.ID != userID {
			return nil, ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
	}
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}

	err = s.userRepository.Update(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.ByID(ctx, userID)
}

// UpdatePassword changes the password. Accounts created through OAuth have
// no password yet and may set one without providing the current one.
func (s *UserService) UpdatePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.HasPassword() {
		err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword))
		if err != nil {
			return ErrInvalidCurrentPassword
		}
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hashedPassword)
	err = s.userRepository.UpdatePassword(userID, &hashStr)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

func (s *UserService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.User, error) {
	_, err := s.fileService.ReplaceAvatar(ctx, userID, file, header)
	if err != nil {
		return nil, err
	}

	return s.ByID(ctx, userID)
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID string) error {
	return s.fileService.DeleteAvatar(ctx, userID)
}

func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.fileService.DeleteAllUserFilesFromStorage(ctx, userID)
	if err != nil {
		// orphaned objects are preferable to a failed deletion
		slog.Warn("failed to delete user files from storage", "user_id", userID, "error", err)
	}

	// Foreign keys cascade to goals, savings, participants, streaks,
	// achievements, friendships, tokens, files and push subscriptions.
	err = s.userRepository.Delete(userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	err = s.emailService.SendAccountDeletedEmail(ctx, user.Email, user.DisplayName())
	if err != nil {
		slog.Warn("failed to send account deleted email", "user_id", userID, "error", err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}

// Search finds users by username prefix and annotates each hit with the
// caller's friendship status.
func (s *UserService) Search(userID, query string) ([]*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < searchMinQuery {
		return nil, ErrSearchQueryTooShort
	}

	users, err := s.userRepository.Search(query, userID, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	statuses, err := s.friendshipRepository.Statuses(userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load friendship statuses: %w", err)
	}

	results := make([]*model.SearchResult, len(users))
	for i, u := range users {
		status, ok := statuses[u.ID]
		if !ok || status == model.FriendshipDeclined {
			status = FriendshipStatusNone
		}
		results[i] = &model.SearchResult{PublicUser: *u, FriendshipStatus: status}
	}

	return results, nil
}
