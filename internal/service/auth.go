package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const AuthCookieName = "auth_token"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordNotSet     = errors.New("account has no password, sign in with Google")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	userRepository           repository.UserRepository
	tokenRepository          repository.TokenRepository
	emailService             *EmailService
	jwtSecret                string
	isProduction             bool
	jwtExpiry                time.Duration
	tokenPasswordResetExpiry time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	emailService *EmailService,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
	tokenPasswordResetExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:           userRepository,
		tokenRepository:          tokenRepository,
		emailService:             emailService,
		jwtSecret:                jwtSecret,
		isProduction:             isProduction,
		jwtExpiry:                jwtExpiry,
		tokenPasswordResetExpiry: tokenPasswordResetExpiry,
	}
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.userRepository.ByEmail(in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepository.ByUsername(in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: &hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepository.Create(user)
	if err != nil {
		return nil, mapDuplicateUser(err)
	}

	err = s.emailService.SendWelcomeEmail(ctx, user.Email, user.DisplayName())
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login accepts either the email address or the username as identifier.
func (s *AuthService) Login(identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepository.ByEmail(validation.NormalizeEmail(identifier))
	} else {
		user, err = s.userRepository.ByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordNotSet
	}

	if err := s.ComparePassword(password, *user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateJWT signs an HS256 session token and returns it with its expiry.
func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiry, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// UserIDFromToken verifies a session token and extracts the user id claim.
func (s *AuthService) UserIDFromToken(tokenString string) (string, error) {
	claims, err := s.VerifyJWT(tokenString)
	if err != nil {
		return "", err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequestPasswordReset emails a reset link. Unknown addresses and
// password-less accounts succeed silently so addresses cannot be probed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypePasswordReset)
	if err != nil {
		slog.Warn("failed to delete old reset tokens", "error", err, "user_id", user.ID)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     resetToken,
		ExpiresAt: time.Now().UTC().Add(s.tokenPasswordResetExpiry),
	}
	if err := s.tokenRepository.Create(token); err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	err = s.emailService.SendPasswordResetEmail(ctx, user.Email, resetToken, user.DisplayName())
	if err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("password reset link sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s *AuthService) ResetPassword(token, newPassword string) (*model.User, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	t, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	if t.Type != model.TokenTypePasswordReset {
		return nil, ErrInvalidResetToken
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepository.UpdatePassword(t.UserID, &hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset", "user_id", t.UserID)
	return s.userRepository.ByID(t.UserID)
}

// OAuthProfile is the identity returned by an OAuth provider.
type OAuthProfile struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// AuthenticateOAuth signs in the user with the provider's verified email,
// creating an account with a generated username on first login.
func (s *AuthService) AuthenticateOAuth(ctx context.Context, profile OAuthProfile, provider string) (*model.User, error) {
	email := validation.NormalizeEmail(profile.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err == nil {
		if user.EmailVerifiedAt == nil {
			now := time.Now().UTC()
			user.EmailVerifiedAt = &now
			if err := s.userRepository.Update(user); err != nil {
				slog.Warn("failed to mark email as verified", "error", err, "user_id", user.ID)
			}
		}
		slog.Info("user authenticated via oauth", "user_id", user.ID, "provider", provider)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}

	username, err := s.availableUsername(email)
	if err != nil {
		return nil, err
	}

	title := cases.Title(language.German)
	now := time.Now().UTC()
	user = &model.User{
		ID:              uuid.New().String(),
		Username:        username,
		Email:           email,
		FirstName:       title.String(strings.TrimSpace(profile.GivenName)),
		LastName:        title.String(strings.TrimSpace(profile.FamilyName)),
		EmailVerifiedAt: &now, // provider has verified the address
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.userRepository.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", mapDuplicateUser(err))
	}

	err = s.emailService.SendWelcomeEmail(ctx, user.Email, user.DisplayName())
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("new oauth user created", "user_id", user.ID, "username", username, "provider", provider)
	return user, nil
}

// availableUsername derives a username from the email's local part and
// appends digits until it is free.
func (s *AuthService) availableUsername(email string) (string, error) {
	base := usernameFromEmail(email)

	candidate := base
	for i := 0; i < 10; i++ {
		_, err := s.userRepository.ByUsername(candidate)
		if errors.Is(err, repository.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}

		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%04d", base, n.Int64())
	}

	return "", ErrUsernameTaken
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}

	name := b.String()
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 3 {
		name = "saver" + name
	}
	return name
}

func mapDuplicateUser(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	}
	return fmt.Errorf("failed to create user: %w", err)
}

// CleanupExpiredTokens removes reset tokens that expired more than a day ago.
func (s *AuthService) CleanupExpiredTokens() (int64, error) {
	n, err := s.tokenRepository.CleanupExpired(24 * time.Hour)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup tokens: %w", err)
	}
	if n > 0 {
		slog.Info("expired tokens removed", "count", n)
	}
	return n, nil
}
