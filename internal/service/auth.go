package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fablesound/fable-server/internal/auth"
	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
	domainerrors "github.com/fablesound/fable-server/internal/errors"
	"github.com/fablesound/fable-server/internal/id"
	"github.com/fablesound/fable-server/internal/identity"
)

// passwordResetTTL bounds how long a reset token stays redeemable.
const passwordResetTTL = 1 * time.Hour

// AuthService handles registration, login, and account maintenance. A
// successful login or registration sets the active identity on the session,
// which fans out to every per-user store.
type AuthService struct {
	store        docstore.Client
	tokenService *auth.TokenService
	session      *identity.Session
	logger       *slog.Logger
}

// NewAuthService creates an authentication service.
func NewAuthService(store docstore.Client, tokenService *auth.TokenService, session *identity.Session, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		session:      session,
		logger:       logger,
	}
}

// RegisterRequest contains new-account data.
type RegisterRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the access token and the account it belongs to.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// emailIndexEntry maps a login email to its user ID.
type emailIndexEntry struct {
	UserID string `json:"userId"`
}

// passwordResetEntry is a pending password reset stored by token.
type passwordResetEntry struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	email := normalizeEmail(req.Email)

	// Reject duplicate emails up front. The index write below is what
	// actually claims the address.
	var existing emailIndexEntry
	err := s.store.Get(ctx, docstore.EmailIndexPath(email), &existing)
	if err == nil {
		return nil, domainerrors.AlreadyExists("email already in use")
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("check email index: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("usr")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Set(ctx, docstore.UserProfilePath(userID), user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.store.Set(ctx, docstore.EmailIndexPath(email), emailIndexEntry{UserID: userID}); err != nil {
		return nil, fmt.Errorf("index email: %w", err)
	}

	s.logger.Info("user registered", "user_id", userID)
	return s.signIn(user)
}

// Login verifies credentials and signs the account in.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.userByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return s.signIn(user)
}

// Logout drops the active identity back to anonymous. Issued tokens stay
// valid until they expire; only the process-local session changes.
func (s *AuthService) Logout() {
	s.session.Clear()
}

// RequestPasswordReset creates a reset token for the account. An unknown
// email succeeds without doing anything so the endpoint cannot be used to
// probe for accounts. Delivery is out of scope; the token is logged.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return err
	}

	// Reset tokens are opaque secrets rather than resource IDs, so they do
	// not share the prefixed NanoID scheme.
	token := uuid.NewString()
	entry := passwordResetEntry{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(passwordResetTTL),
	}
	if err := s.store.Set(ctx, docstore.PasswordResetPath(token), entry); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// TODO: hand the token to a mailer once one exists.
	s.logger.Info("password reset requested", "user_id", user.ID, "token", token)
	return nil
}

// ResetPassword redeems a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return domainerrors.Validation("password must be at least 8 characters")
	}

	var entry passwordResetEntry
	err := s.store.Get(ctx, docstore.PasswordResetPath(token), &entry)
	if errors.Is(err, docstore.ErrNotFound) {
		return domainerrors.Unauthorized("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("look up reset token: %w", err)
	}
	if time.Now().After(entry.ExpiresAt) {
		return domainerrors.Unauthorized("invalid or expired reset token")
	}

	user, err := s.GetUser(ctx, entry.UserID)
	if err != nil {
		return err
	}
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	user.Touch()
	if err := s.store.Set(ctx, docstore.UserProfilePath(user.ID), user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.store.Delete(ctx, docstore.PasswordResetPath(token)); err != nil {
		s.logger.Warn("failed to delete reset token", "error", err)
	}

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// UpdateDisplayName changes an account's display name. The name is trimmed
// and must be non-blank.
func (s *AuthService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*domain.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domainerrors.Validation("display_name is required")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	user.Touch()
	if err := s.store.Set(ctx, docstore.UserProfilePath(userID), user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return sanitizeUser(user), nil
}

// UpdatePassword changes an account's password after verifying the current
// one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return domainerrors.Validation("password must be at least 8 characters")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := auth.VerifyPassword(user.PasswordHash, currentPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domainerrors.InvalidCredentials("current password is incorrect")
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	user.Touch()
	if err := s.store.Set(ctx, docstore.UserProfilePath(userID), user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// VerifyAccessToken validates a token and confirms its account still exists.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetUser(ctx, claims.UserID); err != nil {
		return nil, domainerrors.Unauthorized("account no longer exists")
	}
	return claims, nil
}

// GetUser loads an account by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.store.Get(ctx, docstore.UserProfilePath(userID), &user)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, domainerrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return &user, nil
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (*domain.User, error) {
	var entry emailIndexEntry
	if err := s.store.Get(ctx, docstore.EmailIndexPath(email), &entry); err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.store.Get(ctx, docstore.UserProfilePath(entry.UserID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// signIn issues an access token and makes userID the active identity.
func (s *AuthService) signIn(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.session.Set(user.ID)

	return &AuthResponse{
		User:        sanitizeUser(user),
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.tokenService.AccessTokenDuration()),
	}, nil
}

// sanitizeUser strips the password hash before a user leaves the service.
func sanitizeUser(user *domain.User) *domain.User {
	out := *user
	out.PasswordHash = ""
	return &out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
