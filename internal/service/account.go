package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/bulkbuddy/internal/auth"
	"github.com/ramonehamilton/bulkbuddy/internal/storage"
	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// AccountService handles registration, login and token verification.
type AccountService struct {
	store      *storage.Service
	tokens     *auth.TokenIssuer
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

// Register creates an account. Emails are compared case-insensitively.
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, invalid(fmt.Sprintf("Password must be at least %d characters.", auth.MinPasswordLength))
		}
		return nil, invalid(err.Error())
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	err = s.store.InTx(ctx, func(r *storage.Repos) error {
		existing, err := r.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("User already exists")
		}
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, unauthorized("Invalid credentials")
	}

	user, err := s.store.Repos().Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Debug("login rejected")
		return nil, unauthorized("Invalid credentials")
	}

	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expires,
		User:      UserSummary{ID: user.ID, Email: user.Email},
	}, nil
}

// Authenticate verifies a bearer token and returns the user ID it carries.
func (s *AccountService) Authenticate(token string) (string, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", &Error{Kind: ErrUnauthorized, Message: "Invalid or expired token", Err: err}
	}
	return userID, nil
}

// Me returns the account behind userID.
func (s *AccountService) Me(ctx context.Context, userID string) (*UserSummary, error) {
	user, err := s.store.Repos().Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("User not found")
	}
	return &UserSummary{ID: user.ID, Email: user.Email}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("Email and password are required.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("Invalid email address.")
	}
	return email, nil
}
