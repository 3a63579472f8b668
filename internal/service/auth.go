package service

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/crypto"
	"taskboard/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Uploader turns a profile picture payload into a stored asset URL.
type Uploader interface {
	Upload(ctx context.Context, payload string) (string, error)
}

type Registration struct {
	Email          string
	Password       string
	Name           string
	ProfilePicture string
	Bio            string
	DeviceToken    string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type Auth struct {
	users    repository.UserStore
	tokens   *TokenManager
	uploader Uploader
}

func NewAuth(users repository.UserStore, tokens *TokenManager, uploader Uploader) *Auth {
	return &Auth{users: users, tokens: tokens, uploader: uploader}
}

// Register checks the email before uploading anything, so a repeated
// registration leaves no orphaned picture. The unique index still catches
// a concurrent insert.
func (a *Auth) Register(ctx context.Context, r Registration) (*AuthResult, error) {
	_, err := a.users.FindByEmail(ctx, r.Email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	picture := r.ProfilePicture
	if picture != "" {
		url, err := a.uploader.Upload(ctx, picture)
		if err != nil {
			return nil, fmt.Errorf("upload profile picture: %w", err)
		}
		picture = url
	}

	hash, err := crypto.HashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          r.Email,
		Password:       hash,
		Name:           r.Name,
		ProfilePicture: picture,
		Bio:            r.Bio,
		DeviceToken:    r.DeviceToken,
		Kind:           models.AccountKindUser,
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	logger.AuditLogger.Info("User registered successfully", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.SecurityLogger.Warn("Login for unknown email", zap.String("email", email))
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if !crypto.CheckPassword(user.Password, password) {
		logger.SecurityLogger.Warn("Invalid password", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	logger.AuditLogger.Info("Login success", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}
