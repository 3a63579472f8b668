package service

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/models"
	"taskboard/internal/repository"
)

var ErrIdentityNotFound = errors.New("user not found")

// Sessions resolves a session token to a live identity.
type Sessions struct {
	tokens *TokenManager
	users  repository.UserStore
}

func NewSessions(tokens *TokenManager, users repository.UserStore) *Sessions {
	return &Sessions{tokens: tokens, users: users}
}

// Verify checks the token signature and expiry, then confirms the user
// still exists and is a standard account.
func (s *Sessions) Verify(ctx context.Context, token string) (string, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrIdentityNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve identity: %w", err)
	}
	if user.Kind != models.AccountKindUser {
		return "", ErrIdentityNotFound
	}
	return user.ID, nil
}
