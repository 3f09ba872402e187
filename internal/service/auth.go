package service

import (
	"context"
	"fmt"
	"strconv"

	"pinyinmatch/internal/repository"
)

const authorizedValue = "1"

// AuthService handles authentication logic
type AuthService struct {
	store       repository.KVStore
	botPassword string
}

// NewAuthService creates a new auth service. Authorizations are kept in
// store under the "auth" namespace.
func NewAuthService(store repository.KVStore, botPassword string) *AuthService {
	return &AuthService{
		store:       repository.Namespace(store, "auth"),
		botPassword: botPassword,
	}
}

// CheckPassword verifies if provided password matches
func (s *AuthService) CheckPassword(password string) bool {
	return password == s.botPassword
}

// IsAuthorized checks if user is authorized
func (s *AuthService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	v, ok, err := s.store.Get(ctx, userKey(userID))
	if err != nil {
		return false, fmt.Errorf("failed to check authorization: %w", err)
	}
	return ok && v == authorizedValue, nil
}

// AuthorizeUser authorizes a user
func (s *AuthService) AuthorizeUser(ctx context.Context, userID int64) error {
	if err := s.store.Set(ctx, userKey(userID), authorizedValue); err != nil {
		return fmt.Errorf("failed to authorize user: %w", err)
	}
	return nil
}

// RevokeUser removes a user's authorization
func (s *AuthService) RevokeUser(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, userKey(userID)); err != nil {
		return fmt.Errorf("failed to revoke user: %w", err)
	}
	return nil
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
