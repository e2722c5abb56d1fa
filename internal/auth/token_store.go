package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"librarium/internal/cache"
)

const (
	refreshTokenKeyPrefix  = "refresh_token:"
	passwordTokenKeyPrefix = "pwdtoken:"
)

const (
	// PasswordResetTokenTTL bounds how long a reset link stays usable.
	PasswordResetTokenTTL = 15 * time.Minute
	// PasswordCreateTokenTTL bounds how long an account-activation link stays usable.
	PasswordCreateTokenTTL = 24 * time.Hour
)

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (userID uint, email string, err error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error

	StorePasswordToken(ctx context.Context, email, token string, ttl time.Duration) error
	ValidatePasswordToken(ctx context.Context, email, token string) (bool, error)
	ConsumePasswordToken(ctx context.Context, email, token string) error
}

// TokenStore handles storage and retrieval of tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// StoreRefreshToken stores a refresh token with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, email string, ttl time.Duration) error {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"email":   email,
	})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves refresh token data.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (userID uint, email string, err error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return 0, "", fmt.Errorf("refresh token not found")
	}

	var tokenData map[string]interface{}
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return 0, "", fmt.Errorf("unmarshal token data: %w", err)
	}

	uid, ok := tokenData["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("invalid user_id in token data")
	}
	email, ok = tokenData["email"].(string)
	if !ok {
		return 0, "", fmt.Errorf("invalid email in token data")
	}
	return uint(uid), email, nil
}

// DeleteRefreshToken removes a refresh token.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// StorePasswordToken stores a single-use password creation/reset token,
// keyed by the pair (email, token) so a token leaks nothing across accounts.
func (s *TokenStore) StorePasswordToken(ctx context.Context, email, token string, ttl time.Duration) error {
	return s.cache.Set(ctx, passwordTokenKey(email, token), []byte("1"), ttl)
}

// ValidatePasswordToken reports whether the (email, token) pair is still valid.
func (s *TokenStore) ValidatePasswordToken(ctx context.Context, email, token string) (bool, error) {
	if email == "" || token == "" {
		return false, nil
	}
	data, err := s.cache.Get(ctx, passwordTokenKey(email, token))
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}

// ConsumePasswordToken invalidates a password token after use.
func (s *TokenStore) ConsumePasswordToken(ctx context.Context, email, token string) error {
	return s.cache.Delete(ctx, passwordTokenKey(email, token))
}

func passwordTokenKey(email, token string) string {
	return passwordTokenKeyPrefix + strings.ToLower(strings.TrimSpace(email)) + ":" + token
}
