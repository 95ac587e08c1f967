// Package session provides Redis-backed storage for refresh tokens and
// per-user dashboard view state.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"missiontrack/api/internal/store"
)

// TokenData holds the data stored for each refresh token
type TokenData struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ProfileID   string    `json:"profile_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ViewState is the persisted dashboard projection for one user. It survives
// restarts so a returning user lands on the same page with the same tree
// shape and filters.
type ViewState struct {
	Filters   map[string][]string `json:"filters"`
	Page      int                 `json:"page"`
	Expanded  map[string]bool     `json:"expanded"`
	ExpandAll bool                `json:"expand_all"`
	SavedAt   time.Time           `json:"saved_at"`
}

// RedisStore implements refresh token and view state storage using Redis
type RedisStore struct {
	client      *redis.Client
	tokenPrefix string
	viewPrefix  string
	viewTTL     time.Duration
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:      client,
		tokenPrefix: "refresh:",
		viewPrefix:  "view:",
		viewTTL:     30 * 24 * time.Hour,
	}
}

func (s *RedisStore) tokenKey(tokenHash string) string {
	return s.tokenPrefix + tokenHash
}

func (s *RedisStore) viewKey(userID string) string {
	return s.viewPrefix + userID
}

// SaveRefreshSession stores a refresh token with expiration
func (s *RedisStore) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	data := TokenData{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		ProfileID:   user.ProfileID,
		CreatedAt:   time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	if err := s.client.Set(ctx, s.tokenKey(tokenHash), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}

	return nil
}

// LookupRefreshSession retrieves a refresh token and returns user info
func (s *RedisStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	jsonData, err := s.client.Get(ctx, s.tokenKey(tokenHash)).Result()
	if err == redis.Nil {
		return store.User{}, fmt.Errorf("token not found or expired")
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	var data TokenData
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return store.User{}, fmt.Errorf("unmarshal token data: %w", err)
	}

	return store.User{
		ID:          data.UserID,
		DisplayName: data.DisplayName,
		ProfileID:   data.ProfileID,
	}, nil
}

// RevokeRefreshSession deletes a refresh token
func (s *RedisStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.tokenKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// SaveViewState persists a user's dashboard view state.
func (s *RedisStore) SaveViewState(ctx context.Context, userID string, state ViewState) error {
	state.SavedAt = time.Now()
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	if err := s.client.Set(ctx, s.viewKey(userID), jsonData, s.viewTTL).Err(); err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

// LoadViewState returns the saved view state for a user. The second return
// value is false when nothing was saved.
func (s *RedisStore) LoadViewState(ctx context.Context, userID string) (ViewState, bool, error) {
	jsonData, err := s.client.Get(ctx, s.viewKey(userID)).Result()
	if err == redis.Nil {
		return ViewState{}, false, nil
	}
	if err != nil {
		return ViewState{}, false, fmt.Errorf("load view state: %w", err)
	}

	var state ViewState
	if err := json.Unmarshal([]byte(jsonData), &state); err != nil {
		return ViewState{}, false, fmt.Errorf("unmarshal view state: %w", err)
	}
	return state, true, nil
}

// ClearViewState removes a user's saved view state.
func (s *RedisStore) ClearViewState(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.viewKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear view state: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
