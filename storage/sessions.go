package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

// Sessions persists authenticated identities in Redis, keyed by opaque
// bearer tokens. Identity is resolved per request from the token, so
// concurrent logins never interfere with each other.
type Sessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessions creates a session store using the provided Redis client and TTL.
func NewSessions(client *redis.Client, ttl time.Duration) *Sessions {
	return &Sessions{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create stores the identity under a fresh opaque token and returns the token.
func (s *Sessions) Create(ctx context.Context, ident domain.Identity) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(ident)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get resolves a token to its identity. A missing or expired token resolves
// to nil without error.
func (s *Sessions) Get(ctx context.Context, token string) (*domain.Identity, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var ident domain.Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}
