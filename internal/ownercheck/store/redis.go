package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/sentinel"
)

const sessionKeyPrefix = "namecheck:session:"

// RedisStore shares sessions between replicas so only one of them has to log in.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithTTL expires stored sessions. Zero keeps them until overwritten.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Load(ctx context.Context, accountNumber string) (*models.SessionState, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+accountNumber).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session %s: %w", accountNumber, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var st models.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", accountNumber, sentinel.ErrInvalidState)
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, accountNumber string, state *models.SessionState) error {
	if err := validateKey(accountNumber); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("session state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+accountNumber, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
