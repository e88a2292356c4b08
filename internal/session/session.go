// Package session holds the transient per-chat conversation state. Every key
// is scoped to one chat and one purpose and carries its own TTL; an expired
// or missing key is an ordinary outcome the caller re-prompts over, never an
// error.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose names one slot of conversation state.
type Purpose string

const (
	// PurposeClaimIntent holds the giveaway ID the next proof or contact
	// message should be interpreted against.
	PurposeClaimIntent Purpose = "claim_intent"
	// PurposeCurrentQuestion holds the question ID awaiting an answer.
	PurposeCurrentQuestion Purpose = "current_q"
	// PurposeAnswering marks a user as mid-questionnaire, as opposed to
	// idle with existing answers.
	PurposeAnswering Purpose = "answering"
	// PurposeResumeChoice holds the giveaway ID awaiting a yes/no on
	// redoing previous answers.
	PurposeResumeChoice Purpose = "resume_choice"
)

// Store is the per-chat TTL key/value contract. Get returns ok=false for
// absent or expired keys.
type Store interface {
	Set(ctx context.Context, chatID string, purpose Purpose, value string, ttl time.Duration) error
	Get(ctx context.Context, chatID string, purpose Purpose) (string, bool, error)
	Delete(ctx context.Context, chatID string, purpose Purpose) error
}

// RedisStore implements Store on a shared redis instance so every webhook
// worker observes the same conversation state.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "sess"}
}

func (s *RedisStore) key(chatID string, purpose Purpose) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, chatID)
}

func (s *RedisStore) Set(ctx context.Context, chatID string, purpose Purpose, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(chatID, purpose), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session key: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, chatID string, purpose Purpose) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(chatID, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session key: %w", err)
	}
	return val, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, chatID string, purpose Purpose) error {
	if err := s.rdb.Del(ctx, s.key(chatID, purpose)).Err(); err != nil {
		return fmt.Errorf("failed to delete session key: %w", err)
	}
	return nil
}
