package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so every replica sees the same logins.
// Each session lives under its own key with a TTL matching ExpiresAt; a set
// per username indexes the tokens for DeleteByUsername.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. Keys are namespaced with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) sessionKey(token string) string {
	return s.prefix + "session:" + token
}

func (s *RedisStore) userKey(username string) string {
	return s.prefix + "session_user:" + username
}

// Create stores a new session
func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	return s.write(ctx, session, "")
}

// Get retrieves a session by token
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	if session.IsExpired() {
		_ = s.Delete(ctx, token)
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Update updates an existing session and moves its expiry to ExpiresAt
func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	return s.write(ctx, session, "XX")
}

// UpdateActivity updates only the last activity time, keeping the TTL
func (s *RedisStore) UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.LastActivityAt = lastActivity

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrInvalidSession, err)
	}
	err = s.client.SetArgs(ctx, s.sessionKey(token), raw, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes a session by token
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.sessionKey(token)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteByUsername removes every session indexed for username
func (s *RedisStore) DeleteByUsername(ctx context.Context, username string) error {
	tokens, err := s.client.SMembers(ctx, s.userKey(username)).Result()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.sessionKey(token))
	}
	keys = append(keys, s.userKey(username))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, session *Session, mode string) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrInvalidSession, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetArgs(ctx, s.sessionKey(session.Token), raw, redis.SetArgs{Mode: mode, TTL: ttl})
		if session.Username != "" {
			key := s.userKey(session.Username)
			pipe.SAdd(ctx, key, session.Token)
			pipe.ExpireNX(ctx, key, ttl)
			pipe.ExpireGT(ctx, key, ttl)
		}
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
