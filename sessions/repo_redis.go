package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepo implements Repo on top of redis, leaning on redis' native key
// expiry for the record TTL so expired sessions simply vanish.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo creates a new [RedisRepo]. The prefix namespaces keys so a
// shared redis can host more than one deployment.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	return &RedisRepo{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisRepo) key(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, sessionID)
}

func (r *RedisRepo) Upsert(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	if sess.SessionID == "" {
		return errors.New("session id cannot be empty")
	}

	stamp(sess, ttl, time.Now())

	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(sess.SessionID), b, ttl).Err(); err != nil {
		return fmt.Errorf("could not write session to redis: %w", err)
	}

	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("session id cannot be empty")
	}

	b, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read session from redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("could not unmarshal session: %w", err)
	}

	return &sess, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}

	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("could not delete session from redis: %w", err)
	}

	return nil
}
