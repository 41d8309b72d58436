package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// InMemoryRepo implements Repo on a process-local TTL cache. It exists for
// single-node deployments and tests; anything with more than one broker
// instance needs the redis repo.
type InMemoryRepo struct {
	cache *ttlcache.Cache[string, Session]
}

// NewInMemoryRepo creates a new in-memory session repository.
func NewInMemoryRepo() *InMemoryRepo {
	// reads must not extend a record's lifetime; polling a pending session
	// would otherwise keep it alive past its TTL
	return &InMemoryRepo{
		cache: ttlcache.New(
			ttlcache.WithDisableTouchOnHit[string, Session](),
		),
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	if sess.SessionID == "" {
		return errors.New("session id cannot be empty")
	}

	stamp(sess, ttl, time.Now())

	// store a copy so later mutation of the caller's record cannot reach
	// into the cache
	r.cache.Set(sess.SessionID, *sess, ttl)

	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("session id cannot be empty")
	}

	item := r.cache.Get(sessionID)
	if item == nil {
		return nil, ErrNotFound
	}

	sess := item.Value()
	return &sess, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}

	r.cache.Delete(sessionID)
	return nil
}
