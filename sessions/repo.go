package sessions

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired. The
// store never distinguishes the two cases.
var ErrNotFound = errors.New("session not found")

// Repo persists exactly one Session per session id.
//
// Upsert is a full overwrite: it stamps CreatedAt and TTL on the record and
// replaces whatever the store currently holds, along with its expiry. Last
// write wins; the state machine is monotonic (pending to completed only), so
// racing writers need no coordination beyond that.
//
// Expiry is enforced by the store itself on read, not by any sweep the
// callers depend on.
type Repo interface {
	Upsert(ctx context.Context, sess *Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

func stamp(sess *Session, ttl time.Duration, now time.Time) {
	sess.CreatedAt = now.Unix()
	sess.TTL = now.Add(ttl).Unix()
}
