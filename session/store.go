package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "sess:"
	userIndexPrefix  = "usersess:"
	sweepScanCount   = 256
)

// ErrBackendUnavailable wraps Redis transport failures so callers can
// distinguish infrastructure outages from absent sessions.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// deleteSessionScript removes a session key and reports whether it existed,
// in one round-trip. Returning the prior existence makes Delete idempotent
// with an honest boolean: first call true, second call false.
var deleteSessionScript = redis.NewScript(`
local existed = redis.call("EXISTS", KEYS[1])
if existed == 1 then
	redis.call("DEL", KEYS[1])
end
return existed
`)

// Store persists sessions in Redis with a per-user index set.
//
// Redis key TTLs mirror each session's expiry, so most expired sessions are
// evicted by Redis itself. The lazy check in Get and the SweepExpired scan
// cover clock skew and backends with eviction disabled.
type Store struct {
	redis redis.UniversalClient
	now   func() time.Time
}

// NewStore wraps an existing Redis client. The client's lifecycle belongs to
// the caller.
func NewStore(client redis.UniversalClient) (*Store, error) {
	if client == nil {
		return nil, errors.New("session: nil redis client")
	}
	return &Store{redis: client, now: time.Now}, nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func userIndexKey(userID string) string {
	return userIndexPrefix + userID
}

// Save writes the session and registers it in the owner's index. The record
// carries a Redis TTL equal to the session's remaining lifetime.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return errors.New("session: empty session")
	}

	ttl := sess.Remaining(s.now())
	if ttl <= 0 {
		return errors.New("session: refusing to save an already-expired session")
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.SessionID), data, ttl)
		pipe.SAdd(ctx, userIndexKey(sess.UserID), sess.SessionID)
		// The index outlives the longest member by a margin rather than
		// tracking each member's expiry individually.
		pipe.Expire(ctx, userIndexKey(sess.UserID), ttl+time.Hour)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Get fetches a session by ID. A session past its expiry is deleted on read
// and reported as [ErrNotFound], exactly like a session that never existed.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		// Corrupt records are unrecoverable; drop them.
		_, _ = s.Delete(ctx, sessionID)
		return nil, ErrNotFound
	}

	if sess.Expired(s.now()) {
		if _, derr := s.Delete(ctx, sessionID); derr != nil {
			return nil, derr
		}
		s.removeFromIndex(ctx, sess.UserID, sessionID)
		return nil, ErrNotFound
	}

	return sess, nil
}

// Delete removes a session and reports whether it existed. Deleting an absent
// or already-deleted session is not an error; it returns (false, nil).
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	existed, err := deleteSessionScript.Run(ctx, s.redis, []string{sessionKey(sessionID)}).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return existed == 1, nil
}

// DeleteAllForUser removes every live session owned by userID and returns how
// many were deleted.
//
// ATOMICITY NOTE: membership read and per-session deletes are separate
// round-trips. A session created concurrently may survive; it will carry its
// own TTL and expire on schedule.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.redis.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	deleted := 0
	for _, id := range ids {
		existed, err := s.Delete(ctx, id)
		if err != nil {
			return deleted, err
		}
		if existed {
			deleted++
		}
	}

	if err := s.redis.Del(ctx, userIndexKey(userID)).Err(); err != nil {
		return deleted, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return deleted, nil
}

// SweepExpired scans the session keyspace and deletes every record whose
// expiry has passed, returning the number removed. Corrupt records are
// removed and counted as well. Redis TTL eviction usually gets there first;
// the sweep is the backstop.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
		now     = s.now()
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, sessionKeyPrefix+"*", sweepScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}

		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}

			sess, err := Decode(data)
			if err == nil && !sess.Expired(now) {
				continue
			}

			if err := s.redis.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}
			if err == nil {
				s.removeFromIndex(ctx, sess.UserID, sess.SessionID)
			}
			removed++
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// ActiveSessionIDs returns the indexed session IDs for a user. Entries whose
// records have already expired out of Redis are pruned from the index as a
// side effect.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	live := ids[:0]
	for _, id := range ids {
		exists, err := s.redis.Exists(ctx, sessionKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		if exists == 1 {
			live = append(live, id)
		} else {
			s.removeFromIndex(ctx, userID, id)
		}
	}
	return live, nil
}

// ActiveSessionCount returns the number of live sessions for a user.
func (s *Store) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	ids, err := s.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Ping reports whether the Redis backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *Store) removeFromIndex(ctx context.Context, userID, sessionID string) {
	if userID == "" {
		return
	}
	// Best effort; a stale index entry only costs a future existence check.
	_ = s.redis.SRem(ctx, userIndexKey(userID), sessionID).Err()
}
