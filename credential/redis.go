package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "cred:id:"
	emailKeyPrefix  = "cred:email:"
)

// deleteCredentialScript removes the record and its email index together and
// reports whether the record existed.
var deleteCredentialScript = redis.NewScript(`
local existed = redis.call("EXISTS", KEYS[1])
if existed == 1 then
	redis.call("DEL", KEYS[1])
	redis.call("DEL", KEYS[2])
end
return existed
`)

// RedisStore persists credentials in Redis: one JSON record per user plus an
// email index key. The email index is claimed with SETNX, which closes the
// duplicate-registration race across processes.
type RedisStore struct {
	redis redis.UniversalClient
	now   func() time.Time
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("credential: nil redis client")
	}
	return &RedisStore{redis: client, now: time.Now}, nil
}

var _ Store = (*RedisStore)(nil)

func recordKey(id string) string {
	return recordKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}

func (r *RedisStore) FindByEmail(ctx context.Context, email string) (*Credential, error) {
	id, err := r.redis.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return r.FindByID(ctx, id)
}

func (r *RedisStore) FindByID(ctx context.Context, id string) (*Credential, error) {
	data, err := r.redis.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	cred := &Credential{}
	if err := json.Unmarshal(data, cred); err != nil {
		return nil, fmt.Errorf("credential: corrupt record for %s: %w", id, err)
	}
	return cred, nil
}

// Create claims the email index with SETNX before writing the record. Exactly
// one of two concurrent Creates for the same email observes the claim succeed;
// the other gets ErrDuplicateEmail without writing anything.
func (r *RedisStore) Create(ctx context.Context, cred *Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = r.now()
	}

	claimed, err := r.redis.SetNX(ctx, emailKey(cred.Email), cred.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !claimed {
		return ErrDuplicateEmail
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, recordKey(cred.ID), data, 0).Err(); err != nil {
		// Release the claim so the email is not orphaned.
		_ = r.redis.Del(ctx, emailKey(cred.Email)).Err()
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (r *RedisStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	cred, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	cred.PasswordHash = passwordHash
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, recordKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	cred, err := r.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	existed, err := deleteCredentialScript.Run(ctx, r.redis,
		[]string{recordKey(id), emailKey(cred.Email)}).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return existed == 1, nil
}
