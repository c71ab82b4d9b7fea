package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store, err := NewStore(rdb)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, mr
}

func testSession(id, userID string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		SessionID: id,
		UserID:    userID,
		Email:     "a@b.com",
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func TestStoreSaveGetRoundTrip(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	sess := testSession("sess-1", "user-1", time.Hour)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != sess.SessionID || got.UserID != sess.UserID || got.Email != sess.Email {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, sess)
	}
	if got.CreatedAt != sess.CreatedAt || got.ExpiresAt != sess.ExpiresAt {
		t.Fatalf("timestamp mismatch: %+v vs %+v", got, sess)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newStoreTest(t)

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStoreLazyExpiryOnGet(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testSession("sess-1", "user-1", time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Jump past the expiry for both the store clock and Redis TTLs.
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	mr.FastForward(2 * time.Hour)

	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session must read as ErrNotFound, got %v", err)
	}

	// And it is gone, not just hidden.
	existed, err := store.Delete(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if existed {
		t.Fatal("expired session still present after lazy-expiry read")
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testSession("sess-1", "user-1", time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	existed, err := store.Delete(ctx, "sess-1")
	if err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if !existed {
		t.Fatal("first Delete must report the session existed")
	}

	existed, err = store.Delete(ctx, "sess-1")
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if existed {
		t.Fatal("second Delete must report false")
	}
}

func TestStoreDeleteAllForUser(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, testSession(id, "user-1", time.Hour)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := store.Save(ctx, testSession("other", "user-2", time.Hour)); err != nil {
		t.Fatalf("Save other: %v", err)
	}

	deleted, err := store.DeleteAllForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted = %d, want 3", deleted)
	}

	if _, err := store.Get(ctx, "other"); err != nil {
		t.Fatalf("unrelated user's session was removed: %v", err)
	}
}

func TestStoreSweepExpiredCountsOnlyExpired(t *testing.T) {
	store, _ := newStoreTest(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	if err := store.Save(ctx, testSession("live-1", "user-1", time.Hour)); err != nil {
		t.Fatalf("Save live-1: %v", err)
	}
	if err := store.Save(ctx, testSession("live-2", "user-1", 2*time.Hour)); err != nil {
		t.Fatalf("Save live-2: %v", err)
	}
	if err := store.Save(ctx, testSession("dying", "user-2", time.Minute)); err != nil {
		t.Fatalf("Save dying: %v", err)
	}

	// Advance the store clock past one session's expiry. Redis TTLs are left
	// alone so the sweep is what removes the record.
	store.now = func() time.Time { return base.Add(30 * time.Minute) }

	removed, err := store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	removed, err = store.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("second SweepExpired: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second sweep removed = %d, want 0", removed)
	}

	if _, err := store.Get(ctx, "live-1"); err != nil {
		t.Fatalf("live session removed by sweep: %v", err)
	}
}

func TestStoreActiveSessionIDsPrunesIndex(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	if err := store.Save(ctx, testSession("short", "user-1", time.Minute)); err != nil {
		t.Fatalf("Save short: %v", err)
	}
	if err := store.Save(ctx, testSession("long", "user-1", time.Hour)); err != nil {
		t.Fatalf("Save long: %v", err)
	}

	// Let Redis evict the short-lived record by TTL.
	mr.FastForward(5 * time.Minute)

	ids, err := store.ActiveSessionIDs(ctx, "user-1")
	if err != nil {
		t.Fatalf("ActiveSessionIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "long" {
		t.Fatalf("ids = %v, want [long]", ids)
	}

	count, err := store.ActiveSessionCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("ActiveSessionCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestStoreCorruptRecordReadsAsNotFound(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	mr.Set(sessionKey("bad"), "\xff\x00garbage")

	if _, err := store.Get(ctx, "bad"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt record: want ErrNotFound, got %v", err)
	}
}

func TestStoreBackendDown(t *testing.T) {
	store, mr := newStoreTest(t)
	ctx := context.Background()

	mr.Close()

	if err := store.Save(ctx, testSession("sess-1", "user-1", time.Hour)); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Save on dead backend: want ErrBackendUnavailable, got %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Get on dead backend: want ErrBackendUnavailable, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Ping on dead backend: want ErrBackendUnavailable, got %v", err)
	}
}
