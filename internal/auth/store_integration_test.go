//go:build integration

package auth_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.RunIntegrationTests(m,
		testutil.WithMigrations(),
		testutil.SkipIfNoDocker(),
	))
}

// createMember inserts the member sessions will reference.
func createMember(t *testing.T, q *db.Queries, email string) *db.Member {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	m, err := q.CreateMember(context.Background(), db.CreateMemberParams{
		Name:          "Test Member",
		Email:         email,
		AccountStatus: db.AccountStatusActive,
		PasswordHash:  hash,
	})
	if err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}
	return m
}

// exerciseStore runs the behavior every Store backend shares.
func exerciseStore(t *testing.T, store auth.Store, memberA, memberB string) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	mk := func(token, member string, created time.Time, ttl time.Duration) *auth.Session {
		s := &auth.Session{Token: token, MemberID: member, CreatedAt: created, ExpiresAt: created.Add(ttl)}
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s) error = %v", token, err)
		}
		return s
	}

	a1 := mk("token-a1-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", memberA, now, 2*time.Hour)
	mk("token-a2-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", memberA, now, 2*time.Hour)
	old := mk("token-b1-bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", memberB, now.Add(-25*time.Hour), 48*time.Hour)

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, a1.Token)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.MemberID != memberA || !got.ExpiresAt.Equal(a1.ExpiresAt) || !got.CreatedAt.Equal(a1.CreatedAt) {
			t.Errorf("Get() = %+v, want %+v", got, a1)
		}
		if _, err := store.Get(ctx, "missing"); !errors.Is(err, auth.ErrSessionNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("extend", func(t *testing.T) {
		want := now.Add(3 * time.Hour)
		if err := store.Extend(ctx, a1.Token, want); err != nil {
			t.Fatalf("Extend() error = %v", err)
		}
		got, err := store.Get(ctx, a1.Token)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !got.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
		}
		if err := store.Extend(ctx, "missing", want); !errors.Is(err, auth.ErrSessionNotFound) {
			t.Errorf("Extend(missing) error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("prune", func(t *testing.T) {
		n, err := store.DeleteCreatedBefore(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("DeleteCreatedBefore() error = %v", err)
		}
		if n != 1 {
			t.Errorf("DeleteCreatedBefore() = %d, want 1", n)
		}
		if _, err := store.Get(ctx, old.Token); !errors.Is(err, auth.ErrSessionNotFound) {
			t.Errorf("pruned session still present: %v", err)
		}
	})

	t.Run("delete by member", func(t *testing.T) {
		n, err := store.DeleteByMember(ctx, memberA)
		if err != nil {
			t.Fatalf("DeleteByMember() error = %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteByMember() = %d, want 2", n)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := mk("token-c1-ccccccccccccccccccccccccccccccccccc", memberB, now, time.Hour)
		if err := store.Delete(ctx, s.Token); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := store.Delete(ctx, s.Token); err != nil {
			t.Errorf("second Delete() error = %v, want nil", err)
		}
	})
}

func TestPostgresStore(t *testing.T) {
	t.Cleanup(func() { testutil.Reset(t) })
	q := db.New(testutil.GetPool())
	a := createMember(t, q, "a@trust.org")
	b := createMember(t, q, "b@trust.org")

	exerciseStore(t, auth.NewPostgresStore(q), a.ID, b.ID)
}

func TestPostgresStore_DeleteExpired(t *testing.T) {
	t.Cleanup(func() { testutil.Reset(t) })
	ctx := context.Background()
	q := db.New(testutil.GetPool())
	a := createMember(t, q, "a@trust.org")
	store := auth.NewPostgresStore(q)

	now := time.Now().UTC()
	_ = store.Create(ctx, &auth.Session{Token: "expired", MemberID: a.ID, CreatedAt: now.Add(-3 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	_ = store.Create(ctx, &auth.Session{Token: "live", MemberID: a.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	n, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}
}

func TestRedisStore(t *testing.T) {
	rc := testutil.NewRedisContainer(t)
	exerciseStore(t, auth.NewRedisStore(rc.Client), "member-a", "member-b")
}

func TestRedisStore_DeleteExpiredSweepsIndex(t *testing.T) {
	rc := testutil.NewRedisContainer(t)
	ctx := context.Background()
	store := auth.NewRedisStore(rc.Client)

	now := time.Now()
	if err := store.Create(ctx, &auth.Session{Token: "short", MemberID: "m1", CreatedAt: now, ExpiresAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, &auth.Session{Token: "long", MemberID: "m2", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("Get(short) error = %v, want ErrSessionNotFound after TTL", err)
	}
	n, err := store.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}
}

func TestRedisStore_ExtendExpiredSession(t *testing.T) {
	rc := testutil.NewRedisContainer(t)
	ctx := context.Background()
	store := auth.NewRedisStore(rc.Client)

	now := time.Now()
	if err := store.Create(ctx, &auth.Session{Token: "brief", MemberID: "m1", CreatedAt: now, ExpiresAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	time.Sleep(1500 * time.Millisecond)

	if err := store.Extend(ctx, "brief", time.Now().Add(time.Hour)); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("Extend(expired) error = %v, want ErrSessionNotFound", err)
	}
	n, err := rc.Client.Exists(ctx, "gfg:session:brief").Result()
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if n != 0 {
		t.Error("Extend recreated an expired session hash")
	}
}

func TestRedisStore_ExtendMovesKeyExpiry(t *testing.T) {
	rc := testutil.NewRedisContainer(t)
	ctx := context.Background()
	store := auth.NewRedisStore(rc.Client)

	now := time.Now()
	if err := store.Create(ctx, &auth.Session{Token: "live", MemberID: "m1", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Extend(ctx, "live", now.Add(2*time.Hour)); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	for _, key := range []string{"gfg:session:live", "gfg:session:member:m1"} {
		ttl, err := rc.Client.PTTL(ctx, key).Result()
		if err != nil {
			t.Fatalf("PTTL(%s) error = %v", key, err)
		}
		if ttl < time.Hour {
			t.Errorf("PTTL(%s) = %v, want about 2h", key, ttl)
		}
	}
}

func TestNewRedisClient(t *testing.T) {
	rc := testutil.NewRedisContainer(t)
	client, err := auth.NewRedisClient(context.Background(), config.RedisConfig{URL: rc.URL, PoolSize: 2})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()

	if _, err := auth.NewRedisClient(context.Background(), config.RedisConfig{URL: "://bad"}); err == nil {
		t.Error("NewRedisClient(bad url) error = nil, want error")
	}
}
