package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, store Store, token, memberID string, created time.Time, ttl time.Duration) {
	t.Helper()
	err := store.Create(context.Background(), &Session{
		Token:     token,
		MemberID:  memberID,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", token, err)
	}
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, "tok-a", "m1", t0, 2*time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:  "existing session",
			token: "tok-a",
		},
		{
			name:    "non-existent session",
			token:   "nonexistenttoken123456789012345678901234",
			wantErr: ErrSessionNotFound,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: ErrSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := store.Get(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && s.MemberID != "m1" {
				t.Errorf("Get() MemberID = %q, want m1", s.MemberID)
			}
		})
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, "tok-a", "m1", t0, time.Hour)

	s, _ := store.Get(context.Background(), "tok-a")
	s.ExpiresAt = t0.Add(100 * time.Hour)

	again, _ := store.Get(context.Background(), "tok-a")
	if !again.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("stored session mutated through Get result: ExpiresAt = %v", again.ExpiresAt)
	}
}

func TestMemoryStore_Extend(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "tok-a", "m1", t0, time.Hour)

	want := t0.Add(3 * time.Hour)
	if err := store.Extend(ctx, "tok-a", want); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	s, _ := store.Get(ctx, "tok-a")
	if !s.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, want)
	}

	if err := store.Extend(ctx, "missing", want); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Extend(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "tok-a", "m1", t0, time.Hour)

	if err := store.Delete(ctx, "tok-a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "tok-a"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrSessionNotFound", err)
	}
	if err := store.Delete(ctx, "tok-a"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
}

func TestMemoryStore_DeleteByMember(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "tok-a", "m1", t0, time.Hour)
	seed(t, store, "tok-b", "m1", t0, time.Hour)
	seed(t, store, "tok-c", "m2", t0, time.Hour)

	n, err := store.DeleteByMember(ctx, "m1")
	if err != nil {
		t.Fatalf("DeleteByMember() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteByMember() = %d, want 2", n)
	}
	if _, err := store.Get(ctx, "tok-c"); err != nil {
		t.Errorf("other member's session removed: %v", err)
	}
}

func TestMemoryStore_DeleteCreatedBefore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "old", "m1", t0.Add(-25*time.Hour), 48*time.Hour)
	seed(t, store, "edge", "m2", t0.Add(-24*time.Hour), 48*time.Hour)
	seed(t, store, "new", "m3", t0, time.Hour)

	n, err := store.DeleteCreatedBefore(ctx, t0.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteCreatedBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteCreatedBefore() = %d, want 1", n)
	}
	for _, token := range []string{"edge", "new"} {
		if _, err := store.Get(ctx, token); err != nil {
			t.Errorf("Get(%s) error = %v, want kept", token, err)
		}
	}
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seed(t, store, "expired", "m1", t0.Add(-3*time.Hour), 2*time.Hour)
	seed(t, store, "at-boundary", "m2", t0.Add(-2*time.Hour), 2*time.Hour)
	seed(t, store, "live", "m3", t0, 2*time.Hour)

	n, err := store.DeleteExpired(ctx, t0)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteExpired() = %d, want 2", n)
	}
	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}

func TestSession_ExpiredAt(t *testing.T) {
	s := &Session{ExpiresAt: t0}
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before expiry", t0.Add(-time.Second), false},
		{"at expiry", t0, true},
		{"after expiry", t0.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ExpiredAt(tt.now); got != tt.want {
				t.Errorf("ExpiredAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
