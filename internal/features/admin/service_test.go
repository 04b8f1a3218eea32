package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"stepbank.ru/sparks-bot/internal/common"
)

type fakeStore struct {
	sessions map[int64]*Session
	attempts []LoginAttempt
	now      func() time.Time
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{sessions: map[int64]*Session{}, now: now}
}

func (f *fakeStore) CreateSession(_ context.Context, s *Session) error {
	s.IsActive = true
	f.sessions[s.UserID] = s
	return nil
}

func (f *fakeStore) GetActiveSession(_ context.Context, userID int64) (*Session, error) {
	s, ok := f.sessions[userID]
	if !ok || !s.IsActive || !s.ExpiresAt.After(f.now()) {
		return nil, common.ErrSessionExpired
	}
	return s, nil
}

func (f *fakeStore) DeactivateSession(_ context.Context, userID int64) error {
	if s, ok := f.sessions[userID]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeStore) UpdateActivity(context.Context, int64) error { return nil }

func (f *fakeStore) LogAttempt(_ context.Context, userID int64, success bool) error {
	f.attempts = append(f.attempts, LoginAttempt{UserID: userID, Success: success, AttemptTime: f.now()})
	return nil
}

func (f *fakeStore) RecentFailures(_ context.Context, userID int64, since time.Time) (int, error) {
	n := 0
	for _, a := range f.attempts {
		if a.UserID == userID && !a.Success && !a.AttemptTime.Before(since) {
			n++
		}
	}
	return n, nil
}

type parents map[int64]bool

func (p parents) IsParent(_ context.Context, userID int64) (bool, error) { return p[userID], nil }

const parentID = int64(7)

func newTestService(t *testing.T) (*Service, *fakeStore, *time.Time) {
	t.Helper()
	hash, err := HashPassword("секрет")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := newFakeStore(clock)
	s := NewService(store, parents{parentID: true}, hash, 24*time.Hour)
	s.now = clock
	return s, store, &now
}

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("пароль")
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword("пароль", hash) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("другой", hash) {
		t.Fatal("wrong password accepted")
	}
	if VerifyPassword("пароль", "not-a-hash") {
		t.Fatal("malformed hash accepted")
	}
}

func TestLoginAndRequireParent(t *testing.T) {
	s, _, now := newTestService(t)
	ctx := context.Background()

	if err := s.RequireParent(ctx, parentID); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("before login: %v", err)
	}
	if _, err := s.Login(ctx, parentID, "секрет"); err != nil {
		t.Fatal(err)
	}
	if err := s.RequireParent(ctx, parentID); err != nil {
		t.Fatalf("after login: %v", err)
	}

	*now = now.Add(25 * time.Hour)
	if err := s.RequireParent(ctx, parentID); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("after expiry: %v", err)
	}
}

func TestLoginRejectsChildren(t *testing.T) {
	s, _, _ := newTestService(t)
	if _, err := s.Login(context.Background(), 99, "секрет"); !errors.Is(err, common.ErrNotParent) {
		t.Fatalf("err = %v", err)
	}
	if err := s.RequireParent(context.Background(), 99); !errors.Is(err, common.ErrNotParent) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoginLockout(t *testing.T) {
	s, _, now := newTestService(t)
	ctx := context.Background()

	for i := 0; i < MaxFailedAttempts; i++ {
		if _, err := s.Login(ctx, parentID, "мимо"); !errors.Is(err, common.ErrWrongPassword) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if _, err := s.Login(ctx, parentID, "секрет"); !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("locked out login: %v", err)
	}

	*now = now.Add(LockoutPeriod + time.Minute)
	if _, err := s.Login(ctx, parentID, "секрет"); err != nil {
		t.Fatalf("after lockout: %v", err)
	}
}

func TestLogout(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := s.Login(ctx, parentID, "секрет"); err != nil {
		t.Fatal(err)
	}
	if err := s.Logout(ctx, parentID); err != nil {
		t.Fatal(err)
	}
	if err := s.RequireParent(ctx, parentID); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("after logout: %v", err)
	}
}
