package members

import (
	"context"
	"testing"

	"stepbank.ru/sparks-bot/internal/common"
)

type fakeStore struct {
	byID map[int64]*Member
}

func newFakeStore() *fakeStore { return &fakeStore{byID: map[int64]*Member{}} }

func (f *fakeStore) Create(_ context.Context, m *Member) error {
	cp := *m
	f.byID[m.UserID] = &cp
	return nil
}

func (f *fakeStore) GetByUserID(_ context.Context, userID int64) (*Member, error) {
	m, ok := f.byID[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return m, nil
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*Member, error) {
	for _, m := range f.byID {
		if m.Username == username {
			return m, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (f *fakeStore) Exists(_ context.Context, userID int64) (bool, error) {
	_, ok := f.byID[userID]
	return ok, nil
}

func (f *fakeStore) UpdateInfo(_ context.Context, userID int64, info UpdateInfo) error {
	m := f.byID[userID]
	m.Username, m.FirstName, m.LastName = info.Username, info.FirstName, info.LastName
	return nil
}

func (f *fakeStore) SetParent(_ context.Context, userID int64, isParent bool) error {
	f.byID[userID].IsParent = isParent
	return nil
}

func (f *fakeStore) ListChildren(context.Context) ([]*Member, error) { return f.list(false), nil }
func (f *fakeStore) ListParents(context.Context) ([]*Member, error)  { return f.list(true), nil }

func (f *fakeStore) list(parents bool) []*Member {
	var out []*Member
	for _, m := range f.byID {
		if m.IsParent == parents {
			out = append(out, m)
		}
	}
	return out
}

func TestHandleNewMemberMarksConfiguredParents(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, []int64{1})

	if err := svc.HandleNewMember(ctx, 1, "mom", "Анна", ""); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleNewMember(ctx, 2, "kid", "Петя", ""); err != nil {
		t.Fatal(err)
	}

	if !store.byID[1].IsParent || store.byID[2].IsParent {
		t.Fatalf("parent flags: %+v %+v", store.byID[1], store.byID[2])
	}

	children, _ := svc.ListChildren(ctx)
	if len(children) != 1 || children[0].UserID != 2 {
		t.Fatalf("children = %+v", children)
	}
}

func TestHandleNewMemberUpdatesReturningMember(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, nil)

	_ = svc.HandleNewMember(ctx, 5, "old", "Петя", "")
	if err := svc.HandleNewMember(ctx, 5, "new", "Пётр", "Иванов"); err != nil {
		t.Fatal(err)
	}
	if got := store.byID[5].DisplayName(); got != "@new" {
		t.Fatalf("display name = %q", got)
	}
}

func TestIsParent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, []int64{1})
	_ = store.Create(ctx, &Member{UserID: 3, FirstName: "Папа", IsParent: true})
	_ = store.Create(ctx, &Member{UserID: 4, FirstName: "Маша"})

	cases := map[int64]bool{1: true, 3: true, 4: false, 99: false}
	for id, want := range cases {
		got, err := svc.IsParent(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("IsParent(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestSyncParents(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	_ = store.Create(ctx, &Member{UserID: 1, FirstName: "Анна"})
	svc := NewService(store, []int64{1, 42})

	if err := svc.SyncParents(ctx); err != nil {
		t.Fatal(err)
	}
	if !store.byID[1].IsParent {
		t.Fatal("configured parent not marked")
	}
}

func TestGetByUsernameStripsAt(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	_ = store.Create(ctx, &Member{UserID: 7, Username: "kid", FirstName: "Петя"})
	svc := NewService(store, nil)

	m, err := svc.GetByUsername(ctx, "@kid")
	if err != nil || m.UserID != 7 {
		t.Fatalf("got %+v, %v", m, err)
	}
}
