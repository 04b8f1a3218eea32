package economy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/sparks"
)

// memStore — журнал трат в памяти. Заодно служит источником журнала для агрегатора.
type memStore struct {
	mu   sync.Mutex
	reqs []*SpendRequest
}

func (m *memStore) Create(_ context.Context, req *SpendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.Status == balance.StatusPending && req.Status == balance.StatusPending &&
			r.UserID == req.UserID && r.Kind == req.Kind && r.ItemID == req.ItemID {
			return common.ErrAlreadyPending
		}
	}
	req.CreatedAt = time.Now()
	cp := *req
	m.reqs = append(m.reqs, &cp)
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64, limit int) ([]*SpendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SpendRequest
	for i := len(m.reqs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.reqs[i].UserID == userID {
			out = append(out, m.reqs[i])
		}
	}
	return out, nil
}

func (m *memStore) ListPending(context.Context) ([]*SpendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SpendRequest
	for _, r := range m.reqs {
		if r.Status == balance.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Decide(_ context.Context, id uuid.UUID, status balance.LedgerStatus, decidedBy int64) (*SpendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.ID != id {
			continue
		}
		if r.Status != balance.StatusPending {
			return nil, common.ErrRequestDecided
		}
		now := time.Now()
		r.Status, r.DecidedAt, r.DecidedBy = status, &now, &decidedBy
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrRequestNotFound
}

func (m *memStore) SpendLedger(_ context.Context, userID int64) ([]balance.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []balance.LedgerEntry
	for _, r := range m.reqs {
		if r.UserID == userID {
			out = append(out, r.Entry())
		}
	}
	return out, nil
}

// history отдаёт одну активную запись вчерашнего дня (573 искры).
type history struct{}

func (history) ActivityHistory(context.Context, int64, time.Time) ([]balance.ActivityRecord, error) {
	return []balance.ActivityRecord{{
		Steps: 12000, ActiveMinutes: 150, AvgHeartRate: 85,
		Timestamp: time.Now().Add(-24 * time.Hour),
	}}, nil
}

func newTestService() (*Service, *memStore) {
	store := &memStore{}
	agg := balance.NewAggregator(sparks.NewDefaultCalculator(), history{}, store, 30)
	return NewService(store, agg), store
}

func purchase(itemID string, amount int64) Spend {
	return Spend{UserID: 1, Kind: balance.KindPurchase, ItemID: itemID, ItemName: "товар " + itemID, Amount: amount}
}

func TestHoldReservesSparks(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	req, err := s.Hold(ctx, purchase("a", 300))
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != balance.StatusPending {
		t.Fatalf("status = %s", req.Status)
	}

	display, _ := s.Balance(ctx, 1, balance.ModeDisplay)
	affordable, _ := s.Balance(ctx, 1, balance.ModeAffordability)
	if display != 573 || affordable != 273 {
		t.Fatalf("display=%d affordable=%d, want 573/273", display, affordable)
	}

	// На второй товар за 300 уже не хватает: 273 < 300.
	if _, err := s.Hold(ctx, purchase("b", 300)); !errors.Is(err, common.ErrInsufficientSparks) {
		t.Fatalf("err = %v, want ErrInsufficientSparks", err)
	}
}

func TestHoldDuplicatePending(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	if _, err := s.Hold(ctx, purchase("a", 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Hold(ctx, purchase("a", 10)); !errors.Is(err, common.ErrAlreadyPending) {
		t.Fatalf("err = %v, want ErrAlreadyPending", err)
	}
}

func TestApproveAndReject(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	a, _ := s.Hold(ctx, purchase("a", 100))
	b, _ := s.Hold(ctx, purchase("b", 200))

	if _, err := s.Approve(ctx, a.ID, 99); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reject(ctx, b.ID, 99); err != nil {
		t.Fatal(err)
	}

	display, _ := s.Balance(ctx, 1, balance.ModeDisplay)
	affordable, _ := s.Balance(ctx, 1, balance.ModeAffordability)
	if display != 473 || affordable != 473 {
		t.Fatalf("display=%d affordable=%d, want 473/473", display, affordable)
	}

	if _, err := s.Approve(ctx, a.ID, 99); !errors.Is(err, common.ErrRequestDecided) {
		t.Fatalf("second decision: %v", err)
	}
	if _, err := s.Reject(ctx, uuid.New(), 99); !errors.Is(err, common.ErrRequestNotFound) {
		t.Fatalf("unknown id: %v", err)
	}

	pending, _ := s.Pending(ctx)
	if len(pending) != 0 {
		t.Fatalf("pending = %d", len(pending))
	}
}

func TestSpendIsImmediate(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	req, err := s.Spend(ctx, Spend{UserID: 1, Kind: balance.KindScreenTime, Amount: 73})
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != balance.StatusApproved {
		t.Fatalf("status = %s", req.Status)
	}
	if got, _ := s.Balance(ctx, 1, balance.ModeDisplay); got != 500 {
		t.Fatalf("display = %d, want 500", got)
	}
	if _, err := s.Spend(ctx, Spend{UserID: 1, Kind: balance.KindScreenTime, Amount: 0}); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
}

func TestConcurrentHoldsDoNotOverspend(t *testing.T) {
	s, store := newTestService()
	ctx := context.Background()

	// 573 искры хватает ровно на пять заявок по 100.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Hold(ctx, purchase(uuid.NewString(), 100))
		}(i)
	}
	wg.Wait()

	pending, _ := store.ListPending(ctx)
	if len(pending) != 5 {
		t.Fatalf("%d holds succeeded, want 5", len(pending))
	}
	if got, _ := s.Balance(ctx, 1, balance.ModeAffordability); got != 73 {
		t.Fatalf("affordable = %d, want 73", got)
	}
}

func TestFormatSnapshot(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	_, _ = s.Hold(ctx, purchase("a", 300))

	snap, err := s.Snapshot(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	text := FormatSnapshot(snap)
	for _, want := range []string{"573 искры", "В резерве: 300 искр", "273 искры"} {
		if !strings.Contains(text, want) {
			t.Fatalf("%q not in %q", want, text)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	loc := time.UTC
	reqs := []*SpendRequest{
		{Kind: balance.KindScreenTime, Amount: 21, Status: balance.StatusApproved, CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, loc)},
		{Kind: balance.KindPurchase, ItemName: "Лего", Amount: 5000, Status: balance.StatusPending, CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, loc)},
	}
	text := FormatHistory(reqs, loc)
	if !strings.Contains(text, "21 минута") || !strings.Contains(text, "⏳") || !strings.Contains(text, "Лего") {
		t.Fatalf("got %q", text)
	}
	if FormatHistory(nil, loc) != "📋 Трат пока не было" {
		t.Fatal("empty history")
	}
}
