package screentime

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"stepbank.ru/sparks-bot/internal/balance"
	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/features/economy"
)

// fakeLedger держит заработанное и журнал; баланс считается через balance.Snapshot.
type fakeLedger struct {
	earned int64
	spent  int64
	held   int64
	spends []economy.Spend
}

func (f *fakeLedger) Snapshot(context.Context, int64) (*balance.Snapshot, error) {
	return &balance.Snapshot{Records: 1, Earned: f.earned, Spent: f.spent, Held: f.held}, nil
}

func (f *fakeLedger) Spend(_ context.Context, sp economy.Spend) (*economy.SpendRequest, error) {
	if f.earned-f.spent-f.held < sp.Amount {
		return nil, common.ErrInsufficientSparks
	}
	f.spent += sp.Amount
	f.spends = append(f.spends, sp)
	return &economy.SpendRequest{ID: uuid.New(), Amount: sp.Amount, Kind: sp.Kind, Status: balance.StatusApproved}, nil
}

func TestAvailableMinutesRespectsHolds(t *testing.T) {
	s := NewService(&fakeLedger{earned: 100, held: 30})
	got, err := s.AvailableMinutes(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 70 {
		t.Fatalf("minutes = %d, want 70", got)
	}
}

func TestAvailableMinutesNeverNegative(t *testing.T) {
	s := NewService(&fakeLedger{earned: 10, spent: 50})
	if got, _ := s.AvailableMinutes(context.Background(), 1); got != 0 {
		t.Fatalf("minutes = %d, want 0", got)
	}
}

func TestUnlock(t *testing.T) {
	ledger := &fakeLedger{earned: 100}
	s := NewService(ledger)
	ctx := context.Background()

	req, err := s.Unlock(ctx, 1, 45)
	if err != nil {
		t.Fatal(err)
	}
	if req.Amount != 45 || ledger.spends[0].Kind != balance.KindScreenTime {
		t.Fatalf("req=%+v spends=%+v", req, ledger.spends)
	}
	if _, err := s.Unlock(ctx, 1, 60); !errors.Is(err, common.ErrInsufficientSparks) {
		t.Fatalf("overdraw: %v", err)
	}
	if _, err := s.Unlock(ctx, 1, 0); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("zero minutes: %v", err)
	}
	if left, _ := s.AvailableMinutes(ctx, 1); left != 55 {
		t.Fatalf("left = %d, want 55", left)
	}
}

type fakeSender struct{ texts []string }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestHandleScreen(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(NewService(&fakeLedger{earned: 30}), sender)
	ctx := context.Background()

	h.HandleScreen(ctx, 1, 1, nil)
	h.HandleScreen(ctx, 1, 1, []string{"21"})
	h.HandleScreen(ctx, 1, 1, []string{"100"})

	want := []string{"30 минут", "Осталось: 9 минут", "Доступно: 9 минут"}
	for i, w := range want {
		if !strings.Contains(sender.texts[i], w) {
			t.Fatalf("reply %d = %q, want %q", i, sender.texts[i], w)
		}
	}
	if !strings.Contains(sender.texts[1], "21 минута") {
		t.Fatalf("reply = %q", sender.texts[1])
	}
}
