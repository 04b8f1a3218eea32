package activity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stepbank.ru/sparks-bot/internal/common"
	"stepbank.ru/sparks-bot/internal/sparks"
)

type fakeStore struct {
	days map[string]*Record
	ids  int64
}

func newFakeStore() *fakeStore { return &fakeStore{days: map[string]*Record{}} }

func key(userID int64, day time.Time) string {
	return fmt.Sprintf("%d/%s", userID, day.Format("2006-01-02"))
}

func (f *fakeStore) Upsert(_ context.Context, rec *Record) error {
	f.ids++
	rec.ID = f.ids
	cp := *rec
	f.days[key(rec.UserID, rec.Day)] = &cp
	return nil
}

func (f *fakeStore) GetDay(_ context.Context, userID int64, day time.Time) (*Record, error) {
	rec, ok := f.days[key(userID, day)]
	if !ok {
		return nil, common.ErrNoActivity
	}
	return rec, nil
}

func (f *fakeStore) History(_ context.Context, userID int64, since time.Time) ([]*Record, error) {
	var out []*Record
	for _, rec := range f.days {
		if rec.UserID == userID && !rec.Day.Before(since) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	return out, nil
}

var moscow = time.FixedZone("MSK", 3*60*60)

func newTestService(store Store) *Service {
	gen := NewGenerator(rand.New(rand.NewPCG(1, 2)))
	s := NewService(store, sparks.NewDefaultCalculator(), gen, moscow)
	// 23:30 по Москве — в UTC это уже другой час, но тот же день семьи.
	s.now = func() time.Time { return time.Date(2026, 3, 15, 20, 30, 0, 0, time.UTC) }
	return s
}

func TestLogActivity(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)

	report, err := s.LogActivity(context.Background(), 1, 12000, 150, 85, SourceManual)
	if err != nil {
		t.Fatal(err)
	}
	if report.Result.SparkPoints != 573 {
		t.Fatalf("sparks = %d, want 573", report.Result.SparkPoints)
	}
	wantDay := time.Date(2026, 3, 15, 0, 0, 0, 0, moscow)
	if !report.Record.Day.Equal(wantDay) {
		t.Fatalf("day = %v, want %v", report.Record.Day, wantDay)
	}

	// Повторная запись за тот же день заменяет предыдущую.
	if _, err := s.LogActivity(context.Background(), 1, 4500, 45, 75, SourceManual); err != nil {
		t.Fatal(err)
	}
	got, err := s.DaySparks(context.Background(), 1, wantDay)
	if err != nil {
		t.Fatal(err)
	}
	if got.Result.SparkPoints != 15 || len(store.days) != 1 {
		t.Fatalf("after overwrite: sparks=%d records=%d", got.Result.SparkPoints, len(store.days))
	}
}

func TestLogActivityValidation(t *testing.T) {
	s := newTestService(newFakeStore())
	cases := []struct {
		name    string
		steps   int64
		minutes float64
		hr      float64
	}{
		{"negative steps", -1, 10, 70},
		{"too many steps", MaxSteps + 1, 10, 70},
		{"negative minutes", 100, -5, 70},
		{"more minutes than a day has", 100, MaxActiveMinutes + 1, 70},
		{"nan minutes", 100, math.NaN(), 70},
		{"heart rate too high", 100, 10, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.LogActivity(context.Background(), 1, tc.steps, tc.minutes, tc.hr, SourceManual)
			if !errors.Is(err, common.ErrInvalidActivity) {
				t.Fatalf("err = %v, want ErrInvalidActivity", err)
			}
		})
	}
}

func TestLogActivityRejectsFutureDay(t *testing.T) {
	s := newTestService(newFakeStore())
	tomorrow := s.Today().AddDate(0, 0, 1)
	if _, err := s.LogActivityFor(context.Background(), 1, tomorrow, 100, 10, 70, SourceAPI); !errors.Is(err, common.ErrInvalidActivity) {
		t.Fatalf("err = %v", err)
	}
}

func TestDaySparksMissing(t *testing.T) {
	s := newTestService(newFakeStore())
	if _, err := s.DaySparks(context.Background(), 1, s.Today()); !errors.Is(err, common.ErrNoActivity) {
		t.Fatalf("err = %v", err)
	}
}

func TestSeedDemoOnlyOnce(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)

	n, err := s.SeedDemo(context.Background(), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 || len(store.days) != 10 {
		t.Fatalf("created %d, stored %d", n, len(store.days))
	}
	for _, rec := range store.days {
		if rec.Source != SourceDemo {
			t.Fatalf("source = %q", rec.Source)
		}
		if rec.Steps < 2000 || rec.Steps > 11998 {
			t.Fatalf("steps out of range: %d", rec.Steps)
		}
	}

	n, err = s.SeedDemo(context.Background(), 2, 10)
	if err != nil || n != 0 {
		t.Fatalf("second seed: n=%d err=%v", n, err)
	}
}

func TestSyncDemoDay(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)

	created, err := s.SyncDemoDay(context.Background(), 3)
	if err != nil || !created {
		t.Fatalf("first sync: created=%v err=%v", created, err)
	}
	created, err = s.SyncDemoDay(context.Background(), 3)
	if err != nil || created {
		t.Fatalf("second sync: created=%v err=%v", created, err)
	}
}

func TestRecentReturnsWindow(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	today := s.Today()
	for i := 0; i < 10; i++ {
		if _, err := s.LogActivityFor(context.Background(), 1, today.AddDate(0, 0, -i), 4500, 45, 75, SourceManual); err != nil {
			t.Fatal(err)
		}
	}

	reports, err := s.Recent(context.Background(), 1, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 7 {
		t.Fatalf("got %d reports, want 7", len(reports))
	}
	if !reports[0].Record.Day.Equal(today) {
		t.Fatalf("newest first expected, got %v", reports[0].Record.Day)
	}
}

func TestGeneratorRanges(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewPCG(42, 42)))
	for i := 0; i < 1000; i++ {
		steps, minutes, hr := g.Day()
		if steps < 2000 || steps > 11998 || minutes < 30 || minutes > 118 || hr < 65 || hr > 98 {
			t.Fatalf("out of range: %d %v %v", steps, minutes, hr)
		}
	}
}

func TestParseLogArgs(t *testing.T) {
	steps, minutes, hr, err := ParseLogArgs([]string{"8000", "45,5", "90"})
	if err != nil {
		t.Fatal(err)
	}
	if steps != 8000 || minutes != 45.5 || hr != 90 {
		t.Fatalf("got %d %v %v", steps, minutes, hr)
	}
	if _, _, _, err := ParseLogArgs([]string{"8000", "45"}); err == nil {
		t.Fatal("two args accepted")
	}
	if _, _, _, err := ParseLogArgs([]string{"много", "45", "90"}); err == nil {
		t.Fatal("non-numeric steps accepted")
	}
}

type fakeSender struct{ texts []string }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestHandleLogReplies(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(newTestService(newFakeStore()), sender, moscow)

	h.HandleLog(context.Background(), 100, 1, []string{"12000", "150", "85"})
	h.HandleLog(context.Background(), 100, 1, []string{"-5", "150", "85"})
	h.HandleLog(context.Background(), 100, 1, nil)

	if len(sender.texts) != 3 {
		t.Fatalf("sent %d messages", len(sender.texts))
	}
	if !strings.Contains(sender.texts[0], "573 искры") {
		t.Fatalf("success reply: %q", sender.texts[0])
	}
	if !strings.Contains(sender.texts[1], "шаги должны быть") {
		t.Fatalf("validation reply: %q", sender.texts[1])
	}
	if !strings.Contains(sender.texts[2], "Формат") {
		t.Fatalf("usage reply: %q", sender.texts[2])
	}
}

func TestFormatReportInvalid(t *testing.T) {
	r := &DayReport{
		Record: &Record{Day: time.Date(2026, 3, 15, 0, 0, 0, 0, moscow), Steps: 1},
		Result: sparks.Result{Valid: false},
	}
	if got := FormatReport(r, moscow); !strings.Contains(got, "не начислены") {
		t.Fatalf("got %q", got)
	}
}
