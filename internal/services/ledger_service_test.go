package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/storage/memory"
)

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishTransactionCreated(_ context.Context, id, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

type fakeCache struct{ invalidated []string }

func (c *fakeCache) InvalidateUser(userID string) int {
	c.invalidated = append(c.invalidated, userID)
	return 1
}

type failingStore struct {
	*memory.Store
	err error
}

func (s failingStore) CreateTransaction(context.Context, core.Transaction) error { return s.err }

func newTestLedger(store LedgerStore, pub Publisher, cache Invalidator) *LedgerService {
	s := NewLedgerService(store, pub, cache)
	n := 0
	s.newID = func() string { n++; return "id-" + strconv.Itoa(n) }
	clock := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Second); return clock }
	return s
}

func expense(amount int64) core.Transaction {
	return core.Transaction{
		UserID:   "u1",
		Date:     core.NewDate(2025, 3, 10),
		Type:     core.Expense,
		Category: " Makan ",
		Amount:   decimal.NewFromInt(amount),
	}
}

func TestRecordTransaction(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{}
	cache := &fakeCache{}
	s := newTestLedger(store, pub, cache)

	got, err := s.RecordTransaction(context.Background(), expense(25000))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got.ID != "id-1" || got.CreatedAt.IsZero() {
		t.Errorf("id/created_at not assigned: %+v", got)
	}
	if got.Category != "Makan" || got.Necessity != core.Need || got.Account != core.DefaultAccount {
		t.Errorf("not normalized: %+v", got)
	}
	if len(pub.published) != 1 || pub.published[0] != "id-1" {
		t.Errorf("published = %v", pub.published)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "u1" {
		t.Errorf("invalidated = %v", cache.invalidated)
	}
	if stored, err := store.GetTransaction(context.Background(), "id-1"); err != nil || stored.Category != "Makan" {
		t.Errorf("stored = %+v, %v", stored, err)
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Transaction)
		want   error
	}{
		{"zero amount", func(t *core.Transaction) { t.Amount = decimal.Zero }, core.ErrInvalidAmount},
		{"negative amount", func(t *core.Transaction) { t.Amount = decimal.NewFromInt(-5) }, core.ErrInvalidAmount},
		{"missing user", func(t *core.Transaction) { t.UserID = "" }, core.ErrMissingUser},
		{"bad type", func(t *core.Transaction) { t.Type = "transfer" }, core.ErrInvalidType},
		{"blank category", func(t *core.Transaction) { t.Category = "  " }, core.ErrEmptyCategory},
		{"bad necessity", func(t *core.Transaction) { t.Necessity = "Maybe" }, core.ErrInvalidNecessity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			pub := &fakePublisher{}
			s := newTestLedger(store, pub, nil)

			tx := expense(1000)
			tt.mutate(&tx)
			_, err := s.RecordTransaction(context.Background(), tx)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if n, _ := store.PendingExports(context.Background(), 0); len(n) != 0 {
				t.Error("invalid input must not be written")
			}
			if len(pub.published) != 0 {
				t.Error("invalid input must not be published")
			}
		})
	}
}

func TestRecordTransactionPublishFailureIsNotFatal(t *testing.T) {
	store := memory.New()
	s := newTestLedger(store, &fakePublisher{err: errors.New("circuit breaker is open")}, nil)

	if _, err := s.RecordTransaction(context.Background(), expense(1000)); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	if pending, _ := store.PendingExports(context.Background(), 0); len(pending) != 1 {
		t.Errorf("row should be stored and pending export, got %d", len(pending))
	}
}

func TestRecordTransactionStoreFailure(t *testing.T) {
	boom := errors.New("database is locked")
	pub := &fakePublisher{}
	s := newTestLedger(failingStore{Store: memory.New(), err: boom}, pub, nil)

	_, err := s.RecordTransaction(context.Background(), expense(1000))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if len(pub.published) != 0 {
		t.Error("failed write must not be published")
	}
}

func TestRecentTransactions(t *testing.T) {
	s := newTestLedger(memory.New(), nil, nil)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		if _, err := s.RecordTransaction(ctx, expense(int64(i*1000))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentTransactions(ctx, "u1", core.Expense, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != DefaultRecentLimit || got[0].ID != "id-7" {
		t.Errorf("recent = %d items, first %q", len(got), got[0].ID)
	}

	if _, err := s.RecentTransactions(ctx, "u1", "bogus", 3); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("bad type err = %v", err)
	}
}

func TestGoals(t *testing.T) {
	cache := &fakeCache{}
	s := newTestLedger(memory.New(), nil, cache)
	ctx := context.Background()

	if _, err := s.AddGoal(ctx, core.Goal{UserID: "u1", Title: "", TargetAmount: decimal.NewFromInt(1)}); !errors.Is(err, core.ErrEmptyTitle) {
		t.Errorf("empty title err = %v", err)
	}

	for _, title := range []string{"Laptop", "Mudik"} {
		if _, err := s.AddGoal(ctx, core.Goal{UserID: "u1", Title: title, TargetAmount: decimal.NewFromInt(1_000_000)}); err != nil {
			t.Fatalf("add goal: %v", err)
		}
	}
	goals, err := s.ListGoals(ctx, "u1")
	if err != nil || len(goals) != 2 || goals[0].Title != "Mudik" {
		t.Fatalf("goals = %+v, %v", goals, err)
	}

	if err := s.DeleteGoal(ctx, "u1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete missing err = %v", err)
	}
	if err := s.DeleteGoal(ctx, "u1", goals[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(cache.invalidated) != 3 {
		t.Errorf("invalidations = %d, want 3", len(cache.invalidated))
	}
}
