package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/ports"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "dompet.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTx(id, date string, typ core.TxType, amount string, created time.Time) core.Transaction {
	d, _ := core.ParseDate(date)
	tx := core.Transaction{
		ID:          id,
		UserID:      "u1",
		Date:        d,
		Type:        typ,
		Category:    "Makan",
		Amount:      decimal.RequireFromString(amount),
		Description: "nasi padang",
		IsRecurring: id == "b",
		CreatedAt:   created,
	}
	tx.Normalize()
	return tx
}

func TestRebind(t *testing.T) {
	got := Postgres.rebind("SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?")
	want := "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
	if q := SQLite.rebind("a = ?"); q != "a = ?" {
		t.Errorf("sqlite rebind changed the query: %q", q)
	}
}

func TestSQLiteTransactions(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	txs := []core.Transaction{
		sampleTx("a", "2025-03-05", core.Expense, "25000.50", base),
		sampleTx("b", "2025-03-01", core.Income, "5000000", base.Add(time.Second)),
		sampleTx("c", "2025-03-05", core.Expense, "10000", base.Add(2*time.Second)),
		sampleTx("d", "2025-04-02", core.Expense, "7000", base.Add(3*time.Second)),
	}
	for _, tx := range txs {
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create %s: %v", tx.ID, err)
		}
	}

	got, err := repo.ListTransactions(ctx, ports.TransactionQuery{
		UserID: "u1",
		From:   core.NewDate(2025, 3, 1),
		To:     core.NewDate(2025, 3, 31),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}

	a := got[1]
	if !a.Amount.Equal(decimal.RequireFromString("25000.5")) {
		t.Errorf("amount = %s", a.Amount)
	}
	if a.Date.Key() != "2025-03-05" || a.Necessity != core.Need || a.Account != core.DefaultAccount {
		t.Errorf("round trip mismatch: %+v", a)
	}
	if !a.CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", a.CreatedAt, base)
	}
	if !got[0].IsRecurring || got[0].Necessity != "" {
		t.Errorf("income row = %+v", got[0])
	}

	recent, err := repo.RecentTransactions(ctx, "u1", core.Expense, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "d" || recent[1].ID != "c" {
		t.Errorf("recent = %+v", recent)
	}

	if _, err := repo.GetTransaction(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get unknown: %v", err)
	}
}

func TestSQLiteRejectsInvalidTransaction(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.CreateTransaction(context.Background(), core.Transaction{ID: "x", UserID: "u1"})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSQLiteExportTracking(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "c", "e"} {
		if err := repo.CreateTransaction(ctx, sampleTx(id, "2025-03-05", core.Expense, "1000", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := repo.MarkExported(ctx, "c", base); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if ok, err := repo.IsExported(ctx, "c"); err != nil || !ok {
		t.Errorf("IsExported(c) = %v, %v", ok, err)
	}
	if ok, _ := repo.IsExported(ctx, "a"); ok {
		t.Error("a should still be pending")
	}
	pending, err := repo.PendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "e" {
		t.Errorf("pending = %+v", pending)
	}
	if limited, _ := repo.PendingExports(ctx, 1); len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
	if err := repo.MarkExported(ctx, "zzz", base); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("mark unknown: %v", err)
	}
}

func TestSQLiteGoals(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"Laptop", "Dana darurat"} {
		g := core.Goal{
			ID:           title,
			UserID:       "u1",
			Title:        title,
			TargetAmount: decimal.NewFromInt(10_000_000),
			SavedAmount:  decimal.NewFromInt(int64(i+1) * 1_000_000),
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.CreateGoal(ctx, g); err != nil {
			t.Fatalf("create goal: %v", err)
		}
	}

	goals, err := repo.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 2 || goals[0].Title != "Dana darurat" {
		t.Fatalf("goals = %+v", goals)
	}
	if !goals[0].SavedAmount.Equal(decimal.NewFromInt(2_000_000)) {
		t.Errorf("saved = %s", goals[0].SavedAmount)
	}

	if err := repo.DeleteGoal(ctx, "u2", "Laptop"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign delete: %v", err)
	}
	if err := repo.DeleteGoal(ctx, "u1", "Laptop"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if goals, _ := repo.ListGoals(ctx, "u1"); len(goals) != 1 {
		t.Errorf("goals after delete = %d", len(goals))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dompet.db")
	repo, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := repo.CreateTransaction(ctx, sampleTx("a", "2025-03-05", core.Expense, "1000", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	repo, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if _, err := repo.GetTransaction(ctx, "a"); err != nil {
		t.Errorf("row lost after reopen: %v", err)
	}
}
