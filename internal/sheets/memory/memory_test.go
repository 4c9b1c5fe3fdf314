package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

func TestSinkAppend(t *testing.T) {
	s := New()
	txs := []core.Transaction{
		{ID: "a", Date: core.NewDate(2025, 3, 1), Type: core.Expense, Category: "Makan", Amount: decimal.NewFromInt(25000)},
		{ID: "b", Date: core.NewDate(2025, 3, 2), Type: core.Income, Category: "Gaji", Amount: decimal.NewFromInt(5000000)},
	}

	ref, err := s.AppendTransactions(context.Background(), txs)
	if err != nil || ref != "mem:1-2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, _ = s.AppendTransactions(context.Background(), txs[:1])
	if ref != "mem:3-3" {
		t.Errorf("second ref = %q", ref)
	}

	rows := s.Rows()
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[1][0] != "2025-03-02" || rows[1][2] != "Masuk" {
		t.Errorf("row = %v", rows[1])
	}

	if ref, err := s.AppendTransactions(context.Background(), nil); err != nil || ref != "" {
		t.Errorf("empty append: ref=%q err=%v", ref, err)
	}
}

func TestSinkFailNext(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailNext(boom)

	tx := []core.Transaction{{ID: "a", Date: core.NewDate(2025, 3, 1), Type: core.Expense, Category: "Makan", Amount: decimal.NewFromInt(1)}}
	if _, err := s.AppendTransactions(context.Background(), tx); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(s.Rows()) != 0 {
		t.Error("failed append must not store rows")
	}
	if _, err := s.AppendTransactions(context.Background(), tx); err != nil {
		t.Errorf("failure should apply once: %v", err)
	}
}
