package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validExpense() Transaction {
	return Transaction{
		UserID:    "u1",
		Date:      NewDate(2025, 3, 14),
		Type:      Expense,
		Category:  "Makan",
		Amount:    decimal.NewFromInt(25000),
		Account:   "BCA",
		Necessity: Need,
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"missing user", func(tx *Transaction) { tx.UserID = "" }, ErrMissingUser},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad necessity", func(tx *Transaction) { tx.Necessity = "Maybe" }, ErrInvalidNecessity},
		{"long description", func(tx *Transaction) {
			b := make([]rune, 201)
			for i := range b {
				b[i] = 'x'
			}
			tx.Description = string(b)
		}, ErrDescriptionTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validExpense()
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{Type: Expense, Category: " Makan ", Account: ""}
	tx.Normalize()
	if tx.Account != DefaultAccount {
		t.Errorf("account = %q, want %q", tx.Account, DefaultAccount)
	}
	if tx.Necessity != Need {
		t.Errorf("necessity = %q, want Need", tx.Necessity)
	}
	if tx.Category != "Makan" {
		t.Errorf("category = %q", tx.Category)
	}

	in := Transaction{Type: Income, Necessity: Want, Account: "Mandiri"}
	in.Normalize()
	if in.Necessity != "" {
		t.Errorf("income necessity should be cleared, got %q", in.Necessity)
	}
	if in.Account != "Mandiri" {
		t.Errorf("account overwritten: %q", in.Account)
	}
}

func TestGoalDerivedValues(t *testing.T) {
	g := Goal{
		UserID:       "u1",
		Title:        "Laptop",
		TargetAmount: decimal.NewFromInt(10000000),
		SavedAmount:  decimal.NewFromInt(12000000),
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := g.Progress(); got != 120 {
		t.Errorf("progress = %v, want 120", got)
	}
	if !g.Completed() {
		t.Error("expected completed")
	}
	if got := g.Remaining(); !got.Equal(decimal.NewFromInt(-2000000)) {
		t.Errorf("remaining = %s", got)
	}

	zero := Goal{UserID: "u1", Title: "x", TargetAmount: decimal.Zero}
	if !errors.Is(zero.Validate(), ErrInvalidAmount) {
		t.Error("expected invalid target")
	}
	if zero.Progress() != 0 {
		t.Error("progress should be 0 for non-positive target")
	}
}

func TestSummarizeGoals(t *testing.T) {
	goals := []Goal{
		{TargetAmount: decimal.NewFromInt(100), SavedAmount: decimal.NewFromInt(25)},
		{TargetAmount: decimal.NewFromInt(300), SavedAmount: decimal.NewFromInt(75)},
	}
	s := SummarizeGoals(goals)
	if !s.TotalSaved.Equal(decimal.NewFromInt(100)) || !s.TotalTarget.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("totals = %s/%s", s.TotalSaved, s.TotalTarget)
	}
	if s.OverallProgress != 25 {
		t.Errorf("overall progress = %v, want 25", s.OverallProgress)
	}
	if empty := SummarizeGoals(nil); empty.OverallProgress != 0 {
		t.Errorf("empty overall progress = %v", empty.OverallProgress)
	}
}

func TestDateKeyAndParse(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.AddDays(1).Key() != "2025-03-01" {
		t.Errorf("add days = %s", d.AddDays(1).Key())
	}
	if d.LastOfMonth().Key() != "2025-02-28" || d.FirstOfMonth().Key() != "2025-02-01" {
		t.Errorf("month bounds = %s..%s", d.FirstOfMonth(), d.LastOfMonth())
	}
	if _, err := ParseDate("2025-13-01"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDateOfUsesLocalDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 23:30 UTC on the 1st is already the 2nd in UTC+7.
	ts := time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC).In(jakarta)
	if got := DateOf(ts).Key(); got != "2025-01-02" {
		t.Errorf("DateOf = %s, want 2025-01-02", got)
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-04-05T10:00:00Z"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"d":"2025-04-05"}` {
		t.Errorf("got %s", out)
	}
}
