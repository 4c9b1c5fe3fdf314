package analytics

import (
	"testing"

	"dompet/internal/core"
)

func TestWindows(t *testing.T) {
	tests := []struct {
		name     string
		view     View
		year     int
		month    int
		from, to string
		key      string
	}{
		{"leap february", ViewMonthly, 2024, 2, "2024-02-01", "2024-02-29", "monthly|2024-02"},
		{"december", ViewMonthly, 2025, 12, "2025-12-01", "2025-12-31", "monthly|2025-12"},
		{"year", ViewYearly, 2025, 0, "2025-01-01", "2025-12-31", "yearly|2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWindow(tt.view, tt.year, tt.month)
			if err != nil {
				t.Fatalf("NewWindow: %v", err)
			}
			if w.From.Key() != tt.from || w.To.Key() != tt.to {
				t.Errorf("range = %s..%s, want %s..%s", w.From, w.To, tt.from, tt.to)
			}
			if w.Key() != tt.key {
				t.Errorf("key = %s, want %s", w.Key(), tt.key)
			}
			if !w.Contains(w.From) || !w.Contains(w.To) {
				t.Error("bounds must be inclusive")
			}
			if w.Contains(w.To.AddDays(1)) || w.Contains(w.From.AddDays(-1)) {
				t.Error("window leaks outside its bounds")
			}
		})
	}
}

func TestNewWindowRejectsBadInput(t *testing.T) {
	if _, err := NewWindow(ViewMonthly, 2025, 13); !core.IsValidation(err) {
		t.Errorf("month 13: got %v", err)
	}
	if _, err := NewWindow(ViewMonthly, 0, 1); !core.IsValidation(err) {
		t.Errorf("year 0: got %v", err)
	}
	if _, err := ParseView("weekly"); !core.IsValidation(err) {
		t.Errorf("weekly: got %v", err)
	}
	if v, err := ParseView(""); err != nil || v != ViewMonthly {
		t.Errorf("empty view = %q, %v", v, err)
	}
}

func TestTitles(t *testing.T) {
	if got := Monthly(2025, 8).Title(); got != "Agustus 2025" {
		t.Errorf("title = %q", got)
	}
	if got := Yearly(2025).Title(); got != "2025" {
		t.Errorf("title = %q", got)
	}
	if got := ShortLabel(core.NewDate(2025, 5, 7)); got != "7 Mei" {
		t.Errorf("label = %q", got)
	}
}
