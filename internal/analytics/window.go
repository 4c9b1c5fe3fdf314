package analytics

import (
	"fmt"
	"strings"

	"dompet/internal/core"
)

const (
	ViewMonthly View = "monthly"
	ViewYearly  View = "yearly"
)

type View string

// ParseView accepts "monthly" or "yearly"; empty means monthly.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewMonthly:
		return ViewMonthly, nil
	case ViewYearly:
		return ViewYearly, nil
	default:
		return "", core.ValidationError(fmt.Sprintf("unknown view %q: must be monthly or yearly", s))
	}
}

// Window is an inclusive reporting range.
type Window struct {
	View  View      `json:"view"`
	Year  int       `json:"year"`
	Month int       `json:"month,omitempty"`
	From  core.Date `json:"from"`
	To    core.Date `json:"to"`
}

// Monthly spans the first to the last day of the month.
func Monthly(year, month int) Window {
	first := core.NewDate(year, month, 1)
	return Window{
		View:  ViewMonthly,
		Year:  year,
		Month: month,
		From:  first,
		To:    first.LastOfMonth(),
	}
}

// Yearly spans January 1 to December 31.
func Yearly(year int) Window {
	return Window{
		View: ViewYearly,
		Year: year,
		From: core.NewDate(year, 1, 1),
		To:   core.NewDate(year, 12, 31),
	}
}

// NewWindow builds the window for view, validating the month for monthly views.
func NewWindow(view View, year, month int) (Window, error) {
	if year < 1 || year > 9999 {
		return Window{}, core.ValidationError(fmt.Sprintf("invalid year %d", year))
	}
	switch view {
	case ViewYearly:
		return Yearly(year), nil
	case ViewMonthly:
		if month < 1 || month > 12 {
			return Window{}, core.ValidationError(fmt.Sprintf("invalid month %d", month))
		}
		return Monthly(year, month), nil
	default:
		return Window{}, core.ValidationError(fmt.Sprintf("unknown view %q", view))
	}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d core.Date) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// Key identifies the window in caches, e.g. "monthly|2025-03" or "yearly|2025".
func (w Window) Key() string {
	if w.View == ViewYearly {
		return fmt.Sprintf("%s|%04d", w.View, w.Year)
	}
	return fmt.Sprintf("%s|%04d-%02d", w.View, w.Year, w.Month)
}

// Title is the human label used on exported reports.
func (w Window) Title() string {
	if w.View == ViewYearly {
		return fmt.Sprintf("%d", w.Year)
	}
	return fmt.Sprintf("%s %d", MonthName(w.Month), w.Year)
}

var monthNames = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember"}

var monthShort = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// MonthName returns the Indonesian month name for 1..12.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// ShortLabel renders a day as "5 Jan".
func ShortLabel(d core.Date) string {
	return fmt.Sprintf("%d %s", d.Day(), monthShort[int(d.Month())-1])
}
