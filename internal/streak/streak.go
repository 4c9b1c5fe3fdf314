// Package streak computes the daily spending streak: today's spend against a
// fixed limit, a two-week success calendar and the number of consecutive
// successful days leading up to today.
package streak

import (
	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

const (
	// DefaultDailyLimit is the spend ceiling for a successful day.
	DefaultDailyLimit = 40000
	// HistoryDays is the length of the success calendar, today included.
	HistoryDays = 14
	// LookbackDays bounds both the fetch window and the streak walk.
	LookbackDays = 30
)

const (
	BandSafe    = "safe"
	BandWarning = "warning"
	BandOver    = "over"
)

type (
	Day struct {
		Date      core.Date       `json:"date"`
		DayName   string          `json:"day_name"`
		Spent     decimal.Decimal `json:"spent"`
		IsSuccess bool            `json:"is_success"`
		IsToday   bool            `json:"is_today"`
	}

	Result struct {
		Streak             int             `json:"streak"`
		TodaySpent         decimal.Decimal `json:"today_spent"`
		Limit              decimal.Decimal `json:"limit"`
		LimitExceededToday bool            `json:"limit_exceeded_today"`
		TodayPercent       float64         `json:"today_percent"`
		Band               string          `json:"band"`
		// History runs oldest first and ends with today.
		History []Day `json:"history"`
	}
)

type Engine struct {
	limit decimal.Decimal
}

// New returns an engine with the given daily limit; a non-positive limit
// falls back to DefaultDailyLimit.
func New(limit decimal.Decimal) *Engine {
	if !limit.IsPositive() {
		limit = decimal.NewFromInt(DefaultDailyLimit)
	}
	return &Engine{limit: limit}
}

func (e *Engine) Limit() decimal.Decimal {
	return e.limit
}

// Window is the inclusive date range whose expenses Compute needs.
func Window(today core.Date) (from, to core.Date) {
	return today.AddDays(-LookbackDays), today
}

// Compute derives the streak view from expense transactions. Income rows are
// ignored, so callers may pass an unfiltered window.
//
// The calendar and the streak read the same per-day totals but treat a day
// with no expense rows differently: the calendar counts it as spent 0 and
// therefore successful, the streak stops at it.
func (e *Engine) Compute(txs []core.Transaction, today core.Date) Result {
	byDay := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		k := t.Date.Key()
		byDay[k] = byDay[k].Add(t.Amount)
	}

	res := Result{
		Limit:   e.limit,
		History: make([]Day, HistoryDays),
	}

	counting := true
	for i := 0; i < LookbackDays; i++ {
		d := today.AddDays(-i)
		spent, recorded := byDay[d.Key()]
		ok := spent.LessThanOrEqual(e.limit)

		if i < HistoryDays {
			res.History[HistoryDays-1-i] = Day{
				Date:      d,
				DayName:   dayName(d),
				Spent:     spent,
				IsSuccess: ok,
				IsToday:   i == 0,
			}
		}

		if i == 0 {
			res.TodaySpent = spent
			continue
		}
		if counting {
			if recorded && ok {
				res.Streak++
			} else {
				counting = false
			}
		}
		if !counting && i >= HistoryDays {
			break
		}
	}

	res.LimitExceededToday = res.TodaySpent.GreaterThan(e.limit)
	pct := core.Percent(res.TodaySpent, e.limit).InexactFloat64()
	res.TodayPercent = min(pct, 100)
	res.Band = band(pct)
	return res
}

func band(pct float64) string {
	switch {
	case pct > 100:
		return BandOver
	case pct > 75:
		return BandWarning
	default:
		return BandSafe
	}
}

var weekdays = [...]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

func dayName(d core.Date) string {
	return weekdays[d.Weekday()]
}
