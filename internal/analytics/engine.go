// Package analytics derives the analytics view of a reporting window:
// totals, health score, trend and category breakdowns, insights and a
// linear savings projection.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

const (
	InsightRisk        InsightType = "risk"
	InsightOpportunity InsightType = "opportunity"
	InsightInfo        InsightType = "info"
)

// ProjectionPeriods is the number of forward periods in the savings projection.
const ProjectionPeriods = 6

// deficitScore replaces the computed health score whenever expense exceeds income.
const deficitScore = 10

type (
	InsightType string

	KPI struct {
		Income      decimal.Decimal `json:"income"`
		Expense     decimal.Decimal `json:"expense"`
		Savings     decimal.Decimal `json:"savings"`
		SavingsRate float64         `json:"savings_rate"`
		HealthScore int             `json:"health_score"`
		ScoreBand   string          `json:"score_band"`
		ScoreLabel  string          `json:"score_label"`
	}

	// TrendPoint holds income and expense sums for one day-of-month.
	TrendPoint struct {
		Day     int             `json:"name"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	CategoryValue struct {
		Name  string          `json:"name"`
		Value decimal.Decimal `json:"value"`
	}

	Insight struct {
		Type    InsightType `json:"type"`
		Title   string      `json:"title"`
		Message string      `json:"message"`
	}

	ProjectionPoint struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}

	GoalProgress struct {
		Title   string          `json:"title"`
		Current decimal.Decimal `json:"current"`
		Target  decimal.Decimal `json:"target"`
		Percent int             `json:"percent"`
		Width   float64         `json:"width"`
	}

	Report struct {
		Window     Window            `json:"window"`
		KPI        KPI               `json:"kpi"`
		Trend      []TrendPoint      `json:"trend"`
		Categories []CategoryValue   `json:"categories"`
		Insights   []Insight         `json:"insights"`
		Projection []ProjectionPoint `json:"projection"`
		Goals      []GoalProgress    `json:"goals"`
	}
)

// placeholderGoals are shown on the analytics view in place of stored goals.
var placeholderGoals = []struct {
	title           string
	current, target int64
}{
	{"Dana Darurat", 5000000, 10000000},
	{"Liburan", 2000000, 5000000},
}

// Analyze computes the report for txs. It never fails: an empty input gives
// zero totals, empty series and no insights.
func Analyze(w Window, txs []core.Transaction) Report {
	var income, expense decimal.Decimal
	trend := make(map[int]*TrendPoint)
	var catOrder []string
	catSum := make(map[string]decimal.Decimal)

	for _, t := range txs {
		day := t.Date.Day()
		tp, ok := trend[day]
		if !ok {
			tp = &TrendPoint{Day: day}
			trend[day] = tp
		}
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
			tp.Income = tp.Income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
			tp.Expense = tp.Expense.Add(t.Amount)
			if _, seen := catSum[t.Category]; !seen {
				catOrder = append(catOrder, t.Category)
			}
			catSum[t.Category] = catSum[t.Category].Add(t.Amount)
		}
	}

	savings := income.Sub(expense)
	rate := core.Percent(savings, income).InexactFloat64()
	score := HealthScore(rate, income, expense)

	r := Report{
		Window: w,
		KPI: KPI{
			Income:      income,
			Expense:     expense,
			Savings:     savings,
			SavingsRate: rate,
			HealthScore: score,
			ScoreBand:   ScoreBand(score),
			ScoreLabel:  ScoreLabel(score),
		},
		Trend:      make([]TrendPoint, 0, len(trend)),
		Categories: make([]CategoryValue, 0, len(catOrder)),
		Insights:   []Insight{},
		Projection: Project(savings),
		Goals:      PlaceholderGoals(),
	}

	for _, tp := range trend {
		r.Trend = append(r.Trend, *tp)
	}
	sort.Slice(r.Trend, func(i, j int) bool { return r.Trend[i].Day < r.Trend[j].Day })

	for _, name := range catOrder {
		r.Categories = append(r.Categories, CategoryValue{Name: name, Value: catSum[name]})
	}

	if expense.GreaterThan(income) {
		r.Insights = append(r.Insights, Insight{
			Type:    InsightRisk,
			Title:   "Cashflow Alert",
			Message: "Pengeluaran melebihi pemasukan bulan ini!",
		})
	}
	if rate > 20 {
		r.Insights = append(r.Insights, Insight{
			Type:    InsightOpportunity,
			Title:   "Healthy Savings",
			Message: fmt.Sprintf("Saving rate kamu %.0f%%, sangat sehat!", math.Round(rate)),
		})
	}
	if top, ok := TopCategory(r.Categories); ok {
		r.Insights = append(r.Insights, Insight{
			Type:    InsightInfo,
			Title:   "Top Spending",
			Message: "Pengeluaran terbesar ada di kategori: " + top.Name,
		})
	}

	return r
}

// HealthScore maps a savings rate to 0..100. A deficit always scores 10.
func HealthScore(savingsRate float64, income, expense decimal.Decimal) int {
	if expense.GreaterThan(income) {
		return deficitScore
	}
	score := math.Min(100, math.Max(0, savingsRate*1.5+40))
	return int(math.Floor(score + 0.5))
}

// TopCategory returns the category with the largest value. Ties go to the
// earliest entry, which is what a stable descending sort would put first.
func TopCategory(cats []CategoryValue) (CategoryValue, bool) {
	if len(cats) == 0 {
		return CategoryValue{}, false
	}
	top := cats[0]
	for _, c := range cats[1:] {
		if c.Value.GreaterThan(top.Value) {
			top = c
		}
	}
	return top, true
}

// Project extrapolates savings linearly: period i holds savings*(1+i).
func Project(savings decimal.Decimal) []ProjectionPoint {
	out := make([]ProjectionPoint, 0, ProjectionPeriods)
	for i := 1; i <= ProjectionPeriods; i++ {
		out = append(out, ProjectionPoint{
			Name:   fmt.Sprintf("Bulan +%d", i),
			Amount: savings.Add(savings.Mul(decimal.NewFromInt(int64(i)))),
		})
	}
	return out
}

// PlaceholderGoals returns the fixed goals shown on the analytics view.
// TODO: feed stored goals here once the analytics view exposes goal selection.
func PlaceholderGoals() []GoalProgress {
	out := make([]GoalProgress, 0, len(placeholderGoals))
	for _, g := range placeholderGoals {
		current := decimal.NewFromInt(g.current)
		target := decimal.NewFromInt(g.target)
		pct := core.Percent(current, target).InexactFloat64()
		out = append(out, GoalProgress{
			Title:   g.title,
			Current: current,
			Target:  target,
			Percent: int(math.Floor(pct + 0.5)),
			Width:   math.Min(100, pct),
		})
	}
	return out
}

// ScoreBand buckets a health score for display.
func ScoreBand(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 50:
		return "good"
	case score >= 30:
		return "warning"
	default:
		return "danger"
	}
}

func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 50:
		return "Good"
	default:
		return "Risk"
	}
}
