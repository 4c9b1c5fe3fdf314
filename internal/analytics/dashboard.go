package analytics

import (
	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

type (
	DailyFlow struct {
		Date    core.Date       `json:"date"`
		Label   string          `json:"name"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	Dashboard struct {
		Income  decimal.Decimal    `json:"income"`
		Expense decimal.Decimal    `json:"expense"`
		Balance decimal.Decimal    `json:"balance"`
		Chart   []DailyFlow        `json:"chart"`
		Recent  []core.Transaction `json:"recent"`
	}
)

// Summarize builds the all-time dashboard from transactions ordered
// ascending by date. The chart keeps that order; Recent is newest first.
func Summarize(txs []core.Transaction) Dashboard {
	d := Dashboard{Chart: []DailyFlow{}, Recent: []core.Transaction{}}
	index := make(map[string]int)

	for _, t := range txs {
		key := t.Date.Key()
		i, ok := index[key]
		if !ok {
			i = len(d.Chart)
			index[key] = i
			d.Chart = append(d.Chart, DailyFlow{Date: t.Date, Label: ShortLabel(t.Date)})
		}
		switch t.Type {
		case core.Income:
			d.Income = d.Income.Add(t.Amount)
			d.Chart[i].Income = d.Chart[i].Income.Add(t.Amount)
		case core.Expense:
			d.Expense = d.Expense.Add(t.Amount)
			d.Chart[i].Expense = d.Chart[i].Expense.Add(t.Amount)
		}
	}
	d.Balance = d.Income.Sub(d.Expense)

	for i := len(txs) - 1; i >= 0 && len(d.Recent) < RecentLimit; i-- {
		d.Recent = append(d.Recent, txs[i])
	}
	return d
}
