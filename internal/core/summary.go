package core

import "github.com/shopspring/decimal"

// GoalSummary aggregates a user's goals for the goals overview.
type GoalSummary struct {
	TotalSaved      decimal.Decimal `json:"total_saved"`
	TotalTarget     decimal.Decimal `json:"total_target"`
	OverallProgress float64         `json:"overall_progress"`
}

// SummarizeGoals sums saved and target amounts across goals.
func SummarizeGoals(goals []Goal) GoalSummary {
	var s GoalSummary
	for _, g := range goals {
		s.TotalSaved = s.TotalSaved.Add(g.SavedAmount)
		s.TotalTarget = s.TotalTarget.Add(g.TargetAmount)
	}
	s.OverallProgress = Percent(s.TotalSaved, s.TotalTarget).InexactFloat64()
	return s
}
