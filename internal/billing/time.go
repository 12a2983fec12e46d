package billing

import "github.com/diewo77/go-lawfirm/internal/models"

// TimeTotals splits the derived amount of entries into billed and unbilled sums.
type TimeTotals struct {
	Billed        float64 `json:"billed"`
	Unbilled      float64 `json:"unbilled"`
	BilledMinutes int     `json:"billed_minutes"`
	TotalMinutes  int     `json:"total_minutes"`
}

// SumTime aggregates entries with amount = (duration / 60) × rate.
func SumTime(entries []models.TimeEntry) TimeTotals {
	var t TimeTotals
	for _, e := range entries {
		t.TotalMinutes += e.Duration
		if e.IsBilled {
			t.Billed += e.Amount()
			t.BilledMinutes += e.Duration
		} else {
			t.Unbilled += e.Amount()
		}
	}
	return t
}

// SumExpenses totals expense amounts.
func SumExpenses(expenses []models.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}
