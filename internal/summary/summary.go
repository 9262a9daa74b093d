// Package summary derives dashboard figures from a transaction list. Every function is pure
// and independent of the order of its input.
package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

const DefaultTrendMonths = 6

const monthLayout = "2006-01"

type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"` // Sum of absolute expense amounts
	Balance decimal.Decimal `json:"balance"`
}

// MonthPoint is the net amount of one calendar month.
type MonthPoint struct {
	Month string          `json:"month"` // YYYY-MM
	Label string          `json:"label"` // Jan, Feb, ...
	Total decimal.Decimal `json:"total"`
}

type Overview struct {
	Totals Totals       `json:"totals"`
	Trend  []MonthPoint `json:"trend"`
}

func ComputeTotals(txs []*transaction.Transaction) Totals {
	income := decimal.Zero
	expense := decimal.Zero

	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			expense = expense.Add(tx.Amount.Abs())
		} else {
			income = income.Add(tx.Amount)
		}
	}

	return Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// MonthlyTrend buckets transactions into the trailing window of months ending with now's
// month, oldest first. Months without transactions are present with a zero total.
func MonthlyTrend(txs []*transaction.Transaction, now time.Time, months int) []MonthPoint {
	if months <= 0 {
		months = DefaultTrendMonths
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	points := make([]MonthPoint, months)
	index := make(map[string]int, months)

	for i := range points {
		m := start.AddDate(0, i, 0)
		points[i] = MonthPoint{
			Month: m.Format(monthLayout),
			Label: m.Format("Jan"),
			Total: decimal.Zero,
		}
		index[points[i].Month] = i
	}

	for _, tx := range txs {
		if len(tx.Date) < len(monthLayout) {
			continue
		}

		i, ok := index[tx.Date[:len(monthLayout)]]
		if !ok {
			continue
		}

		points[i].Total = points[i].Total.Add(tx.Amount)
	}

	return points
}

func Dashboard(txs []*transaction.Transaction, now time.Time, months int) Overview {
	return Overview{
		Totals: ComputeTotals(txs),
		Trend:  MonthlyTrend(txs, now, months),
	}
}
