package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders a signed amount with two decimals and the euro sign.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + d.Abs().StringFixed(2) + " €"
	}

	return "+" + d.StringFixed(2) + " €"
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
