package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("transaction not found")
	ErrUnauthenticated   = errors.New("user not authenticated")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrLocalStore        = errors.New("local store failure")
)

// ValidationError reports bad user input. It is returned before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AmountScale is the number of decimal places the remote store keeps.
const AmountScale = 4

// MaxAmount is the first magnitude the remote amount column cannot hold.
var MaxAmount = decimal.New(1, 16)

// ParseAmount parses user input into a strictly positive decimal amount that the remote
// store can hold exactly.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "is required"}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", s)}
	}

	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	if !d.Equal(d.Truncate(AmountScale)) {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: fmt.Sprintf("must have at most %d decimal places", AmountScale)}
	}

	if d.GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "is too large"}
	}

	return d, nil
}
