package transaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Integer", input: "40", want: "40"},
		{name: "Trimmed", input: " 12.5 ", want: "12.5"},
		{name: "FourDecimals", input: "0.0001", want: "0.0001"},
		{name: "TrailingZerosBeyondScale", input: "1.500000", want: "1.5"},
		{name: "LargestStorable", input: "9999999999999999.9999", want: "9999999999999999.9999"},
		{name: "FiveDecimals", input: "0.00001", wantErr: true},
		{name: "ScientificBeyondScale", input: "1e-5", wantErr: true},
		{name: "TooLarge", input: "10000000000000000", wantErr: true},
		{name: "Zero", input: "0", wantErr: true},
		{name: "Negative", input: "-3", wantErr: true},
		{name: "NotANumber", input: "NaN", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := transaction.ParseAmount(tt.input)

			if tt.wantErr {
				assert.True(t, transaction.IsValidation(err), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
