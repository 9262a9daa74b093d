// Package native reads back the CSV files written by the export package.
package native

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/budgetbuddy/internal/encoding"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/export"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse expects the export header on the first line. Rows whose first column is not a
// date (the blank separator and the totals footer) are skipped.
func (p *Parser) Parse(r io.Reader) ([]transaction.Draft, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = export.Separator
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file")
		}

		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	for _, name := range []string{export.ColDate, export.ColDescription, export.ColAmount} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var drafts []transaction.Draft

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		date, err := time.Parse(transaction.DateLayout, field(row, cols[export.ColDate]))
		if err != nil {
			continue
		}

		amount, err := decimal.NewFromString(field(row, cols[export.ColAmount]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount: %w", line, err)
		}

		drafts = append(drafts, transaction.Draft{
			Amount:      amount,
			Description: field(row, cols[export.ColDescription]),
			Date:        date,
		})
	}

	return drafts, nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
