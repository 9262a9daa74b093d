package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/budgetbuddy/internal/encoding"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

const dateLayout = "02-01-2006"

var ErrUnknownFormat = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

// Parser reads Caixa Geral de Depósitos CSV exports. The layout is recognised from the
// header row, which may sit below any number of preamble lines.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.Draft, error) {
	utf8r, charset, err := enc.Detect(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	layout, ok := findLayout(rows)
	if !ok {
		return nil, ErrUnknownFormat
	}

	slog.Debug("parsing CGD statement", "profile", layout.profile.Name, "charset", charset)

	return layout.drafts(rows[layout.header+1:])
}

type layout struct {
	profile *Profile
	cols    map[string]int
	header  int
}

func findLayout(rows [][]string) (layout, bool) {
	for rowIdx, row := range rows {
		cols := make(map[string]int, len(row))

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if hasAll(cols, profiles[i].requiredCols()) {
				return layout{profile: &profiles[i], cols: cols, header: rowIdx}, true
			}
		}
	}

	return layout{}, false
}

func hasAll(cols map[string]int, names []string) bool {
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// drafts converts data rows. Rows without a date or a non-zero amount are footers or
// page markers and are skipped; a dated row without description is an error.
func (l layout) drafts(rows [][]string) ([]transaction.Draft, error) {
	var out []transaction.Draft

	for i, row := range rows {
		line := l.header + i + 2

		date, err := time.Parse(dateLayout, cell(row, l.cols[l.profile.DateCol]))
		if err != nil {
			continue
		}

		desc := cell(row, l.cols[l.profile.DescCol])
		if desc == "" {
			return nil, fmt.Errorf("row %d: missing description", line)
		}

		amount, ok := l.amount(row)
		if !ok {
			continue
		}

		out = append(out, transaction.Draft{
			Amount:      amount,
			Description: desc,
			Date:        date,
		})
	}

	return out, nil
}

func (l layout) amount(row []string) (decimal.Decimal, bool) {
	if l.profile.AmountMode == amountSigned {
		return nonZero(cell(row, l.cols[l.profile.AmountCol]))
	}

	if d, ok := nonZero(cell(row, l.cols[l.profile.DebitCol])); ok {
		return d.Abs().Neg(), true
	}

	if d, ok := nonZero(cell(row, l.cols[l.profile.CreditCol])); ok {
		return d.Abs(), true
	}

	return decimal.Zero, false
}

func nonZero(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseEuropeanAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
