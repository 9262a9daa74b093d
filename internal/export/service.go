package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/summary"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

const Separator = ';'

// Column names of the CSV header, in order.
const (
	ColDate        = "date"
	ColDescription = "description"
	ColAmount      = "amount"
	ColSynced      = "synced"
)

// Footer labels, written in the first column after a blank row.
const (
	FooterIncome  = "income"
	FooterExpense = "expense"
	FooterBalance = "balance"
)

// Service writes transaction lists as semicolon separated files with a totals footer.
type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: time.Now}
}

// WriteCSV writes one row per transaction in the given order, then the totals.
func (s *Service) WriteCSV(w io.Writer, txs []*transaction.Transaction) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator

	if err := cw.Write([]string{ColDate, ColDescription, ColAmount, ColSynced}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range txs {
		record := []string{tx.Date, tx.Description, tx.Amount.StringFixed(2), strconv.FormatBool(tx.Synced)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	totals := summary.ComputeTotals(txs)

	footer := [][]string{
		{"", "", "", ""},
		{FooterIncome, "", totals.Income.StringFixed(2), ""},
		{FooterExpense, "", totals.Expense.StringFixed(2), ""},
		{FooterBalance, "", totals.Balance.StringFixed(2), ""},
	}

	if err := cw.WriteAll(footer); err != nil {
		return fmt.Errorf("writing totals: %w", err)
	}

	return nil
}

// ExportFile writes the CSV into dir under a dated file name and returns its path.
func (s *Service) ExportFile(dir string, txs []*transaction.Transaction) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, s.FileName())

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := s.WriteCSV(f, txs); err != nil {
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return path, nil
}

// FileName is the suggested name of an export made now.
func (s *Service) FileName() string {
	return fmt.Sprintf("budgetbuddy_%s.csv", s.now().Format("20060102_150405"))
}

// TextReport renders a plain-text listing suitable for pasting into a message.
func (s *Service) TextReport(txs []*transaction.Transaction) string {
	var sb strings.Builder

	for _, tx := range txs {
		status := "synced"
		if !tx.Synced {
			status = "pending"
		}

		sign := "+"
		if tx.Amount.IsNegative() {
			sign = "-"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s € | %s\n", tx.Date, tx.Description, sign, tx.Amount.Abs().StringFixed(2), status)
	}

	totals := summary.ComputeTotals(txs)
	fmt.Fprintf(&sb, "Income %s € | Expense %s € | Balance %s €\n",
		totals.Income.StringFixed(2), totals.Expense.StringFixed(2), totals.Balance.StringFixed(2))

	return sb.String()
}
