package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is derived from the sign of the amount, never stored.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// DateLayout is the sortable text form dates are stored in, locally and remotely.
const DateLayout = time.DateOnly

const (
	DefaultIncomeDescription  = "Income"
	DefaultExpenseDescription = "Expense"
)

// Transaction is a single income or expense row owned by a user.
type Transaction struct {
	ID          string
	OwnerID     string
	Description string
	Amount      decimal.Decimal // Positive for income, negative for expense
	Date        string          // YYYY-MM-DD
	Synced      bool            // Confirmed written to the remote store
}

func (t *Transaction) Kind() Kind {
	if t.Amount.IsNegative() {
		return KindExpense
	}

	return KindIncome
}

// Document returns the value written to the remote store for this transaction.
func (t *Transaction) Document() Document {
	return Document{
		Description: t.Description,
		Amount:      t.Amount,
		DateText:    t.Date,
	}
}

// Document is the flat record held by the remote store under owner/key.
type Document struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DateText    string          `json:"dateText"`
}

// Child is one keyed document in a remote subtree snapshot.
type Child struct {
	Key      string
	Document Document
}

// Transaction converts a remote child into a confirmed transaction.
func (c Child) Transaction(ownerID string) *Transaction {
	return &Transaction{
		ID:          c.Key,
		OwnerID:     ownerID,
		Description: c.Document.Description,
		Amount:      c.Document.Amount,
		Date:        c.Document.DateText,
		Synced:      true,
	}
}

// Snapshot is one emission of a remote subtree subscription: the full subtree, or the
// error that ended or interrupted it.
type Snapshot struct {
	Children []Child
	Err      error
}

// Draft is a transaction proposed by an importer. Amount is signed.
type Draft struct {
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}
