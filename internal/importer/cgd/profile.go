package cgd

type amountMode int

const (
	amountSigned amountMode = iota // One signed column, e.g. "Montante" = "-10,00"
	amountSplit                    // Unsigned "Débito" and "Crédito" columns
)

// Profile is the column layout of one CGD export.
type Profile struct {
	Name       string
	DateCol    string
	DescCol    string
	AmountMode amountMode
	AmountCol  string
	DebitCol   string
	CreditCol  string
}

func (p Profile) requiredCols() []string {
	if p.AmountMode == amountSplit {
		return []string{p.DateCol, p.DescCol, p.DebitCol, p.CreditCol}
	}

	return []string{p.DateCol, p.DescCol, p.AmountCol}
}

// profiles are tried in order; the card layout is the most specific.
var profiles = []Profile{
	{
		Name:       "cartão",
		DateCol:    "Data",
		DescCol:    "Descrição",
		AmountMode: amountSplit,
		DebitCol:   "Débito",
		CreditCol:  "Crédito",
	},
	{
		Name:       "extrato",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSigned,
		AmountCol:  "Movimento",
	},
	{
		Name:       "conta",
		DateCol:    "Data mov.",
		DescCol:    "Descrição",
		AmountMode: amountSigned,
		AmountCol:  "Montante",
	},
}
