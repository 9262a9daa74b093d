package importer

import (
	"fmt"
	"io"
	"slices"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/importer/cgd"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/importer/native"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

type Bank string

const (
	BankCGD    Bank = "cgd"
	BankNative Bank = "budgetbuddy" // Files written by the CSV export
)

// Parser turns a statement file into signed transaction drafts.
type Parser interface {
	Parse(r io.Reader) ([]transaction.Draft, error)
}

type Service struct {
	parsers map[Bank]Parser
}

func NewService() *Service {
	return &Service{
		parsers: map[Bank]Parser{
			BankCGD:    cgd.NewParser(),
			BankNative: native.NewParser(),
		},
	}
}

func (s *Service) Import(bank Bank, r io.Reader) ([]transaction.Draft, error) {
	p, ok := s.parsers[bank]
	if !ok {
		return nil, fmt.Errorf("unknown bank: %s", bank)
	}

	return p.Parse(r)
}

// Banks lists the supported statement formats in a stable order.
func (s *Service) Banks() []Bank {
	banks := make([]Bank, 0, len(s.parsers))
	for b := range s.parsers {
		banks = append(banks, b)
	}

	slices.Sort(banks)

	return banks
}
