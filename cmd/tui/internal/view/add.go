package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

// AddedMsg is sent after a transaction was recorded.
type AddedMsg struct {
	Transaction *transaction.Transaction
}

type addFields struct {
	amount      string
	description string
	date        string
}

type AddModel struct {
	CommonModel
	txService *transaction.Service

	kind    transaction.Kind
	fields  *addFields
	form    *huh.Form
	working bool
	err     error
}

func NewAddModel(txSvc *transaction.Service, kind transaction.Kind) AddModel {
	m := AddModel{
		txService: txSvc,
		kind:      kind,
		fields:    &addFields{date: time.Now().Format(transaction.DateLayout)},
	}
	m.form = m.buildForm()

	return m
}

func (m AddModel) Title() string {
	if m.kind == transaction.KindExpense {
		return "Add Expense"
	}

	return "Add Income"
}

func (m AddModel) ShortHelp() string { return "Tab: next field | Enter: save | Esc: cancel" }

func (m AddModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m AddModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case addResultMsg:
		m.working = false
		if msg.err != nil {
			m.err = msg.err
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return AddedMsg{Transaction: msg.tx} }

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.working {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.working = true

	return m, m.saveCmd()
}

func (m AddModel) buildForm() *huh.Form {
	placeholder := transaction.DefaultIncomeDescription
	if m.kind == transaction.KindExpense {
		placeholder = transaction.DefaultExpenseDescription
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("0.00").
				Value(&m.fields.amount).
				Validate(func(s string) error {
					_, err := transaction.ParseAmount(s)
					return err
				}),

			huh.NewInput().
				Key("description").
				Title("Description").
				Placeholder(placeholder).
				Value(&m.fields.description),

			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder(transaction.DateLayout).
				Value(&m.fields.date).
				Validate(func(s string) error {
					if _, err := time.Parse(transaction.DateLayout, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m AddModel) View() string {
	body := m.form.View()
	if m.working {
		body = "Saving..."
	}

	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(m.Title()), "", body)

	if m.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type addResultMsg struct {
	tx  *transaction.Transaction
	err error
}

func (m AddModel) saveCmd() tea.Cmd {
	kind := m.kind
	amount, description := m.fields.amount, m.fields.description
	dateText := strings.TrimSpace(m.fields.date)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if dateText == time.Now().Format(transaction.DateLayout) {
			if kind == transaction.KindExpense {
				tx, err := m.txService.AddExpense(ctx, amount, description)
				return addResultMsg{tx: tx, err: err}
			}

			tx, err := m.txService.AddIncome(ctx, amount, description)

			return addResultMsg{tx: tx, err: err}
		}

		date, err := time.Parse(transaction.DateLayout, dateText)
		if err != nil {
			return addResultMsg{err: err}
		}

		tx, err := m.txService.AddDated(ctx, kind, amount, description, date)

		return addResultMsg{tx: tx, err: err}
	}
}
