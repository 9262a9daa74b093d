package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/preferences"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/summary"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

const trendBarWidth = 30

// ResourceMsg delivers one emission of the observed transaction list.
type ResourceMsg struct {
	Resource transaction.Resource
}

// OpenAddMsg asks for the add form of the given kind.
type OpenAddMsg struct{ Kind transaction.Kind }

type OpenImportMsg struct{}

// OpenExportMsg carries the list on screen when export was requested.
type OpenExportMsg struct{ Transactions []*transaction.Transaction }

type SignOutMsg struct{}

type syncResultMsg struct {
	result transaction.SyncResult
	err    error
}

type simulateErrorsMsg struct {
	enabled bool
	err     error
}

type DashboardModel struct {
	CommonModel
	txService   *transaction.Service
	prefs       *preferences.Store
	ownerID     string
	email       string
	trendMonths int

	resource       transaction.Resource
	table          table.Model
	spinner        spinner.Model
	simulateErrors bool
	syncing        bool
	status         string
}

func NewDashboardModel(txSvc *transaction.Service, prefs *preferences.Store, ownerID, email string, trendMonths int, simulateErrors bool) DashboardModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Amount", Width: 14},
		{Title: "Description", Width: 36},
		{Title: "Sync", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DashboardModel{
		txService:      txSvc,
		prefs:          prefs,
		ownerID:        ownerID,
		email:          email,
		trendMonths:    trendMonths,
		resource:       transaction.Loading(),
		table:          t,
		spinner:        sp,
		simulateErrors: simulateErrors,
	}
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string {
	return "a: income | e: expense | s: sync | r: refresh | i: import | x: export | t: simulate errors | l: sign out | q: quit"
}

func (m DashboardModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Transactions is the list currently on screen.
func (m DashboardModel) Transactions() []*transaction.Transaction {
	return m.resource.Transactions
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResourceMsg:
		m.resource = msg.Resource
		m.table.SetRows(tableRows(msg.Resource.Transactions))

		return m, nil

	case syncResultMsg:
		m.syncing = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Sync failed: %v", msg.err))
			return m, nil
		}

		m.status = fmt.Sprintf("Synced %d of %d pending transactions.", msg.result.Synced, msg.result.Attempted)

		return m, nil

	case simulateErrorsMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Could not save setting: %v", msg.err))
			return m, nil
		}

		m.simulateErrors = msg.enabled
		m.status = fmt.Sprintf("Simulated errors %s.", onOff(msg.enabled))

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-22, 5))

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			return m, func() tea.Msg { return OpenAddMsg{Kind: transaction.KindIncome} }
		case "e":
			return m, func() tea.Msg { return OpenAddMsg{Kind: transaction.KindExpense} }
		case "i":
			return m, func() tea.Msg { return OpenImportMsg{} }
		case "x":
			txs := m.resource.Transactions
			return m, func() tea.Msg { return OpenExportMsg{Transactions: txs} }
		case "l":
			return m, func() tea.Msg { return SignOutMsg{} }
		case "s":
			if m.syncing {
				return m, nil
			}

			m.syncing = true
			m.status = "Syncing..."

			return m, m.syncCmd()
		case "r":
			m.txService.Refresh(m.ownerID)
			m.status = "Refreshing, reconnecting to the remote if needed."

			return m, nil
		case "t":
			return m, m.toggleSimulateErrorsCmd(!m.simulateErrors)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DashboardModel) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("BudgetBuddy"),
		faintStyle.Render(fmt.Sprintf("  %s  | simulated errors: %s", m.email, onOff(m.simulateErrors))),
	)

	if n := pendingCount(m.resource.Transactions); n > 0 {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, pendingStyle.Render(fmt.Sprintf("  %d pending sync", n)))
	}

	var body string

	switch {
	case m.resource.State == transaction.StateLoading:
		body = fmt.Sprintf("%s Loading transactions...", m.spinner.View())
	case m.resource.State == transaction.StateError:
		body = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Render(errorStyle.Render("Could not load transactions") + "\n\n" + m.resource.Message + "\n\nPress r to retry.")
	default:
		overview := summary.Dashboard(m.resource.Transactions, time.Now(), m.trendMonths)
		body = lipgloss.JoinVertical(lipgloss.Left,
			renderTotals(overview.Totals),
			"",
			renderTrend(overview.Trend),
			"",
			lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				Render(m.table.View()),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body)

	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", faintStyle.Render(m.status))
	}

	content = lipgloss.JoinVertical(lipgloss.Left, content, "", faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func renderTotals(t summary.Totals) string {
	cell := lipgloss.NewStyle().
		Padding(0, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell.Render("Income\n"+successStyle.Render(t.Income.StringFixed(2)+" €")),
		cell.Render("Expenses\n"+errorStyle.Render(t.Expense.StringFixed(2)+" €")),
		cell.Render("Balance\n"+activeStyle(t.Balance.StringFixed(2)+" €")),
	)
}

// renderTrend draws one horizontal bar per month, scaled to the largest absolute total.
func renderTrend(points []summary.MonthPoint) string {
	peak := decimal.Zero
	for _, p := range points {
		peak = decimal.Max(peak, p.Total.Abs())
	}

	var sb strings.Builder

	for _, p := range points {
		width := 0
		if peak.IsPositive() {
			width = int(p.Total.Abs().Div(peak).Mul(decimal.NewFromInt(trendBarWidth)).Round(0).IntPart())
		}

		style := successStyle
		if p.Total.IsNegative() {
			style = errorStyle
		}

		fmt.Fprintf(&sb, "%-4s %s %s\n", p.Label, style.Render(strings.Repeat("█", width)), faintStyle.Render(p.Total.StringFixed(2)))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func tableRows(txs []*transaction.Transaction) []table.Row {
	rows := make([]table.Row, 0, len(txs))
	for _, tx := range txs {
		synced := "✓"
		if !tx.Synced {
			synced = "pending"
		}

		rows = append(rows, table.Row{
			tx.Date,
			FormatAmount(tx.Amount),
			tx.Description,
			synced,
		})
	}

	return rows
}

func pendingCount(txs []*transaction.Transaction) int {
	n := 0
	for _, tx := range txs {
		if !tx.Synced {
			n++
		}
	}

	return n
}

func onOff(b bool) string {
	if b {
		return "on"
	}

	return "off"
}

func (m DashboardModel) syncCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		result, err := m.txService.SyncPendingTransactions(ctx, m.ownerID)

		return syncResultMsg{result: result, err: err}
	}
}

func (m DashboardModel) toggleSimulateErrorsCmd(enabled bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		m.txService.SetSimulateErrors(enabled)

		return simulateErrorsMsg{enabled: enabled, err: m.prefs.SetSimulateErrors(ctx, enabled)}
	}
}
