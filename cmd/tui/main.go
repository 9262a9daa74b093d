package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/budgetbuddy/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
	authStore "github.com/MrJamesThe3rd/budgetbuddy/internal/auth/store"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/config"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/database"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/export"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/importer"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/preferences"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction/local"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction/memory"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction/remote"
)

const logFile = "budgetbuddy-tui.log"

type View int

const (
	ViewRestoring View = 0
	ViewLogin     View = 1
	ViewDashboard View = 2
	ViewAdd       View = 3
	ViewImport    View = 4
	ViewExport    View = 5
)

type model struct {
	authService   *auth.Service
	txService     *transaction.Service
	importService *importer.Service
	exportService *export.Service
	prefs         *preferences.Store
	trendMonths   int

	currentView View
	width       int
	height      int

	loginView     view.LoginModel
	dashboardView view.DashboardModel
	addView       view.AddModel
	importView    view.ImportModel
	exportView    view.ExportModel

	authCh    <-chan *auth.User
	user      *auth.User
	token     string
	resources <-chan transaction.Resource
	stop      context.CancelFunc
	stream    int
	lastErr   error
}

// authStateMsg is one value of the auth-state stream.
type authStateMsg struct {
	user *auth.User
	ok   bool
}

// resourceMsg tags an emission with the observation it belongs to, so values from a stream
// that was already stopped are ignored.
type resourceMsg struct {
	stream   int
	resource transaction.Resource
	ok       bool
}

type signedOutMsg struct {
	err error
}

func initialModel() (model, error) {
	cfg, err := config.Load()
	if err != nil {
		return model{}, err
	}

	localDB, err := database.OpenLocal(cfg.Local.Path, cfg.Local.LogMode)
	if err != nil {
		return model{}, err
	}

	localStore, err := local.New(localDB)
	if err != nil {
		return model{}, fmt.Errorf("failed to prepare local store: %w", err)
	}

	prefs, err := preferences.New(localDB)
	if err != nil {
		return model{}, err
	}

	var (
		remoteStore transaction.RemoteStore
		users       auth.Repository
	)

	switch cfg.Remote.Mode {
	case config.RemoteMemory:
		remoteStore, users = memory.New(), auth.NewInMemory()
	default:
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return model{}, fmt.Errorf("failed to connect to database: %w", err)
		}

		ctx, cancel := view.DbCtx()
		defer cancel()

		if err := database.Migrate(ctx, db); err != nil {
			return model{}, fmt.Errorf("failed to migrate database: %w", err)
		}

		remoteStore, users = remote.New(db), authStore.New(db)
	}

	authSvc := auth.NewService(users, auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL), auth.WithBcryptCost(cfg.Auth.BcryptCost))
	txSvc := transaction.NewService(localStore, remoteStore, authSvc)

	authSvc.OnSignOut(txSvc.Purge)

	ctx, cancel := view.DbCtx()
	defer cancel()

	token, err := prefs.SessionToken(ctx)
	if err != nil {
		slog.Warn("failed to read stored session", "error", err)
	}

	email, err := prefs.Email(ctx)
	if err != nil {
		slog.Warn("failed to read stored email", "error", err)
	}

	return model{
		authService:   authSvc,
		txService:     txSvc,
		importService: importer.NewService(),
		exportService: export.NewService(),
		prefs:         prefs,
		trendMonths:   cfg.Dashboard.TrendMonths,
		currentView:   ViewRestoring,
		loginView:     view.NewLoginModel(authSvc, email),
		authCh:        authSvc.ObserveAuthState(context.Background()),
		token:         token,
	}, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(view.RestoreCmd(m.authService, m.token), waitForAuth(m.authCh))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopObserving()
			return m, tea.Quit
		}

		if msg.String() == "q" && m.currentView == ViewDashboard {
			m.stopObserving()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case view.RestoreResultMsg:
		if m.currentView == ViewRestoring {
			m.currentView = ViewLogin
		}

		if msg.Err != nil {
			slog.Info("stored session rejected", "error", msg.Err)
			return m, m.clearPrefsCmd()
		}

		if msg.Session == nil {
			return m, m.loginView.Init()
		}

		return m, nil

	case authStateMsg:
		if !msg.ok {
			return m, nil
		}

		return m.onAuthState(msg.user)

	case view.SignedInMsg:
		return m, m.saveSessionCmd(msg.Session)

	case view.SignOutMsg:
		return m, m.signOutCmd()

	case signedOutMsg:
		m.lastErr = msg.err
		return m, nil

	case resourceMsg:
		if msg.stream != m.stream || !msg.ok {
			return m, nil
		}

		var cmd tea.Cmd
		m.dashboardView, cmd = updateAs[view.DashboardModel](m.dashboardView, view.ResourceMsg{Resource: msg.resource})

		return m, tea.Batch(cmd, m.waitForResource())

	case view.OpenAddMsg:
		m.addView = view.NewAddModel(m.txService, msg.Kind)
		m.currentView = ViewAdd

		return m, m.addView.Init()

	case view.OpenImportMsg:
		m.importView = view.NewImportModel(m.txService, m.importService)
		m.currentView = ViewImport

		return m, m.importView.Init()

	case view.OpenExportMsg:
		m.exportView = view.NewExportModel(m.exportService, msg.Transactions)
		m.currentView = ViewExport

		return m, m.exportView.Init()

	case view.AddedMsg, view.BackMsg:
		if m.user != nil {
			m.currentView = ViewDashboard
		}

		return m, nil
	}

	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = updateAs[view.LoginModel](m.loginView, msg)
	case ViewDashboard:
		m.dashboardView, cmd = updateAs[view.DashboardModel](m.dashboardView, msg)
	case ViewAdd:
		m.addView, cmd = updateAs[view.AddModel](m.addView, msg)
	case ViewImport:
		m.importView, cmd = updateAs[view.ImportModel](m.importView, msg)
	case ViewExport:
		m.exportView, cmd = updateAs[view.ExportModel](m.exportView, msg)
	}

	return m, cmd
}

// onAuthState starts observing the signed-in user's transactions and stops on sign-out.
func (m model) onAuthState(user *auth.User) (tea.Model, tea.Cmd) {
	next := waitForAuth(m.authCh)

	if user == nil {
		if m.user == nil && m.currentView == ViewRestoring {
			return m, next
		}

		email := m.loginEmail()

		m.stopObserving()
		m.user = nil
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.authService, email)

		return m, tea.Batch(next, m.loginView.Init())
	}

	if m.user != nil && m.user.ID == user.ID {
		return m, next
	}

	m.stopObserving()

	ctx, cancel := context.WithCancel(context.Background())

	ch, err := m.txService.ObserveTransactions(ctx, user.ID)
	if err != nil {
		cancel()
		m.lastErr = err

		return m, next
	}

	m.user = user
	m.stop = cancel
	m.stream++
	m.resources = ch

	simulate := m.simulateErrors()
	m.txService.SetSimulateErrors(simulate)

	m.dashboardView = view.NewDashboardModel(m.txService, m.prefs, user.ID, user.Email, m.trendMonths, simulate)
	if m.width > 0 {
		m.dashboardView, _ = updateAs[view.DashboardModel](m.dashboardView, tea.WindowSizeMsg{Width: m.width, Height: m.height})
	}

	m.currentView = ViewDashboard

	return m, tea.Batch(next, m.dashboardView.Init(), m.waitForResource())
}

func (m *model) stopObserving() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

func (m model) simulateErrors() bool {
	ctx, cancel := view.DbCtx()
	defer cancel()

	enabled, err := m.prefs.SimulateErrors(ctx)
	if err != nil {
		slog.Warn("failed to read simulate-errors preference", "error", err)
	}

	return enabled
}

func (m model) loginEmail() string {
	if m.user != nil {
		return m.user.Email
	}

	return ""
}

func waitForAuth(ch <-chan *auth.User) tea.Cmd {
	return func() tea.Msg {
		user, ok := <-ch
		return authStateMsg{user: user, ok: ok}
	}
}

func (m model) waitForResource() tea.Cmd {
	stream, ch := m.stream, m.resources

	return func() tea.Msg {
		r, ok := <-ch
		return resourceMsg{stream: stream, resource: r, ok: ok}
	}
}

func (m model) saveSessionCmd(session *auth.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.DbCtx()
		defer cancel()

		if err := m.prefs.SetSessionToken(ctx, session.Token); err != nil {
			slog.Warn("failed to store session", "error", err)
		}

		if err := m.prefs.SetEmail(ctx, session.User.Email); err != nil {
			slog.Warn("failed to store email", "error", err)
		}

		return nil
	}
}

func (m model) signOutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.DbCtx()
		defer cancel()

		if err := m.authService.SignOut(ctx); err != nil {
			return signedOutMsg{err: err}
		}

		return signedOutMsg{err: m.prefs.Clear(ctx)}
	}
}

func (m model) clearPrefsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.DbCtx()
		defer cancel()

		if err := m.prefs.Clear(ctx); err != nil {
			slog.Warn("failed to clear stored session", "error", err)
		}

		return nil
	}
}

// updateAs forwards msg to a concrete sub-model and returns it with its concrete type.
func updateAs[T tea.Model](sub T, msg tea.Msg) (T, tea.Cmd) {
	next, cmd := sub.Update(msg)
	if t, ok := next.(T); ok {
		return t, cmd
	}

	return sub, cmd
}

func (m model) View() string {
	var content string

	switch m.currentView {
	case ViewRestoring:
		content = lipgloss.NewStyle().Padding(2).Render("Restoring session...")
	case ViewLogin:
		content = m.loginView.View()
	case ViewDashboard:
		content = m.dashboardView.View()
	case ViewAdd:
		content = m.addView.View()
	case ViewImport:
		content = m.importView.View()
	case ViewExport:
		content = m.exportView.View()
	default:
		content = "Unknown View"
	}

	if m.lastErr != nil {
		content += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).PaddingLeft(2).Render(fmt.Sprintf("Error: %v", m.lastErr))
	}

	return content
}

func main() {
	_ = godotenv.Load()

	f, err := tea.LogToFile(logFile, "tui")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		os.Exit(1)
	}
	defer f.Close()

	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))

	m, err := initialModel()
	if err != nil {
		slog.Error("failed to start", "error", err)
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
