package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
)

const (
	modeSignIn = "signin"
	modeSignUp = "signup"
)

// SignedInMsg is sent once the user has a session.
type SignedInMsg struct {
	Session *auth.Session
}

type loginFields struct {
	mode     string
	email    string
	password string
}

type LoginModel struct {
	CommonModel
	authService *auth.Service

	fields  *loginFields
	form    *huh.Form
	working bool
	err     error
}

func NewLoginModel(authSvc *auth.Service, email string) LoginModel {
	m := LoginModel{
		authService: authSvc,
		fields:      &loginFields{mode: modeSignIn, email: email},
	}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) Title() string { return "Sign In" }

func (m LoginModel) ShortHelp() string { return "Tab: next field | Enter: submit | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(loginResultMsg); ok {
		m.working = false
		if result.err != nil {
			m.err = result.err
			m.fields.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		m.err = nil

		return m, func() tea.Msg { return SignedInMsg{Session: result.session} }
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

	return m, m.submitCmd()
}

func (m LoginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create account", modeSignUp),
				).
				Value(&m.fields.mode),

			huh.NewInput().
				Key("email").
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fields.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter a valid email")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.password).
				Validate(func(s string) error {
					if len(s) < auth.MinPasswordLength {
						return fmt.Errorf("at least %d characters", auth.MinPasswordLength)
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) View() string {
	header := titleStyle.Render("BudgetBuddy")

	body := m.form.View()
	if m.working {
		body = "Signing in..."
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body)

	if m.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type loginResultMsg struct {
	session *auth.Session
	err     error
}

func (m LoginModel) submitCmd() tea.Cmd {
	mode, email, password := m.fields.mode, m.fields.email, m.fields.password

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			session *auth.Session
			err     error
		)

		if mode == modeSignUp {
			session, err = m.authService.SignUp(ctx, email, password)
		} else {
			session, err = m.authService.SignIn(ctx, email, password)
		}

		return loginResultMsg{session: session, err: err}
	}
}

// RestoreResultMsg carries the outcome of RestoreCmd. Session is nil when there was nothing to restore.
type RestoreResultMsg struct {
	Session *auth.Session
	Err     error
}

// RestoreCmd resumes a stored session token.
func RestoreCmd(authSvc *auth.Service, token string) tea.Cmd {
	return func() tea.Msg {
		if token == "" {
			return RestoreResultMsg{}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		session, err := authSvc.Restore(ctx, token)

		return RestoreResultMsg{Session: session, Err: err}
	}
}
