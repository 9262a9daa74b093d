package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth.go -destination=repository_mock.go -package=auth

const MinPasswordLength = 6

// MaxPasswordLength is bcrypt's input limit in bytes.
const MaxPasswordLength = 72

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError reports malformed credentials before any lookup happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a signed-in user together with the token that proves it.
type Session struct {
	Token string
	User  *User
}

type Repository interface {
	// CreateUser returns ErrEmailTaken when the email is already registered.
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// SignOutHook runs with the id of the user who is signing out.
type SignOutHook func(ctx context.Context, userID string) error

// Service authenticates users. It keeps one process-wide session for interactive clients;
// request-scoped callers carry the user id in the context instead (see WithUserID).
type Service struct {
	repo   Repository
	tokens *Tokens
	cost   int

	mu       sync.Mutex
	current  *Session
	watchers map[chan *User]struct{}
	hooks    []SignOutHook
}

type Option func(*Service)

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(repo Repository, tokens *Tokens, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		tokens:   tokens,
		cost:     bcrypt.DefaultCost,
		watchers: make(map[chan *User]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// OnSignOut registers a hook. Hooks run in registration order; a failing hook is logged and
// does not prevent the sign-out.
func (s *Service) OnSignOut(hook SignOutHook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook)
}

func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}

	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}

	return s.startSession(user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}

	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "is required"}
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(user)
}

// Restore resumes a session from a previously issued token.
func (s *Service) Restore(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("looking up user: %w", err)
	}

	session := &Session{Token: token, User: user}
	s.setCurrent(session)

	return session, nil
}

// Authenticate validates a bearer token and returns the user id it was issued for.
func (s *Service) Authenticate(token string) (string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

// SignOut ends the session of the user resolved from ctx and runs the sign-out hooks.
func (s *Service) SignOut(ctx context.Context) error {
	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	hooks := append([]SignOutHook(nil), s.hooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx, userID); err != nil {
			slog.Warn("sign-out hook failed", "user", userID, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.User.ID == userID {
		s.current = nil
		s.notify(nil)
	}

	return nil
}

func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return nil
}

// CurrentUserID returns the user id carried by ctx, falling back to the signed-in session.
func (s *Service) CurrentUserID(ctx context.Context) (string, error) {
	if id, ok := UserIDFromContext(ctx); ok {
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", ErrNotSignedIn
	}

	return s.current.User.ID, nil
}

// CurrentSession returns the signed-in session, or nil.
func (s *Service) CurrentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// ObserveAuthState emits the signed-in user (nil when signed out) immediately and on every
// change. Only the latest state is kept for slow readers. The channel is closed when ctx is done.
func (s *Service) ObserveAuthState(ctx context.Context) <-chan *User {
	ch := make(chan *User, 1)

	s.mu.Lock()
	ch <- s.currentUser()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.watchers, ch)
		close(ch)
	}()

	return ch
}

func (s *Service) startSession(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	session := &Session{Token: token, User: user}
	s.setCurrent(session)

	return session, nil
}

func (s *Service) setCurrent(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = session
	s.notify(session.User)
}

// currentUser must be called with mu held.
func (s *Service) currentUser() *User {
	if s.current == nil {
		return nil
	}

	return s.current.User
}

// notify must be called with mu held.
func (s *Service) notify(user *User) {
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- user
	}
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", &ValidationError{Field: "email", Reason: "is required"}
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t") {
		return "", &ValidationError{Field: "email", Reason: fmt.Sprintf("%q is not an email address", email)}
	}

	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}

	if len(password) > MaxPasswordLength {
		return &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at most %d bytes", MaxPasswordLength),
		}
	}

	return nil
}
