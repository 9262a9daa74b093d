package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=store_mock.go -package=transaction

// LocalStore is the embedded row store. Insert replaces a row with the same id; InsertAll
// does the same for a batch in one write.
type LocalStore interface {
	ObserveByOwner(ctx context.Context, ownerID string) (<-chan []*Transaction, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*Transaction, error)
	Insert(ctx context.Context, tx *Transaction) error
	InsertAll(ctx context.Context, txs []*Transaction) error
	Update(ctx context.Context, tx *Transaction) error
	GetUnsynced(ctx context.Context, ownerID string) ([]*Transaction, error)
	DeleteAllByOwner(ctx context.Context, ownerID string) error
}

// RemoteStore is the real-time document tree. SubscribeSubtree emits a full snapshot on
// every change under the owner and stops when ctx is cancelled.
type RemoteStore interface {
	AllocateKey(ctx context.Context, ownerID string) (string, error)
	WriteValue(ctx context.Context, ownerID, key string, doc Document) error
	SubscribeSubtree(ctx context.Context, ownerID string) (<-chan Snapshot, error)
}

// Identity resolves the user the current operation acts for.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

type Service struct {
	local    LocalStore
	remote   RemoteStore
	identity Identity
	pulses   *pulses
	now      func() time.Time
	logger   *slog.Logger
	retryMin time.Duration
	retryMax time.Duration
}

const (
	DefaultRetryMin = time.Second
	DefaultRetryMax = 30 * time.Second
)

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithResubscribeBackoff sets the first and the longest wait before a lost remote
// subscription is opened again. The wait doubles after every failed attempt.
func WithResubscribeBackoff(initial, maximum time.Duration) Option {
	return func(s *Service) { s.retryMin, s.retryMax = initial, maximum }
}

func NewService(local LocalStore, remote RemoteStore, identity Identity, opts ...Option) *Service {
	s := &Service{
		local:    local,
		remote:   remote,
		identity: identity,
		pulses:   newPulses(),
		now:      time.Now,
		logger:   slog.Default(),
		retryMin: DefaultRetryMin,
		retryMax: DefaultRetryMax,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SyncResult summarises one resync sweep.
type SyncResult struct {
	Attempted int
	Synced    int
	Failed    int
}

// Rejection is an imported draft that failed validation.
type Rejection struct {
	Index int
	Draft Draft
	Err   error
}

type ImportResult struct {
	Imported []*Transaction
	Rejected []Rejection
}

func (s *Service) AddIncome(ctx context.Context, amount, description string) (*Transaction, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	return s.add(ctx, KindIncome, value, description, s.today())
}

func (s *Service) AddExpense(ctx context.Context, amount, description string) (*Transaction, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	return s.add(ctx, KindExpense, value, description, s.today())
}

// AddDated records a transaction on an explicit calendar day instead of today.
func (s *Service) AddDated(ctx context.Context, kind Kind, amount, description string, date time.Time) (*Transaction, error) {
	if kind != KindIncome && kind != KindExpense {
		return nil, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}

	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	if date.IsZero() {
		return nil, &ValidationError{Field: "date", Reason: "is required"}
	}

	return s.add(ctx, kind, value, description, date.Format(DateLayout))
}

// Import adds every draft through the regular add path. Drafts that fail validation are
// reported and skipped; any other failure stops the import.
func (s *Service) Import(ctx context.Context, drafts []Draft) (*ImportResult, error) {
	result := &ImportResult{}

	for i, d := range drafts {
		kind := KindIncome
		if d.Amount.IsNegative() {
			kind = KindExpense
		}

		tx, err := s.AddDated(ctx, kind, d.Amount.Abs().String(), d.Description, d.Date)
		if err != nil {
			if IsValidation(err) {
				result.Rejected = append(result.Rejected, Rejection{Index: i, Draft: d, Err: err})
				continue
			}

			return result, fmt.Errorf("importing row %d: %w", i, err)
		}

		result.Imported = append(result.Imported, tx)
	}

	return result, nil
}

// add writes the row locally first, then pushes it to the remote. A failed remote write
// leaves the row unsynced for the next sweep and does not fail the add.
func (s *Service) add(ctx context.Context, kind Kind, value decimal.Decimal, description, date string) (*Transaction, error) {
	ownerID, err := s.ownerID(ctx)
	if err != nil {
		return nil, err
	}

	key, err := s.remote.AllocateKey(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: allocating key: %w", ErrRemoteUnavailable, err)
	}

	tx := &Transaction{
		ID:          key,
		OwnerID:     ownerID,
		Description: describe(kind, description),
		Amount:      value,
		Date:        date,
	}
	if kind == KindExpense {
		tx.Amount = value.Neg()
	}

	if err := s.local.Insert(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: saving transaction: %w", ErrLocalStore, err)
	}

	s.pulses.fire(ownerID)

	s.push(ctx, tx)

	return tx, nil
}

// push writes tx to the remote and marks it synced locally. It reports whether both succeeded.
func (s *Service) push(ctx context.Context, tx *Transaction) bool {
	if err := s.remote.WriteValue(ctx, tx.OwnerID, tx.ID, tx.Document()); err != nil {
		s.logger.Warn("remote write failed, transaction left pending", "id", tx.ID, "error", err)
		return false
	}

	synced := *tx
	synced.Synced = true

	if err := s.local.Update(ctx, &synced); err != nil {
		s.logger.Warn("failed to mark transaction synced", "id", tx.ID, "error", err)
		return false
	}

	tx.Synced = true

	return true
}

// SyncPendingTransactions retries the remote write of every unsynced row of the owner.
// Rows are attempted independently; failures are counted, never returned.
func (s *Service) SyncPendingTransactions(ctx context.Context, ownerID string) (SyncResult, error) {
	pending, err := s.local.GetUnsynced(ctx, ownerID)
	if err != nil {
		return SyncResult{}, fmt.Errorf("%w: listing unsynced transactions: %w", ErrLocalStore, err)
	}

	result := SyncResult{Attempted: len(pending)}

	for _, tx := range pending {
		if s.push(ctx, tx) {
			result.Synced++
		} else {
			result.Failed++
		}
	}

	if result.Synced > 0 {
		s.pulses.fire(ownerID)
	}

	if result.Attempted > 0 {
		s.logger.Info("sync sweep finished", "owner", ownerID,
			"attempted", result.Attempted, "synced", result.Synced, "failed", result.Failed)
	}

	return result, nil
}

// Purge removes every local row of the owner. Called on sign-out.
func (s *Service) Purge(ctx context.Context, ownerID string) error {
	if err := s.local.DeleteAllByOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("%w: purging transactions: %w", ErrLocalStore, err)
	}

	s.pulses.fire(ownerID)

	return nil
}

// Refresh forces every active observer of the owner to re-read local rows. Observers whose
// remote subscription is down resubscribe at once instead of waiting for the backoff.
func (s *Service) Refresh(ownerID string) {
	s.pulses.fire(ownerID)
}

// ErrorSimulator is implemented by remote stores that can inject random failures.
type ErrorSimulator interface {
	SetSimulateErrors(enabled bool)
}

// SetSimulateErrors toggles failure injection on the remote when it supports it.
func (s *Service) SetSimulateErrors(enabled bool) {
	sim, ok := s.remote.(ErrorSimulator)
	if !ok {
		s.logger.Info("remote store does not support simulated errors")
		return
	}

	sim.SetSimulateErrors(enabled)
}

func (s *Service) ownerID(ctx context.Context) (string, error) {
	id, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if id == "" {
		return "", ErrUnauthenticated
	}

	return id, nil
}

func (s *Service) today() string {
	return s.now().Format(DateLayout)
}

func describe(kind Kind, description string) string {
	description = strings.TrimSpace(description)
	if description != "" {
		return description
	}

	if kind == KindExpense {
		return DefaultExpenseDescription
	}

	return DefaultIncomeDescription
}
