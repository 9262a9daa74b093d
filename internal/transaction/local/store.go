package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

// insertBatchSize keeps batched upserts under SQLite's bound-parameter limit.
const insertBatchSize = 200

// row is the cached transaction as persisted in SQLite. Amounts are kept as text so
// SQLite's numeric affinity never rounds them.
type row struct {
	ID          string          `gorm:"primaryKey;size:64"`
	OwnerID     string          `gorm:"index;size:64;not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:text;not null"`
	DateText    string          `gorm:"index;size:10;not null"`
	Synced      bool            `gorm:"index;not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (row) TableName() string { return "transactions" }

func toRow(tx *transaction.Transaction) row {
	return row{
		ID:          tx.ID,
		OwnerID:     tx.OwnerID,
		Description: tx.Description,
		Amount:      tx.Amount,
		DateText:    tx.Date,
		Synced:      tx.Synced,
	}
}

func (r row) transaction() *transaction.Transaction {
	return &transaction.Transaction{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Description: r.Description,
		Amount:      r.Amount,
		Date:        r.DateText,
		Synced:      r.Synced,
	}
}

// Store is the embedded transaction cache. Every write re-publishes the affected owner's
// rows to its observers.
type Store struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers map[string]map[chan []*transaction.Transaction]struct{}
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("migrating local transactions: %w", err)
	}

	return &Store{
		db:       db,
		watchers: make(map[string]map[chan []*transaction.Transaction]struct{}),
	}, nil
}

func (s *Store) GetByOwner(ctx context.Context, ownerID string) ([]*transaction.Transaction, error) {
	var rows []row

	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date_text DESC, created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return toTransactions(rows), nil
}

func (s *Store) GetUnsynced(ctx context.Context, ownerID string) ([]*transaction.Transaction, error) {
	var rows []row

	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND synced = ?", ownerID, false).
		Order("date_text ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing unsynced transactions: %w", err)
	}

	return toTransactions(rows), nil
}

var upsert = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	DoUpdates: clause.AssignmentColumns([]string{"owner_id", "description", "amount", "date_text", "synced", "updated_at"}),
}

// Insert stores tx, replacing any row with the same id.
func (s *Store) Insert(ctx context.Context, tx *transaction.Transaction) error {
	r := toRow(tx)

	if err := s.db.WithContext(ctx).Clauses(upsert).Create(&r).Error; err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	s.publish(ctx, tx.OwnerID)

	return nil
}

// InsertAll upserts txs in one transaction and publishes each affected owner once.
func (s *Store) InsertAll(ctx context.Context, txs []*transaction.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]row, len(txs))
	owners := make(map[string]struct{})

	for i, tx := range txs {
		rows[i] = toRow(tx)
		owners[tx.OwnerID] = struct{}{}
	}

	if err := s.db.WithContext(ctx).Clauses(upsert).CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("inserting transactions: %w", err)
	}

	for ownerID := range owners {
		s.publish(ctx, ownerID)
	}

	return nil
}

func (s *Store) Update(ctx context.Context, tx *transaction.Transaction) error {
	res := s.db.WithContext(ctx).Model(&row{}).
		Where("id = ?", tx.ID).
		Updates(map[string]any{
			"owner_id":    tx.OwnerID,
			"description": tx.Description,
			"amount":      tx.Amount,
			"date_text":   tx.Date,
			"synced":      tx.Synced,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating transaction: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return transaction.ErrNotFound
	}

	s.publish(ctx, tx.OwnerID)

	return nil
}

func (s *Store) DeleteAllByOwner(ctx context.Context, ownerID string) error {
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&row{}).Error; err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}

	s.publish(ctx, ownerID)

	return nil
}

// ObserveByOwner emits the owner's rows immediately and again after every write affecting
// them. The channel holds only the latest list; it is closed when ctx is done.
func (s *Store) ObserveByOwner(ctx context.Context, ownerID string) (<-chan []*transaction.Transaction, error) {
	ch := make(chan []*transaction.Transaction, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ch <- rows

	if s.watchers[ownerID] == nil {
		s.watchers[ownerID] = make(map[chan []*transaction.Transaction]struct{})
	}
	s.watchers[ownerID][ch] = struct{}{}

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.watchers[ownerID], ch)
		if len(s.watchers[ownerID]) == 0 {
			delete(s.watchers, ownerID)
		}
		close(ch)
	}()

	return ch, nil
}

func (s *Store) publish(ctx context.Context, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.watchers[ownerID]) == 0 {
		return
	}

	rows, err := s.GetByOwner(context.WithoutCancel(ctx), ownerID)
	if err != nil {
		slog.Warn("failed to publish local transactions", "owner", ownerID, "error", err)
		return
	}

	for ch := range s.watchers[ownerID] {
		// Sends only happen under mu, so after the drain this send cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- rows
	}
}

func toTransactions(rows []row) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, len(rows))
	for i, r := range rows {
		txs[i] = r.transaction()
	}

	return txs
}
