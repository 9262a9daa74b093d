package remote

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/database"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

const unlistenTimeout = 5 * time.Second

// Store is the remote document tree: one row per (owner, key) in the documents table.
// Changes are announced by a trigger on the database.DocumentsChannel NOTIFY channel.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanChild reads a document row. Expected column order: key, description, amount, date_text.
func scanChild(s scanner) (transaction.Child, error) {
	var c transaction.Child

	if err := s.Scan(&c.Key, &c.Document.Description, &c.Document.Amount, &c.Document.DateText); err != nil {
		return transaction.Child{}, err
	}

	return c, nil
}

// AllocateKey generates a time-ordered document key without a round trip, so keys can be
// handed out while the database is unreachable.
func (s *Store) AllocateKey(_ context.Context, _ string) (string, error) {
	key, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("allocating key: %w", err)
	}

	return key.String(), nil
}

// WriteValue sets the document at owner/key, replacing any previous value.
func (s *Store) WriteValue(ctx context.Context, ownerID, key string, doc transaction.Document) error {
	query := `
		INSERT INTO documents (owner_id, key, description, amount, date_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (owner_id, key) DO UPDATE
		SET description = EXCLUDED.description,
			amount = EXCLUDED.amount,
			date_text = EXCLUDED.date_text,
			updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, ownerID, key, doc.Description, doc.Amount, doc.DateText)
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	return nil
}

// Children returns every document under the owner, newest first.
func (s *Store) Children(ctx context.Context, ownerID string) ([]transaction.Child, error) {
	query := `
		SELECT key, description, amount, date_text
		FROM documents
		WHERE owner_id = $1
		ORDER BY date_text DESC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var children []transaction.Child

	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		children = append(children, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return children, nil
}

// SubscribeSubtree holds a dedicated connection listening for document changes. It emits
// the owner's full subtree once, then after every change notification for that owner.
// On ctx cancellation the connection is unlistened and returned to the pool.
func (s *Store) SubscribeSubtree(ctx context.Context, ownerID string) (<-chan transaction.Snapshot, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring listener connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "LISTEN "+database.DocumentsChannel); err != nil {
		conn.Close()
		return nil, fmt.Errorf("listening for changes: %w", err)
	}

	ch := make(chan transaction.Snapshot, 1)

	go s.listen(ctx, conn, ownerID, ch)

	return ch, nil
}

func (s *Store) listen(ctx context.Context, conn *sql.Conn, ownerID string, ch chan transaction.Snapshot) {
	defer close(ch)
	defer unlisten(conn)

	if !s.emit(ctx, ownerID, ch) {
		return
	}

	for {
		payload, err := waitForNotification(ctx, conn)
		if err != nil {
			if ctx.Err() == nil {
				send(ctx, ch, transaction.Snapshot{Err: fmt.Errorf("waiting for changes: %w", err)})
			}

			return
		}

		if payload != ownerID {
			continue
		}

		if !s.emit(ctx, ownerID, ch) {
			return
		}
	}
}

func (s *Store) emit(ctx context.Context, ownerID string, ch chan transaction.Snapshot) bool {
	children, err := s.Children(ctx, ownerID)
	if err != nil {
		return send(ctx, ch, transaction.Snapshot{Err: err})
	}

	return send(ctx, ch, transaction.Snapshot{Children: children})
}

// send replaces any snapshot the subscriber has not consumed yet.
func send(ctx context.Context, ch chan transaction.Snapshot, snap transaction.Snapshot) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case <-ch:
	default:
	}

	ch <- snap

	return true
}

func waitForNotification(ctx context.Context, conn *sql.Conn) (string, error) {
	var payload string

	err := conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		n, err := c.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		payload = n.Payload

		return nil
	})

	return payload, err
}

func unlisten(conn *sql.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()

	if _, err := conn.ExecContext(ctx, "UNLISTEN "+database.DocumentsChannel); err != nil {
		slog.Debug("failed to unlisten, dropping connection", "error", err)
	}

	if err := conn.Close(); err != nil {
		slog.Debug("failed to release listener connection", "error", err)
	}
}
