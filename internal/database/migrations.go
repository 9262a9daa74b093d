package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentsChannel is the NOTIFY channel fired with the owner id whenever a document changes.
const DocumentsChannel = "documents_changed"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		owner_id    TEXT NOT NULL,
		key         TEXT NOT NULL,
		description TEXT NOT NULL,
		amount      NUMERIC(20, 4) NOT NULL,
		date_text   TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (owner_id, key)
	)`,
	`CREATE OR REPLACE FUNCTION notify_document_change() RETURNS trigger AS $$
	BEGIN
		IF TG_OP = 'DELETE' THEN
			PERFORM pg_notify('` + DocumentsChannel + `', OLD.owner_id);
			RETURN OLD;
		END IF;
		PERFORM pg_notify('` + DocumentsChannel + `', NEW.owner_id);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS documents_notify ON documents`,
	`CREATE TRIGGER documents_notify
		AFTER INSERT OR UPDATE OR DELETE ON documents
		FOR EACH ROW EXECUTE FUNCTION notify_document_change()`,
}

// Migrate creates the remote schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migration %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return nil
}
