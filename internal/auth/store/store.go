package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads a user row. Expected column order: id, email, password_hash, created_at.
func scanUser(s scanner) (*auth.User, error) {
	var u auth.User

	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*auth.User, error) {
	query := `
		INSERT INTO users (email, password_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id::text, email, password_hash, created_at
	`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, email, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, auth.ErrEmailTaken
		}

		return nil, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `
		SELECT id::text, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	query := `
		SELECT id::text, email, password_hash, created_at
		FROM users
		WHERE id::text = $1
	`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id::text = $1
	`

	res, err := s.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return auth.ErrUserNotFound
	}

	return nil
}
