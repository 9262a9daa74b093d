// Package preferences persists small client settings in the local database.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	keySessionToken   = "session_token"
	keyEmail          = "email"
	keySimulateErrors = "simulate_errors"
)

type entry struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "preferences" }

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrating preferences: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) SessionToken(ctx context.Context) (string, error) {
	return s.get(ctx, keySessionToken)
}

func (s *Store) SetSessionToken(ctx context.Context, token string) error {
	return s.set(ctx, keySessionToken, token)
}

// Email is the last address signed in with, used to prefill the login form.
func (s *Store) Email(ctx context.Context) (string, error) {
	return s.get(ctx, keyEmail)
}

func (s *Store) SetEmail(ctx context.Context, email string) error {
	return s.set(ctx, keyEmail, email)
}

func (s *Store) SimulateErrors(ctx context.Context) (bool, error) {
	v, err := s.get(ctx, keySimulateErrors)
	if err != nil || v == "" {
		return false, err
	}

	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", keySimulateErrors, err)
	}

	return enabled, nil
}

func (s *Store) SetSimulateErrors(ctx context.Context, enabled bool) error {
	return s.set(ctx, keySimulateErrors, strconv.FormatBool(enabled))
}

// Clear drops the stored session. The last email is kept.
func (s *Store) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("name IN ?", []string{keySessionToken, keySimulateErrors}).
		Delete(&entry{}).Error
	if err != nil {
		return fmt.Errorf("clearing preferences: %w", err)
	}

	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var e entry

	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("reading preference %s: %w", key, err)
	}

	return e.Value, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry{Name: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}

	return nil
}
