// Package repo implements the persistence layer for the connection settings
// row, backed by GORM. This file provides repository functions for the
// Settings model.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: no business logic, only persistence of the
// single well-known settings slot.
//
// Error semantics:
//   - When no settings row exists, GetSettings returns ErrNotFound.
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-tally-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across layers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetSettings fetches the active settings row, or ErrNotFound when the
// process has never been configured.
func GetSettings(ctx context.Context, db *gorm.DB) (*domain.Settings, error) {
	var s domain.Settings
	err := db.WithContext(ctx).
		Where("slot = ?", domain.SettingsSlot).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSettings upserts the active settings row wholesale. The slot key is
// forced so callers cannot create a second row.
func SaveSettings(ctx context.Context, db *gorm.DB, s *domain.Settings) error {
	s.Slot = domain.SettingsSlot
	s.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			UpdateAll: true,
		}).
		Create(s).Error
}

// UpdateCompany changes only the active company name, leaving the server
// address untouched. Returns ErrNotFound when no settings row exists yet.
func UpdateCompany(ctx context.Context, db *gorm.DB, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.Settings{}).
		Where("slot = ?", domain.SettingsSlot).
		Updates(map[string]any{"company_name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSettings removes the active settings row atomically. Missing rows
// are not an error; reset is idempotent.
func DeleteSettings(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Unscoped().
		Where("slot = ?", domain.SettingsSlot).
		Delete(&domain.Settings{}).Error
}
