// Package services – SettingsService
//
// This file implements the configuration resolver: it owns the persisted
// connection settings (server address/port, active company) and answers the
// one question the transport asks on every call — where is the upstream. In
// a local development setup a fixed proxy URL short-circuits resolution,
// mirroring how the browser dashboard sidesteps cross-origin restrictions;
// in a deployed context the user-configured address:port wins.
//
// Mutations flush the response cache via the OnChange hook, since every
// cached fingerprint embeds the previous company/server context.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-tally-backend/internal/domain"
	"github.com/tbourn/go-tally-backend/internal/repo"
	"github.com/tbourn/go-tally-backend/internal/tally/request"
	"github.com/tbourn/go-tally-backend/internal/tally/transport"
)

// SettingsRepo defines the repository contract required by SettingsService.
type SettingsRepo interface {
	// GetSettings fetches the active settings row, or repo.ErrNotFound.
	GetSettings(ctx context.Context, db *gorm.DB) (*domain.Settings, error)

	// SaveSettings upserts the active settings row wholesale.
	SaveSettings(ctx context.Context, db *gorm.DB, s *domain.Settings) error

	// UpdateCompany changes only the active company name.
	UpdateCompany(ctx context.Context, db *gorm.DB, name string) error

	// DeleteSettings removes the active settings row.
	DeleteSettings(ctx context.Context, db *gorm.DB) error
}

// SettingsService manages the process-wide connection configuration.
type SettingsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the settings repository used by this service.
	Repo SettingsRepo

	// ProxyURL, when non-empty, is returned by ResolveBaseURL unconditionally
	// (local development proxy).
	ProxyURL string

	// OnChange is invoked after any mutation; the composition root hooks the
	// cache flush here. May be nil.
	OnChange func()
}

// ResolveBaseURL yields the upstream endpoint for the next request. No
// network calls are made; transport.ErrNotConfigured is returned when no
// server has been configured and no dev proxy is set.
func (s *SettingsService) ResolveBaseURL(ctx context.Context) (string, error) {
	if s.ProxyURL != "" {
		return s.ProxyURL, nil
	}
	cfg, err := s.Repo.GetSettings(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		return "", transport.ErrNotConfigured
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d", cfg.ServerAddress, cfg.ServerPort), nil
}

// ActiveCompany returns the selected company name, or ErrNoActiveCompany.
func (s *SettingsService) ActiveCompany(ctx context.Context) (string, error) {
	cfg, err := s.Repo.GetSettings(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrNoActiveCompany
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfg.CompanyName) == "" {
		return "", ErrNoActiveCompany
	}
	return cfg.CompanyName, nil
}

// Get returns the persisted settings, or repo.ErrNotFound when the process
// has never been configured.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.Repo.GetSettings(ctx, s.DB)
}

// SetServer validates and persists the upstream address and port, keeping
// any previously selected company.
func (s *SettingsService) SetServer(ctx context.Context, address string, port int) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return &request.ValidationError{Field: "server_address", Reason: "must not be empty"}
	}
	if port < 1 || port > 65535 {
		return &request.ValidationError{Field: "server_port", Reason: "must be between 1 and 65535"}
	}

	company := ""
	if cur, err := s.Repo.GetSettings(ctx, s.DB); err == nil {
		company = cur.CompanyName
	}
	if err := s.Repo.SaveSettings(ctx, s.DB, &domain.Settings{
		ServerAddress: address,
		ServerPort:    port,
		CompanyName:   company,
	}); err != nil {
		return err
	}
	s.changed()
	return nil
}

// SetActiveCompany switches the company context all subsequent queries run
// against. The server must be configured first.
func (s *SettingsService) SetActiveCompany(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &request.ValidationError{Field: "company_name", Reason: "must not be empty"}
	}
	err := s.Repo.UpdateCompany(ctx, s.DB, name)
	if errors.Is(err, repo.ErrNotFound) {
		return transport.ErrNotConfigured
	}
	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// Reset clears the persisted configuration atomically.
func (s *SettingsService) Reset(ctx context.Context) error {
	if err := s.Repo.DeleteSettings(ctx, s.DB); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *SettingsService) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}
