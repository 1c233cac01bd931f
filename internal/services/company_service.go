// Package services – CompanyService
//
// Company operations: the companies-on-server listing (the one query issued
// without a company context, used during onboarding), the detailed company
// record, and the income-tax projection.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-tally-backend/internal/cache"
	"github.com/tbourn/go-tally-backend/internal/domain"
	"github.com/tbourn/go-tally-backend/internal/tally/parse"
	"github.com/tbourn/go-tally-backend/internal/tally/request"
)

// CompanyService exposes company record operations.
type CompanyService struct {
	Client  Transport
	Cache   *cache.Store
	Tasks   *cache.Registry
	Company CompanyProvider

	// TTL bounds how long company projections stay fresh (default 30m;
	// company master data effectively never changes mid-session).
	TTL time.Duration

	Log zerolog.Logger
}

// NewCompanyService constructs a CompanyService with the default TTL.
func NewCompanyService(client Transport, store *cache.Store, tasks *cache.Registry, company CompanyProvider, log zerolog.Logger) *CompanyService {
	return &CompanyService{
		Client:  client,
		Cache:   store,
		Tasks:   tasks,
		Company: company,
		TTL:     30 * time.Minute,
		Log:     log,
	}
}

// ListCompanies returns the companies available on the Tally server. This
// runs without a company context so it works before onboarding completes.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	fp := cache.Fingerprint{Kind: request.KindCompanyList}
	if v, ok := s.Cache.Get(fp); ok {
		return v.([]domain.Company), nil
	}
	v, err := s.Tasks.Do(fp, func() (any, error) {
		body, err := s.Client.Send(ctx, request.BuildCompanyList())
		if err != nil {
			return nil, err
		}
		companies, err := parse.Companies(body)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(fp, companies, s.TTL)
		return companies, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Company), nil
}

// GetDetails returns the detailed record of the active company, or
// ErrCompanyNotFound when the upstream has no such company.
func (s *CompanyService) GetDetails(ctx context.Context) (*domain.CompanyDetails, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	fp := cache.Fingerprint{Kind: request.KindCompanyDetail, Company: company}
	if v, ok := s.Cache.Get(fp); ok {
		d := v.(domain.CompanyDetails)
		return &d, nil
	}

	v, err := s.Tasks.Do(fp, func() (any, error) {
		xmlReq, err := request.BuildCompanyDetails(company)
		if err != nil {
			return nil, err
		}
		body, err := s.Client.Send(ctx, xmlReq)
		if err != nil {
			return nil, err
		}
		d, err := parse.CompanyDetails(body)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, ErrCompanyNotFound
		}
		s.Cache.Set(fp, *d, s.TTL)
		return *d, nil
	})
	if err != nil {
		return nil, err
	}
	d := v.(domain.CompanyDetails)
	return &d, nil
}

// GetTaxDetails returns the income-tax projection of the active company.
func (s *CompanyService) GetTaxDetails(ctx context.Context) (*domain.CompanyTaxDetails, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	fp := cache.Fingerprint{Kind: request.KindCompanyTax, Company: company}
	if v, ok := s.Cache.Get(fp); ok {
		d := v.(domain.CompanyTaxDetails)
		return &d, nil
	}

	v, err := s.Tasks.Do(fp, func() (any, error) {
		xmlReq, err := request.BuildCompanyTax(company)
		if err != nil {
			return nil, err
		}
		body, err := s.Client.Send(ctx, xmlReq)
		if err != nil {
			return nil, err
		}
		d, err := parse.CompanyTax(body)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, ErrCompanyNotFound
		}
		s.Cache.Set(fp, *d, s.TTL)
		return *d, nil
	})
	if err != nil {
		return nil, err
	}
	d := v.(domain.CompanyTaxDetails)
	return &d, nil
}
