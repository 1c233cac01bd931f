// Package services – BalanceSheetService
//
// The balance sheet is derived from the account-group collection: closing
// balances split into asset-natured and liability-natured groups over the
// requested range. Same cache/stale policy as the other services.
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

// BalanceSheetService exposes the company financial position.
type BalanceSheetService struct {
	Client  Transport
	Cache   *cache.Store
	Tasks   *cache.Registry
	Company CompanyProvider

	// TTL bounds how long a balance sheet stays fresh (default 10m).
	TTL time.Duration

	Log zerolog.Logger
}

// NewBalanceSheetService constructs a BalanceSheetService with defaults.
func NewBalanceSheetService(client Transport, store *cache.Store, tasks *cache.Registry, company CompanyProvider, log zerolog.Logger) *BalanceSheetService {
	return &BalanceSheetService{
		Client:  client,
		Cache:   store,
		Tasks:   tasks,
		Company: company,
		TTL:     10 * time.Minute,
		Log:     log,
	}
}

// Get returns the balance sheet for the range. With forceRefresh the cache
// check is skipped; the kept entry still serves as degraded fallback.
func (s *BalanceSheetService) Get(ctx context.Context, fromDate, toDate string, forceRefresh bool) (*domain.BalanceSheet, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	r := request.DateRange{From: fromDate, To: toDate}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	fp := cache.Fingerprint{
		Kind:     request.KindBalanceSheet,
		FromDate: fromDate,
		ToDate:   toDate,
		Company:  company,
	}

	if !forceRefresh {
		if v, ok := s.Cache.Get(fp); ok {
			bs := v.(domain.BalanceSheet)
			return &bs, nil
		}
	}

	v, err := s.Tasks.Do(fp, func() (any, error) {
		xmlReq, err := request.BuildBalanceSheet(company, r)
		if err != nil {
			return nil, err
		}
		body, err := s.Client.Send(ctx, xmlReq)
		if err != nil {
			return nil, err
		}
		bs, err := parse.BalanceSheet(body)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(fp, *bs, s.TTL)
		return *bs, nil
	})
	if err != nil {
		if cached, ok := s.Cache.Get(fp); ok {
			bs := cached.(domain.BalanceSheet)
			return &bs, nil
		}
		return nil, err
	}
	bs := v.(domain.BalanceSheet)
	return &bs, nil
}

// Invalidate drops the cached balance sheet for the range.
func (s *BalanceSheetService) Invalidate(ctx context.Context, fromDate, toDate string) error {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return err
	}
	s.Cache.Delete(cache.Fingerprint{
		Kind:     request.KindBalanceSheet,
		FromDate: fromDate,
		ToDate:   toDate,
		Company:  company,
	})
	return nil
}
