// Package services – InventoryService
//
// Stock items are a single unpaginated collection in Tally, so the service
// is simpler than sales: one fingerprint per company, a longer TTL (the
// master list changes rarely), and the same stale-fallback policy.
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

// InventoryService exposes the stock item master listing.
type InventoryService struct {
	Client  Transport
	Cache   *cache.Store
	Tasks   *cache.Registry
	Company CompanyProvider

	// TTL bounds how long the stock listing stays fresh (default 10m).
	TTL time.Duration

	Log zerolog.Logger
}

// NewInventoryService constructs an InventoryService with the default TTL.
func NewInventoryService(client Transport, store *cache.Store, tasks *cache.Registry, company CompanyProvider, log zerolog.Logger) *InventoryService {
	return &InventoryService{
		Client:  client,
		Cache:   store,
		Tasks:   tasks,
		Company: company,
		TTL:     10 * time.Minute,
		Log:     log,
	}
}

// GetStockItems returns the master inventory listing. With forceRefresh the
// cache check is skipped; the kept entry still serves as degraded fallback.
func (s *InventoryService) GetStockItems(ctx context.Context, forceRefresh bool) (*domain.StockItemsResult, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	fp := cache.Fingerprint{Kind: request.KindStockItems, Company: company}

	if !forceRefresh {
		if v, ok := s.Cache.Get(fp); ok {
			res := v.(domain.StockItemsResult)
			return &res, nil
		}
	}

	v, err := s.Tasks.Do(fp, func() (any, error) {
		xmlReq, err := request.BuildStockItems(company)
		if err != nil {
			return nil, err
		}
		body, err := s.Client.Send(ctx, xmlReq)
		if err != nil {
			return nil, err
		}
		items, report, err := parse.StockItems(body)
		if err != nil {
			return nil, err
		}
		if report.Parsed != report.RawElements {
			s.Log.Warn().
				Int("raw", report.RawElements).
				Int("parsed", report.Parsed).
				Msg("nameless stock items rejected during parse")
		}
		res := domain.StockItemsResult{Items: items}
		s.Cache.Set(fp, res, s.TTL)
		return res, nil
	})
	if err != nil {
		if cached, ok := s.Cache.Get(fp); ok {
			res := cached.(domain.StockItemsResult)
			res.Stale = true
			res.StaleReason = err.Error()
			return &res, nil
		}
		return nil, err
	}
	res := v.(domain.StockItemsResult)
	return &res, nil
}

// Invalidate drops the cached stock listing for the active company.
func (s *InventoryService) Invalidate(ctx context.Context) error {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return err
	}
	s.Cache.Delete(cache.Fingerprint{Kind: request.KindStockItems, Company: company})
	return nil
}
