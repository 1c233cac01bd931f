// Package services – SalesService
//
// This file implements the sales voucher operations: paginated listing with
// adjacent-page prefetch, the page-1 authoritative count, per-voucher detail
// with line items, and range statistics with top-customer aggregation.
//
// Policy, shared with the other domain services: check the cache first (a
// hit returns immediately and prefetches neighbours in the background); on a
// miss go through the in-flight registry so an explicit request attaches to
// a running prefetch instead of issuing a duplicate upstream call; and on a
// transport failure fall back to the last cached payload for the same
// fingerprint, marked stale, rather than failing outright.
package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-tally-backend/internal/cache"
	"github.com/tbourn/go-tally-backend/internal/domain"
	"github.com/tbourn/go-tally-backend/internal/tally/parse"
	"github.com/tbourn/go-tally-backend/internal/tally/request"
)

// SalesService exposes sales voucher operations to the HTTP layer.
type SalesService struct {
	// Client is the serialized upstream transport.
	Client Transport
	// Cache is the TTL response cache.
	Cache *cache.Store
	// Tasks deduplicates in-flight fetches per fingerprint.
	Tasks *cache.Registry
	// Company yields the active company context.
	Company CompanyProvider

	// PageTTL bounds how long a voucher page stays fresh.
	PageTTL time.Duration
	// StatsTTL bounds how long a statistics aggregate stays fresh.
	StatsTTL time.Duration
	// TopCustomerLimit caps the top-customer slice (default 10).
	TopCustomerLimit int

	// Log receives background prefetch failures at warn level.
	Log zerolog.Logger
}

// NewSalesService constructs a SalesService with default TTLs.
func NewSalesService(client Transport, store *cache.Store, tasks *cache.Registry, company CompanyProvider, log zerolog.Logger) *SalesService {
	return &SalesService{
		Client:           client,
		Cache:            store,
		Tasks:            tasks,
		Company:          company,
		PageTTL:          5 * time.Minute,
		StatsTTL:         10 * time.Minute,
		TopCustomerLimit: 10,
		Log:              log,
	}
}

// PageParams carries the caller's listing criteria.
type PageParams struct {
	FromDate string // YYYYMMDD
	ToDate   string // YYYYMMDD
	Page     int
	PageSize int
	Filter   string // optional party-name substring
}

func (p PageParams) query(company string) request.VoucherQuery {
	return request.VoucherQuery{
		Company:  company,
		Range:    request.DateRange{From: p.FromDate, To: p.ToDate},
		Page:     p.Page,
		PageSize: p.PageSize,
		Filter:   p.Filter,
	}
}

func (p PageParams) fingerprint(company string) cache.Fingerprint {
	return cache.Fingerprint{
		Kind:     request.KindSalesVouchers,
		FromDate: p.FromDate,
		ToDate:   p.ToDate,
		Company:  company,
		Page:     p.Page,
		PageSize: p.PageSize,
		Filter:   p.Filter,
	}
}

// countFingerprint addresses the range-wide count, independent of page.
func (p PageParams) countFingerprint(company string) cache.Fingerprint {
	return cache.Fingerprint{
		Kind:     request.KindVoucherCount,
		FromDate: p.FromDate,
		ToDate:   p.ToDate,
		Company:  company,
		Filter:   p.Filter,
	}
}

// GetPage returns one page of sales vouchers. With forceRefresh the cache
// check is skipped (the entry is kept, so it can still serve as the degraded
// fallback if the upstream fails).
func (s *SalesService) GetPage(ctx context.Context, p PageParams, forceRefresh bool) (*domain.VoucherPage, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	q := p.query(company)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	fp := p.fingerprint(company)

	if !forceRefresh {
		if v, ok := s.Cache.Get(fp); ok {
			page := v.(domain.VoucherPage)
			s.prefetchAdjacent(p, company)
			return &page, nil
		}
	}

	v, err := s.Tasks.Do(fp, func() (any, error) {
		return s.fetchPage(ctx, q, fp, p.countFingerprint(company))
	})
	if err != nil {
		// Degraded fallback: a prefetch may have populated the entry since
		// the miss, or forceRefresh skipped a live entry.
		if cached, ok := s.Cache.Get(fp); ok {
			page := cached.(domain.VoucherPage)
			page.Stale = true
			page.StaleReason = err.Error()
			return &page, nil
		}
		return nil, err
	}
	page := v.(domain.VoucherPage)
	s.prefetchAdjacent(p, company)
	return &page, nil
}

// fetchPage issues the listing (and on page 1 the count) upstream, assembles
// the result, and stores it in the cache.
func (s *SalesService) fetchPage(ctx context.Context, q request.VoucherQuery, fp, countFP cache.Fingerprint) (domain.VoucherPage, error) {
	xmlReq, err := request.BuildVoucherList(q)
	if err != nil {
		return domain.VoucherPage{}, err
	}
	body, err := s.Client.Send(ctx, xmlReq)
	if err != nil {
		return domain.VoucherPage{}, err
	}
	vouchers, report, err := parse.Vouchers(body, q.Page)
	if err != nil {
		return domain.VoucherPage{}, err
	}
	if report.Parsed != report.RawElements {
		s.Log.Warn().
			Int("raw", report.RawElements).
			Int("parsed", report.Parsed).
			Msg("voucher elements rejected during parse")
	}

	page := domain.VoucherPage{
		Data:     vouchers,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  len(vouchers) == q.PageSize,
	}
	page.TotalCount = s.totalCount(ctx, q, countFP, len(vouchers))

	s.Cache.Set(fp, page, s.PageTTL)
	return page, nil
}

// totalCount reconciles the pagination estimate. Page 1 fetches the
// authoritative count via the lightweight GUID-only query and caches it for
// later pages; any failure degrades to the positional estimate. Later pages
// reuse the cached count until it expires or is invalidated, accepting
// staleness in between.
func (s *SalesService) totalCount(ctx context.Context, q request.VoucherQuery, countFP cache.Fingerprint, got int) int {
	estimate := (q.Page-1)*q.PageSize + got
	if got == q.PageSize {
		estimate = q.Page * q.PageSize // lower bound, more pages exist
	}

	if q.Page != 1 {
		if v, ok := s.Cache.Get(countFP); ok {
			if n := v.(int); n > estimate {
				return n
			}
		}
		return estimate
	}

	xmlReq, err := request.BuildVoucherCount(q)
	if err != nil {
		return estimate
	}
	body, err := s.Client.Send(ctx, xmlReq)
	if err != nil {
		s.Log.Warn().Err(err).Msg("voucher count query failed, using estimate")
		return estimate
	}
	n, err := parse.CountVouchers(body)
	if err != nil || n < got {
		return estimate
	}
	s.Cache.Set(countFP, n, s.PageTTL)
	return n
}

// prefetchAdjacent warms pages page+1, page+2, and page-1 in the background.
// Failures are logged and swallowed; the in-flight registry ensures a later
// explicit request attaches to the same fetch.
func (s *SalesService) prefetchAdjacent(p PageParams, company string) {
	for _, delta := range []int{1, 2, -1} {
		target := p.Page + delta
		if target < 1 {
			continue
		}
		np := p
		np.Page = target
		fp := np.fingerprint(company)
		if s.Cache.Has(fp) {
			continue
		}
		ch := s.Tasks.Go(fp, func() (any, error) {
			return s.fetchPage(context.Background(), np.query(company), fp, np.countFingerprint(company))
		})
		go func(page int) {
			if r := <-ch; r.Err != nil {
				s.Log.Warn().Err(r.Err).Int("page", page).Msg("background page prefetch failed")
			}
		}(target)
	}
}

// GetDetails fetches one voucher with its inventory line items. A voucher
// that does not exist in the active company yields ErrVoucherNotFound.
func (s *SalesService) GetDetails(ctx context.Context, guid string) (*domain.Voucher, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	fp := cache.Fingerprint{Kind: request.KindVoucherDetail, Company: company, Filter: guid}
	if v, ok := s.Cache.Get(fp); ok {
		voucher := v.(domain.Voucher)
		return &voucher, nil
	}

	xmlReq, err := request.BuildVoucherDetails(company, guid)
	if err != nil {
		return nil, err
	}
	body, err := s.Client.Send(ctx, xmlReq)
	if err != nil {
		return nil, err
	}
	voucher, err := parse.VoucherDetails(body)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	s.Cache.Set(fp, *voucher, s.PageTTL)
	return voucher, nil
}

// GetStatistics aggregates the range: total sales, voucher count, average
// order value, and the top customers by amount.
func (s *SalesService) GetStatistics(ctx context.Context, fromDate, toDate string) (*domain.SalesStatistics, error) {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return nil, err
	}
	r := request.DateRange{From: fromDate, To: toDate}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	fp := cache.Fingerprint{
		Kind:     request.KindSalesStats,
		FromDate: fromDate,
		ToDate:   toDate,
		Company:  company,
	}
	if v, ok := s.Cache.Get(fp); ok {
		stats := v.(domain.SalesStatistics)
		return &stats, nil
	}

	v, err := s.Tasks.Do(fp, func() (any, error) {
		xmlReq, err := request.BuildSalesStats(company, r)
		if err != nil {
			return nil, err
		}
		body, err := s.Client.Send(ctx, xmlReq)
		if err != nil {
			return nil, err
		}
		rows, err := parse.PartyAmounts(body)
		if err != nil {
			return nil, err
		}
		stats := s.aggregate(rows)
		s.Cache.Set(fp, stats, s.StatsTTL)
		return stats, nil
	})
	if err != nil {
		if cached, ok := s.Cache.Get(fp); ok {
			stats := cached.(domain.SalesStatistics)
			return &stats, nil
		}
		return nil, err
	}
	stats := v.(domain.SalesStatistics)
	return &stats, nil
}

// GetTopCustomers returns up to limit customers ranked by sales amount.
func (s *SalesService) GetTopCustomers(ctx context.Context, fromDate, toDate string, limit int) ([]domain.TopCustomer, error) {
	stats, err := s.GetStatistics(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > len(stats.TopCustomers) {
		limit = len(stats.TopCustomers)
	}
	return stats.TopCustomers[:limit], nil
}

// Invalidate drops the cached entries for one listing criteria: the page,
// the range count, and the range statistics. Used by user-triggered refresh.
func (s *SalesService) Invalidate(ctx context.Context, p PageParams) error {
	company, err := s.Company.ActiveCompany(ctx)
	if err != nil {
		return err
	}
	s.Cache.Delete(p.fingerprint(company))
	s.Cache.Delete(p.countFingerprint(company))
	s.Cache.Delete(cache.Fingerprint{
		Kind:     request.KindSalesStats,
		FromDate: p.FromDate,
		ToDate:   p.ToDate,
		Company:  company,
	})
	return nil
}

// moneyPrinter renders totals with en-IN style grouping for display.
var moneyPrinter = message.NewPrinter(language.English)

// aggregate folds party/amount rows into the statistics record.
func (s *SalesService) aggregate(rows []parse.PartyAmount) domain.SalesStatistics {
	type acc struct {
		amount float64
		count  int
	}
	byParty := make(map[string]*acc)
	stats := domain.SalesStatistics{TopCustomers: []domain.TopCustomer{}}

	for _, row := range rows {
		stats.TotalSales += row.Amount
		stats.TotalVouchers++
		a, ok := byParty[row.Party]
		if !ok {
			a = &acc{}
			byParty[row.Party] = a
		}
		a.amount += row.Amount
		a.count++
	}
	if stats.TotalVouchers > 0 {
		stats.AverageOrderValue = stats.TotalSales / float64(stats.TotalVouchers)
	}

	for name, a := range byParty {
		stats.TopCustomers = append(stats.TopCustomers, domain.TopCustomer{
			Name:         name,
			Amount:       a.amount,
			VoucherCount: a.count,
		})
	}
	sort.Slice(stats.TopCustomers, func(i, j int) bool {
		if stats.TopCustomers[i].Amount != stats.TopCustomers[j].Amount {
			return stats.TopCustomers[i].Amount > stats.TopCustomers[j].Amount
		}
		return stats.TopCustomers[i].Name < stats.TopCustomers[j].Name
	})
	limit := s.TopCustomerLimit
	if limit <= 0 {
		limit = 10
	}
	if len(stats.TopCustomers) > limit {
		stats.TopCustomers = stats.TopCustomers[:limit]
	}

	stats.TotalSalesDisplay = moneyPrinter.Sprintf("%.2f", stats.TotalSales)
	return stats
}
