// Package handlers – sales endpoints.
//
// Exposes the paginated voucher listing, single-voucher details, range
// statistics, and the top-customer ranking. Handlers validate nothing beyond
// shape; semantic validation (date format, page bounds) lives in the service
// and request layers and surfaces here as ValidationError → 400.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tally-backend/internal/domain"
	"github.com/tbourn/go-tally-backend/internal/services"
	"github.com/tbourn/go-tally-backend/internal/sysutil"
	"github.com/tbourn/go-tally-backend/internal/utils"
)

// SalesAPI defines the sales operations the HTTP layer depends on.
//
// It is intentionally consumer-side: *services.SalesService satisfies it, and
// tests substitute a fake without touching the service package.
type SalesAPI interface {
	GetPage(ctx context.Context, p services.PageParams, forceRefresh bool) (*domain.VoucherPage, error)
	GetDetails(ctx context.Context, guid string) (*domain.Voucher, error)
	GetStatistics(ctx context.Context, fromDate, toDate string) (*domain.SalesStatistics, error)
	GetTopCustomers(ctx context.Context, fromDate, toDate string, limit int) ([]domain.TopCustomer, error)
}

// SalesHandlers bundles the sales endpoint handlers.
type SalesHandlers struct {
	Svc SalesAPI
}

// NewSales constructs SalesHandlers around the given service.
func NewSales(svc SalesAPI) *SalesHandlers {
	return &SalesHandlers{Svc: svc}
}

// defaultPageSize matches the upstream export chunk the dashboard pages by.
const defaultPageSize = 100

// pageParams extracts the listing criteria from the query string.
func pageParams(c *gin.Context) services.PageParams {
	return services.PageParams{
		FromDate: c.Query("from"),
		ToDate:   c.Query("to"),
		Page:     utils.AtoiDefault(c.Query("page"), 1),
		PageSize: utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		Filter:   c.Query("q"),
	}
}

// boolParam interprets a query flag ("1"/"true"/"yes"/"on" → true).
func boolParam(c *gin.Context, name string) bool {
	return sysutil.IsTruthy(c.Query(name))
}

// GetVouchers handles GET /sales/vouchers.
//
// Query parameters: from, to (YYYYMMDD, required), page, page_size, q
// (party-name filter), refresh (skip the cache).
//
// @Summary      List sales vouchers
// @Description  Returns one page of sales vouchers for the date range.
// @Tags         sales
// @Produce      json
// @Param        from       query  string  true   "Range start (YYYYMMDD)"
// @Param        to         query  string  true   "Range end (YYYYMMDD)"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        page_size  query  int     false  "Page size (default 100)"
// @Param        q          query  string  false  "Party name filter"
// @Param        refresh    query  bool    false  "Bypass the response cache"
// @Success      200  {object}  domain.VoucherPage
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Failure      504  {object}  ErrorResponse
// @Router       /sales/vouchers [get]
func (h *SalesHandlers) GetVouchers(c *gin.Context) {
	page, err := h.Svc.GetPage(c.Request.Context(), pageParams(c), boolParam(c, "refresh"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// GetVoucher handles GET /sales/vouchers/:guid.
//
// @Summary      Get one sales voucher
// @Description  Returns a voucher with its inventory line items.
// @Tags         sales
// @Produce      json
// @Param        guid  path  string  true  "Voucher GUID"
// @Success      200  {object}  domain.Voucher
// @Failure      404  {object}  ErrorResponse
// @Router       /sales/vouchers/{guid} [get]
func (h *SalesHandlers) GetVoucher(c *gin.Context) {
	v, err := h.Svc.GetDetails(c.Request.Context(), c.Param("guid"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// GetStatistics handles GET /sales/statistics.
//
// @Summary      Sales statistics for a range
// @Tags         sales
// @Produce      json
// @Param        from  query  string  true  "Range start (YYYYMMDD)"
// @Param        to    query  string  true  "Range end (YYYYMMDD)"
// @Success      200  {object}  domain.SalesStatistics
// @Failure      400  {object}  ErrorResponse
// @Router       /sales/statistics [get]
func (h *SalesHandlers) GetStatistics(c *gin.Context) {
	stats, err := h.Svc.GetStatistics(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// GetTopCustomers handles GET /sales/customers/top.
//
// @Summary      Top customers by sales amount
// @Tags         sales
// @Produce      json
// @Param        from   query  string  true   "Range start (YYYYMMDD)"
// @Param        to     query  string  true   "Range end (YYYYMMDD)"
// @Param        limit  query  int     false  "Maximum entries (default 10)"
// @Success      200  {array}  domain.TopCustomer
// @Failure      400  {object}  ErrorResponse
// @Router       /sales/customers/top [get]
func (h *SalesHandlers) GetTopCustomers(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	customers, err := h.Svc.GetTopCustomers(c.Request.Context(), c.Query("from"), c.Query("to"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, customers)
}
