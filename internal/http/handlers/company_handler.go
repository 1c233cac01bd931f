package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tally-backend/internal/domain"
)

// CompanyAPI defines the company operations the HTTP layer depends on.
type CompanyAPI interface {
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	GetDetails(ctx context.Context) (*domain.CompanyDetails, error)
	GetTaxDetails(ctx context.Context) (*domain.CompanyTaxDetails, error)
}

// BalanceSheetAPI defines the financial-position operation.
type BalanceSheetAPI interface {
	Get(ctx context.Context, fromDate, toDate string, forceRefresh bool) (*domain.BalanceSheet, error)
}

// CompanyHandlers bundles the company and balance-sheet endpoint handlers.
type CompanyHandlers struct {
	Svc     CompanyAPI
	Balance BalanceSheetAPI
}

// NewCompany constructs CompanyHandlers around the given services.
func NewCompany(svc CompanyAPI, balance BalanceSheetAPI) *CompanyHandlers {
	return &CompanyHandlers{Svc: svc, Balance: balance}
}

// ListCompanies handles GET /companies.
//
// This is the one endpoint usable before a company is selected; the
// onboarding flow calls it to populate the company picker.
//
// @Summary      List companies on the Tally server
// @Tags         company
// @Produce      json
// @Success      200  {array}  domain.Company
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /companies [get]
func (h *CompanyHandlers) ListCompanies(c *gin.Context) {
	companies, err := h.Svc.ListCompanies(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, companies)
}

// GetDetails handles GET /company.
//
// @Summary      Active company details
// @Tags         company
// @Produce      json
// @Success      200  {object}  domain.CompanyDetails
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /company [get]
func (h *CompanyHandlers) GetDetails(c *gin.Context) {
	d, err := h.Svc.GetDetails(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// GetTaxDetails handles GET /company/tax.
//
// @Summary      Active company income-tax details
// @Tags         company
// @Produce      json
// @Success      200  {object}  domain.CompanyTaxDetails
// @Failure      404  {object}  ErrorResponse
// @Router       /company/tax [get]
func (h *CompanyHandlers) GetTaxDetails(c *gin.Context) {
	d, err := h.Svc.GetTaxDetails(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// GetBalanceSheet handles GET /company/balance-sheet.
//
// @Summary      Balance sheet for a range
// @Tags         company
// @Produce      json
// @Param        from     query  string  true   "Range start (YYYYMMDD)"
// @Param        to       query  string  true   "Range end (YYYYMMDD)"
// @Param        refresh  query  bool    false  "Bypass the response cache"
// @Success      200  {object}  domain.BalanceSheet
// @Failure      400  {object}  ErrorResponse
// @Router       /company/balance-sheet [get]
func (h *CompanyHandlers) GetBalanceSheet(c *gin.Context) {
	bs, err := h.Balance.Get(c.Request.Context(), c.Query("from"), c.Query("to"), boolParam(c, "refresh"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, bs)
}
