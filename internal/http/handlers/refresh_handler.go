package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tally-backend/internal/services"
)

// SalesInvalidator drops cached sales entries for one listing criteria.
type SalesInvalidator interface {
	Invalidate(ctx context.Context, p services.PageParams) error
}

// InventoryInvalidator drops the cached stock listing.
type InventoryInvalidator interface {
	Invalidate(ctx context.Context) error
}

// BalanceInvalidator drops the cached balance sheet for a range.
type BalanceInvalidator interface {
	Invalidate(ctx context.Context, fromDate, toDate string) error
}

// RefreshHandlers implements the user-triggered refresh: it invalidates the
// cached fingerprints for the submitted criteria so the next read goes
// upstream. Invalidation is per-criteria, not a full flush; unrelated ranges
// keep their cache.
type RefreshHandlers struct {
	Sales     SalesInvalidator
	Inventory InventoryInvalidator
	Balance   BalanceInvalidator
}

// NewRefresh constructs RefreshHandlers around the given services.
func NewRefresh(sales SalesInvalidator, inventory InventoryInvalidator, balance BalanceInvalidator) *RefreshHandlers {
	return &RefreshHandlers{Sales: sales, Inventory: inventory, Balance: balance}
}

// refreshRequest is the payload for POST /refresh.
type refreshRequest struct {
	FromDate string `json:"from_date" binding:"required" example:"20240401"`
	ToDate   string `json:"to_date" binding:"required" example:"20250331"`
	Page     int    `json:"page" example:"1"`
	PageSize int    `json:"page_size" example:"100"`
	Filter   string `json:"q" example:""`
}

// Refresh handles POST /refresh.
//
// @Summary      Invalidate cached data for the given criteria
// @Description  Drops the cached voucher page, range count, statistics,
// @Description  stock listing, and balance sheet so the next read refetches.
// @Tags         refresh
// @Accept       json
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /refresh [post]
func (h *RefreshHandlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from_date and to_date are required")
		return
	}
	p := services.PageParams{
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Page:     req.Page,
		PageSize: req.PageSize,
		Filter:   req.Filter,
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	ctx := c.Request.Context()
	if err := h.Sales.Invalidate(ctx, p); err != nil {
		failErr(c, err)
		return
	}
	if err := h.Inventory.Invalidate(ctx); err != nil {
		failErr(c, err)
		return
	}
	if err := h.Balance.Invalidate(ctx, req.FromDate, req.ToDate); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
