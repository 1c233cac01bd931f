package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tally-backend/internal/domain"
)

// InventoryAPI defines the inventory operations the HTTP layer depends on.
type InventoryAPI interface {
	GetStockItems(ctx context.Context, forceRefresh bool) (*domain.StockItemsResult, error)
}

// InventoryHandlers bundles the inventory endpoint handlers.
type InventoryHandlers struct {
	Svc InventoryAPI
}

// NewInventory constructs InventoryHandlers around the given service.
func NewInventory(svc InventoryAPI) *InventoryHandlers {
	return &InventoryHandlers{Svc: svc}
}

// GetStockItems handles GET /inventory/items.
//
// @Summary      List stock items
// @Description  Returns the master inventory listing for the active company.
// @Tags         inventory
// @Produce      json
// @Param        refresh  query  bool  false  "Bypass the response cache"
// @Success      200  {object}  domain.StockItemsResult
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /inventory/items [get]
func (h *InventoryHandlers) GetStockItems(c *gin.Context) {
	res, err := h.Svc.GetStockItems(c.Request.Context(), boolParam(c, "refresh"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
