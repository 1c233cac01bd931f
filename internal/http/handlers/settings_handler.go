// Package handlers – settings endpoints.
//
// The settings endpoints manage the persisted connection configuration:
// which Tally server to talk to and which company the queries run against.
// Every mutation invalidates the response cache downstream (the services
// flush via the settings OnChange hook), so handlers only translate the
// HTTP shape.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-tally-backend/internal/domain"
)

// SettingsAPI defines the configuration operations the HTTP layer depends on.
type SettingsAPI interface {
	Get(ctx context.Context) (*domain.Settings, error)
	SetServer(ctx context.Context, address string, port int) error
	SetActiveCompany(ctx context.Context, name string) error
	Reset(ctx context.Context) error
}

// SettingsHandlers bundles the settings endpoint handlers.
type SettingsHandlers struct {
	Svc SettingsAPI
}

// NewSettings constructs SettingsHandlers around the given service.
func NewSettings(svc SettingsAPI) *SettingsHandlers {
	return &SettingsHandlers{Svc: svc}
}

// serverRequest is the payload for PUT /settings/server.
type serverRequest struct {
	ServerAddress string `json:"server_address" binding:"required" example:"192.168.1.50"`
	ServerPort    int    `json:"server_port" binding:"required" example:"9000"`
}

// companyRequest is the payload for PUT /settings/company.
type companyRequest struct {
	CompanyName string `json:"company_name" binding:"required" example:"ACME (2024-25)"`
}

// Get handles GET /settings.
//
// @Summary      Current connection settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  domain.Settings
// @Failure      404  {object}  ErrorResponse
// @Router       /settings [get]
func (h *SettingsHandlers) Get(c *gin.Context) {
	s, err := h.Svc.Get(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// SetServer handles PUT /settings/server.
//
// @Summary      Configure the Tally server endpoint
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  serverRequest  true  "Server address and port"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Router       /settings/server [put]
func (h *SettingsHandlers) SetServer(c *gin.Context) {
	var req serverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "server_address and server_port are required")
		return
	}
	if err := h.Svc.SetServer(c.Request.Context(), req.ServerAddress, req.ServerPort); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// SetCompany handles PUT /settings/company.
//
// @Summary      Select the active company
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  companyRequest  true  "Company name"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /settings/company [put]
func (h *SettingsHandlers) SetCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "company_name is required")
		return
	}
	if err := h.Svc.SetActiveCompany(c.Request.Context(), req.CompanyName); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// Reset handles DELETE /settings.
//
// @Summary      Clear the persisted configuration
// @Tags         settings
// @Success      204
// @Router       /settings [delete]
func (h *SettingsHandlers) Reset(c *gin.Context) {
	if err := h.Svc.Reset(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
