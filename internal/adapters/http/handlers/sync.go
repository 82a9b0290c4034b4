package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/app"
)

// SyncHandler exposes the background sync loop.
type SyncHandler struct {
	service *app.SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(service *app.SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// TriggerSync handles POST /api/v1/sync
// Runs one cycle now and reports its outcome.
//
// @Summary Run a sync cycle
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncResultResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	res, err := h.service.RunOnce(c.Request.Context())
	if errors.Is(err, app.ErrSyncInProgress) {
		dto.RespondWithCode(c, dto.ErrorCodeSyncInProgress, err.Error())
		return
	}

	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSyncResultResponse(res))
}

// GetStatus handles GET /api/v1/sync/status
//
// @Summary Current sync phase and last outcome
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncStatusResponse
// @Router /api/v1/sync/status [get]
func (h *SyncHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSyncStatusResponse(h.service.Status()))
}

// RegisterSyncRoutes registers sync routes on the given router group.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.TriggerSync)
	rg.GET("/sync/status", h.GetStatus)
}
