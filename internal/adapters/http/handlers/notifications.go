package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// NotificationSource lists notifications still visible at a given time.
type NotificationSource interface {
	Active(now time.Time) []domain.Notification
}

// NotificationHandler serves transient notifications such as sync results.
type NotificationHandler struct {
	source NotificationSource
	now    func() time.Time
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(source NotificationSource) *NotificationHandler {
	return &NotificationHandler{source: source, now: time.Now}
}

// ListNotifications handles GET /api/v1/notifications
//
// @Summary Notifications that have not expired
// @Tags notifications
// @Produce json
// @Success 200 {array} dto.NotificationResponse
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewNotificationResponses(h.source.Active(h.now())))
}

// RegisterNotificationRoutes registers notification routes on the given router group.
func (h *NotificationHandler) RegisterNotificationRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.ListNotifications)
}
