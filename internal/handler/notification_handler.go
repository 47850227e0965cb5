package handler

import (
	"net/http"

	"docuhub/internal/apperr"
	"docuhub/internal/middleware"
	"docuhub/internal/service"
	"docuhub/pkg/pagination"
	"docuhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler sets up the routing dependencies for Notification endpoints
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications", middleware.RequireAuth())
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PATCH("/:id/read", h.MarkRead)
		notifications.DELETE("", h.ClearRead)
	}
}

// List handles GET /notifications returning the caller's notifications newest-first
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	notifications, total, err := h.notificationService.List(c.Request.Context(), c.GetString("userID"), params.Page, params.Limit)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, notifications, params.MetaFor(total)))
}

// UnreadCount handles GET /notifications/unread-count for the caller's badge counter
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to count notifications"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"unread": count,
	}))
}

// MarkRead handles PATCH /notifications/:id/read (recipient only)
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notification, err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, notification))
}

// ClearRead handles DELETE /notifications bulk-deleting the caller's read notifications
func (h *NotificationHandler) ClearRead(c *gin.Context) {
	if err := h.notificationService.ClearRead(c.Request.Context(), c.GetString("userID")); err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Read notifications cleared"))
}
