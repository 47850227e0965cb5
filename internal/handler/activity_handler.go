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

type ActivityHandler struct {
	activityService service.ActivityService
}

// NewActivityHandler sets up the routing dependencies for ActivityLog endpoints
func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/activity", middleware.RequirePermission("activity.read"), h.List)
}

// List handles GET /activity returning paginated audit entries, optionally
// scoped to one document via ?document_id=
// @Summary      List activity log
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        document_id  query  string  false  "Restrict to one document"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.activityService.List(c.Request.Context(), c.Query("document_id"), params.Page, params.Limit)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, entries, params.MetaFor(total)))
}
