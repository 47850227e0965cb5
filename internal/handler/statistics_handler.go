package handler

import (
	"net/http"

	"docuhub/internal/middleware"
	"docuhub/internal/service"
	"docuhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

// NewStatisticsHandler sets up the routing dependencies for Statistics endpoints
func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics/documents", middleware.RequirePermission("statistics.read"), h.GetDocumentStatistics)
}

// GetDocumentStatistics handles GET /statistics/documents
func (h *StatisticsHandler) GetDocumentStatistics(c *gin.Context) {
	stats, err := h.statisticsService.GetDocumentStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute statistics"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
