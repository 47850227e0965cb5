package handler

import (
	"net/http"
	"strconv"

	"docuhub/internal/apperr"
	"docuhub/internal/middleware"
	"docuhub/internal/service"
	"docuhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnnotationHandler struct {
	annotationService service.AnnotationService
}

// NewAnnotationHandler sets up the routing dependencies for Annotation endpoints
func NewAnnotationHandler(annotationService service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotationService: annotationService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AnnotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	annotations := router.Group("/annotations", middleware.RequireAuth())
	{
		annotations.GET("", h.List)
		annotations.POST("", h.Create)
		annotations.PATCH("/:id", h.Update)
		annotations.DELETE("/:id", h.Delete)
		annotations.GET("/xfdf", h.GetXfdf)
		annotations.POST("/xfdf", h.PutXfdf)
	}
}

// Create handles POST /annotations
// @Summary      Create annotation
// @Tags         annotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAnnotationRequest  true  "Annotation"
// @Success      201      {object}  response.Response{data=service.AnnotationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /annotations [post]
func (h *AnnotationHandler) Create(c *gin.Context) {
	var req service.CreateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	annotation, err := h.annotationService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, annotation))
}

// List handles GET /annotations?document_id=&page= ordered by sequence number
func (h *AnnotationHandler) List(c *gin.Context) {
	documentID := c.Query("document_id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "document_id is required"))
		return
	}

	var page *int
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid page number"))
			return
		}
		page = &parsed
	}

	annotations, err := h.annotationService.List(c.Request.Context(), documentID, page)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, annotations))
}

// Update handles PATCH /annotations/:id (author only)
func (h *AnnotationHandler) Update(c *gin.Context) {
	var req service.UpdateAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	annotation, err := h.annotationService.Update(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, annotation))
}

// Delete handles DELETE /annotations/:id (author only)
func (h *AnnotationHandler) Delete(c *gin.Context) {
	if err := h.annotationService.Delete(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Annotation deleted"))
}

// GetXfdf handles GET /annotations/xfdf?document_id= returning the bulk markup blob
func (h *AnnotationHandler) GetXfdf(c *gin.Context) {
	documentID := c.Query("document_id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "document_id is required"))
		return
	}

	xfdf, err := h.annotationService.GetXfdf(c.Request.Context(), documentID)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	// xfdf is nil when no blob has been stored yet
	c.JSON(http.StatusOK, response.Success(http.StatusOK, xfdf))
}

// PutXfdf handles POST /annotations/xfdf upserting the bulk markup blob
// @Summary      Upsert bulk markup
// @Description  Stores the whole-document annotation blob; one row per document, last write wins
// @Tags         annotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PutXfdfRequest  true  "Markup blob"
// @Success      200      {object}  response.Response{data=service.XfdfResponse}
// @Failure      400      {object}  response.Response
// @Router       /annotations/xfdf [post]
func (h *AnnotationHandler) PutXfdf(c *gin.Context) {
	var req service.PutXfdfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	xfdf, err := h.annotationService.PutXfdf(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, xfdf))
}
