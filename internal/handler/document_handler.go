package handler

import (
	"net/http"
	"strconv"

	"docuhub/internal/apperr"
	"docuhub/internal/middleware"
	"docuhub/internal/service"
	"docuhub/internal/storage"
	"docuhub/pkg/pagination"
	"docuhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentService service.DocumentService
	files           *storage.Store
}

// NewDocumentHandler sets up the routing dependencies for Document endpoints
func NewDocumentHandler(documentService service.DocumentService, files *storage.Store) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, files: files}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	docs := router.Group("/documents", middleware.RequireAuth())
	{
		docs.POST("/upload", h.Upload)
		docs.GET("", h.List)
		docs.GET("/:id", h.Get)
		docs.POST("/:id/assign", h.Assign)
		docs.GET("/:id/lock", h.CheckLock)
	}
}

// Upload handles POST /documents/upload: persists the file, creates the
// document row and optionally the initial assignment
// @Summary      Upload a document
// @Description  Creates a document from a multipart PDF upload with an optional initial assignment
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file        formData  file    true   "PDF file"
// @Param        title       formData  string  true   "Document title"
// @Param        assign_to   formData  string  false  "Initial assignee user ID"
// @Param        role_label  formData  string  false  "Assignment role label"
// @Param        give_lock   formData  bool    false  "Grant the assignee an edit lock"
// @Param        notify      formData  bool    false  "Notify the assignee"
// @Success      201  {object}  response.Response{data=service.DocumentResponse}
// @Failure      400  {object}  response.Response
// @Router       /documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "A file is required"))
		return
	}

	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Title is required"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open uploaded file"))
		return
	}
	defer src.Close()

	fileURL, size, err := h.files.Save(src, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to persist uploaded file"))
		return
	}

	giveLock, _ := strconv.ParseBool(c.DefaultPostForm("give_lock", "false"))
	notify, _ := strconv.ParseBool(c.DefaultPostForm("notify", "true"))

	doc, err := h.documentService.Create(c.Request.Context(), c.GetString("userID"), service.CreateDocumentRequest{
		Title:     title,
		FileURL:   fileURL,
		FileSize:  size,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		AssignTo:  c.PostForm("assign_to"),
		RoleLabel: c.PostForm("role_label"),
		GiveLock:  giveLock,
		Notify:    notify,
	})
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// List handles GET /documents with status/assignee filters
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        status       query  string  false  "Filter by status"
// @Param        assigned_to  query  string  false  "Filter by assignee user ID"
// @Param        uploaded_by  query  string  false  "Filter by uploader user ID"
// @Success      200  {object}  response.Response{data=object}
// @Router       /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	docs, total, err := h.documentService.List(c.Request.Context(), service.DocumentFilter{
		Status:     c.Query("status"),
		AssignedTo: c.Query("assigned_to"),
		UploadedBy: c.Query("uploaded_by"),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, docs, params.MetaFor(total)))
}

// Get handles GET /documents/:id returning the document plus its assignment history
// @Summary      Get document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Assign handles POST /documents/:id/assign
// @Summary      Assign document
// @Description  Transfers the document to a new assignee, optionally granting an edit lock and notifying them
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Document ID"
// @Param        payload  body      service.AssignDocumentRequest  true  "Assignment"
// @Success      200      {object}  response.Response{data=service.AssignResult}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /documents/{id}/assign [post]
func (h *DocumentHandler) Assign(c *gin.Context) {
	var req service.AssignDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.documentService.Assign(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CheckLock handles GET /documents/:id/lock reporting whether the caller holds a live edit lock
func (h *DocumentHandler) CheckLock(c *gin.Context) {
	owned, err := h.documentService.IsLockOwnedBy(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"lock_owned": owned,
	}))
}
