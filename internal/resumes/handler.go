package resumes

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moniqchege/resume-builder/internal/shared/server/middleware"
	"github.com/Moniqchege/resume-builder/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.create)
	rg.POST("/resumes/upload", h.upload)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/stats", h.stats)
	rg.GET("/resumes/:id", h.get)
	rg.PATCH("/resumes/:id", h.update)
	rg.DELETE("/resumes/:id", h.remove)
	rg.GET("/resumes/:id/export/:format", h.export)
}

type createRequest struct {
	Title   string `json:"title"`
	RawText string `json:"rawText"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resume, err := h.Svc.Create(c.Request.Context(), userID, req.Title, req.RawText)
	if err != nil {
		respondServiceError(c, err, "failed to create resume")
		return
	}
	c.Set("resumeId", resume.ID)
	respond.JSON(c, http.StatusCreated, resume)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	resume, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, mimeType, data)
	if err != nil {
		respondServiceError(c, err, "failed to upload resume")
		return
	}
	c.Set("resumeId", resume.ID)
	respond.JSON(c, http.StatusCreated, resume)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "failed to list resumes")
		return
	}
	if items == nil {
		items = []ListItem{}
	}
	respond.OK(c, gin.H{"resumes": items})
}

func (h *Handler) stats(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	stats, err := h.Svc.Stats(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "failed to load stats")
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	detail, err := h.Svc.Get(c.Request.Context(), userID, resumeID)
	if err != nil {
		respondServiceError(c, err, "failed to load resume")
		return
	}
	respond.OK(c, detail)
}

type updateRequest struct {
	Title   *string `json:"title"`
	RawText *string `json:"rawText"`
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resume, err := h.Svc.Update(c.Request.Context(), userID, resumeID, req.Title, req.RawText)
	if err != nil {
		respondServiceError(c, err, "failed to update resume")
		return
	}
	respond.OK(c, resume)
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	if err := h.Svc.Delete(c.Request.Context(), userID, resumeID); err != nil {
		respondServiceError(c, err, "failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) export(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	result, err := h.Svc.Export(c.Request.Context(), userID, resumeID, c.Param("format"))
	if err != nil {
		respondServiceError(c, err, "failed to export resume")
		return
	}
	defer result.Reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Header("Content-Type", result.ContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, result.Reader)
}

func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
