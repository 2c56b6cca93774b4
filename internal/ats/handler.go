package ats

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moniqchege/resume-builder/internal/resumes"
	"github.com/Moniqchege/resume-builder/internal/shared/server/middleware"
	"github.com/Moniqchege/resume-builder/internal/shared/server/respond"
)

// Handler wires the analysis pipeline to HTTP.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis and optimization routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ats/analyze", h.analyze)
	rg.GET("/ats/analyses/:id", h.getAnalysis)
	rg.POST("/resumes/:id/optimize", h.optimizeStart)
	rg.POST("/resumes/:id/optimize/confirm", h.optimizeConfirm)
}

type analyzeRequest struct {
	ResumeID       string `json:"resumeId"`
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	JobTitle       string `json:"jobTitle"`
	Company        string `json:"company"`
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ResumeID != "" {
		c.Set("resumeId", req.ResumeID)
	}

	view, err := h.Svc.Analyze(c.Request.Context(), userID, AnalyzeInput{
		ResumeID:       req.ResumeID,
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		JobTitle:       req.JobTitle,
		Company:        req.Company,
	})
	if err != nil {
		respondPipelineError(c, err, "analysis failed")
		return
	}
	c.Set("analysisId", view.ID)
	respond.JSON(c, http.StatusCreated, view)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	c.Set("analysisId", analysisID)

	view, err := h.Svc.GetAnalysis(c.Request.Context(), userID, analysisID)
	if err != nil {
		respondPipelineError(c, err, "failed to load analysis")
		return
	}
	respond.OK(c, view)
}

type optimizeStartRequest struct {
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) optimizeStart(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	var req optimizeStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	gap, err := h.Svc.OptimizeStart(c.Request.Context(), userID, resumeID, req.JobDescription)
	if err != nil {
		respondPipelineError(c, err, "failed to inspect skill gap")
		return
	}
	respond.OK(c, gin.H{"unconfirmedSkills": gap})
}

type optimizeConfirmRequest struct {
	JobDescription  string   `json:"jobDescription"`
	ConfirmedSkills []string `json:"confirmedSkills"`
	JobTitle        string   `json:"jobTitle"`
	Company         string   `json:"company"`
}

func (h *Handler) optimizeConfirm(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	var req optimizeConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	view, resume, err := h.Svc.OptimizeConfirm(c.Request.Context(), userID, resumeID, ConfirmInput{
		JobDescription:  req.JobDescription,
		ConfirmedSkills: req.ConfirmedSkills,
		JobTitle:        req.JobTitle,
		Company:         req.Company,
	})
	if err != nil {
		respondPipelineError(c, err, "optimization failed")
		return
	}
	c.Set("analysisId", view.ID)
	c.Set("statusTransition", string(resume.Status))
	respond.OK(c, gin.H{
		"analysis": view,
		"resume":   resume,
	})
}

func respondPipelineError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, resumes.ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrFabrication):
		respond.Error(c, http.StatusUnprocessableEntity, "fabrication_rejected", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, resumes.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, resumes.ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
