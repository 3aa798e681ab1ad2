package api

import (
	"errors"
	"net/http"

	"loadanalysis/app"
	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
	"loadanalysis/domain/series"
	"loadanalysis/internal"
	"loadanalysis/internal/analysis"
	apperrors "loadanalysis/internal/errors"
	"loadanalysis/ports"

	"github.com/gin-gonic/gin"
)

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	Series       []series.Series `json:"series" binding:"required"`
	CleanupLevel *float64        `json:"cleanup_level,omitempty"`
	Center       string          `json:"center,omitempty"`
}

// AnalyzeResponse wraps a result with the flattened plot points
type AnalyzeResponse struct {
	*run.Result
	Points *PlotPoints `json:"points,omitempty"`
}

// PlotPoints are the concatenated trimmed samples in series order
type PlotPoints struct {
	Timestamps []float64 `json:"timestamps"`
	Deltas     []float64 `json:"deltas"`
}

// AnalysisHandler serves pipeline runs over HTTP
type AnalysisHandler struct {
	engine *analysis.StatisticalEngine
	repo   ports.ResultRepository
	logger *internal.Logger
}

// NewAnalysisHandler creates a new analysis handler. repo may be nil, in
// which case runs are not stored and GET /runs/:id is not routed.
func NewAnalysisHandler(engine *analysis.StatisticalEngine, repo ports.ResultRepository, logger *internal.Logger) *AnalysisHandler {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &AnalysisHandler{engine: engine, repo: repo, logger: logger.With("api")}
}

// Register mounts the routes
func (h *AnalysisHandler) Register(router gin.IRouter) {
	router.GET("/healthz", h.Health)
	v1 := router.Group("/api/v1")
	v1.POST("/analyze", h.Analyze)
	if h.repo != nil {
		v1.GET("/runs/:id", h.GetRun)
	}
}

// Health reports liveness
func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Analyze runs the pipeline over the posted series
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	center, err := series.ParseCenter(req.Center)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := app.PipelineConfig{Center: center}
	if req.CleanupLevel != nil {
		config.Cleanup = true
		config.CleanupLevel = *req.CleanupLevel
	}

	pipeline, err := app.NewPipeline(config, h.engine, h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := pipeline.Run(c.Request.Context(), req.Series)
	if err != nil {
		h.writePipelineError(c, err)
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveRun(c.Request.Context(), result); err != nil {
			h.logger.Error("failed to store run %s: %v", result.RunID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store run"})
			return
		}
	}

	timestamps, deltas := result.Points()
	c.JSON(http.StatusOK, AnalyzeResponse{
		Result: result,
		Points: &PlotPoints{Timestamps: timestamps, Deltas: deltas},
	})
}

// GetRun returns a stored run
func (h *AnalysisHandler) GetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run ID"})
		return
	}

	result, err := h.repo.GetRun(c.Request.Context(), id)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.CodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		h.logger.Error("failed to load run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Result: result})
}

func (h *AnalysisHandler) writePipelineError(c *gin.Context, err error) {
	var stageErr *app.StageError
	if errors.As(err, &stageErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": stageErr.Err.Error(),
			"stage": stageErr.Stage,
			"ids":   core.OffendingIDs(err),
		})
		return
	}
	h.logger.Error("pipeline failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
}
