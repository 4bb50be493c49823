package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/service/stats"
	"github.com/mamadbah2/flocktrack/internal/service/summary"
)

const (
	defaultTrendDays   = 30
	defaultTrendMonths = 6
	maxTrendMonths     = 36
)

// SummaryTrigger starts a summary render.
type SummaryTrigger interface {
	Trigger(ctx context.Context, req summary.Request) (*summary.Result, error)
}

// StatsHandler serves dashboard views and summary renders.
type StatsHandler struct {
	stats   *stats.Service
	summary SummaryTrigger
	logger  *zap.Logger
}

// NewStatsHandler constructs the stats handler.
func NewStatsHandler(statsSvc *stats.Service, trigger SummaryTrigger, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{stats: statsSvc, summary: trigger, logger: logger}
}

type renderRequest struct {
	Month string `json:"month" binding:"required"`
	Year  string `json:"year" binding:"required"`
}

// Trend returns the egg-log trend between from and to. breedIds absent means
// every breed; present but empty matches nothing.
func (h *StatsHandler) Trend(c *gin.Context) {
	window, err := daterange.ParseWindow(c.Query("from"), c.Query("to"), h.stats.Today(), defaultTrendDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	var filter *models.BreedFilter
	if raw, ok := c.GetQuery("breedIds"); ok {
		filter = models.OnlyBreeds(splitIDs(raw)...)
	}

	trend, err := h.stats.Trend(c.Request.Context(), c.Param("flockID"), filter, window)
	if err != nil {
		respondError(c, h.logger, "failed to compute trend", err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

// Breeds returns per-breed averages between from and to, best first.
func (h *StatsHandler) Breeds(c *gin.Context) {
	window, err := daterange.ParseWindow(c.Query("from"), c.Query("to"), h.stats.Today(), defaultTrendDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	leaderboard, err := h.stats.BreedLeaderboard(c.Request.Context(), c.Param("flockID"), window)
	if err != nil {
		respondError(c, h.logger, "failed to compute breed averages", err)
		return
	}
	c.JSON(http.StatusOK, leaderboard)
}

// Monthly returns production and expenses of the trailing ?months months.
func (h *StatsHandler) Monthly(c *gin.Context) {
	months := defaultTrendMonths
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendMonths {
			c.JSON(http.StatusBadRequest, gin.H{"error": "months must be between 1 and 36"})
			return
		}
		months = n
	}

	trend, err := h.stats.ExpenseProductionTrend(c.Request.Context(), c.Param("flockID"), months)
	if err != nil {
		respondError(c, h.logger, "failed to compute monthly trend", err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

// Summary returns the monthly summary of ?month=MM&year=YYYY.
func (h *StatsHandler) Summary(c *gin.Context) {
	s, err := h.stats.MonthlySummary(c.Request.Context(), c.Param("flockID"), c.Query("month"), c.Query("year"))
	if err != nil {
		respondError(c, h.logger, "failed to compose monthly summary", err)
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "flock not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// Render triggers the summary image of a month and returns its location.
func (h *StatsHandler) Render(c *gin.Context) {
	var req renderRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	result, err := h.summary.Trigger(c.Request.Context(), summary.Request{
		FlockID: c.Param("flockID"),
		Month:   req.Month,
		Year:    req.Year,
	})
	if errors.Is(err, summary.ErrRenderFailed) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.logger, "failed to trigger summary render", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
