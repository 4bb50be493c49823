package handlers

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/service/summary"
)

//go:embed templates/summary.html
var templateFS embed.FS

var summaryTemplate = template.Must(template.ParseFS(templateFS, "templates/summary.html"))

// SummaryComposer builds a monthly summary; nil means the flock is gone.
type SummaryComposer interface {
	MonthlySummary(ctx context.Context, flockID, month, year string) (*models.MonthlySummary, error)
}

// ImageOpener streams stored images.
type ImageOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SummaryPageHandler serves the public summary page screenshotted by the
// renderer and the stored images.
type SummaryPageHandler struct {
	composer SummaryComposer
	images   ImageOpener
	logger   *zap.Logger
}

// NewSummaryPageHandler constructs the public summary handler.
func NewSummaryPageHandler(composer SummaryComposer, images ImageOpener, logger *zap.Logger) *SummaryPageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryPageHandler{composer: composer, images: images, logger: logger}
}

// Page renders the HTML summary of /summary/:flockID/:month/:year.
func (h *SummaryPageHandler) Page(c *gin.Context) {
	s, err := h.composer.MonthlySummary(c.Request.Context(), c.Param("flockID"), c.Param("month"), c.Param("year"))
	if err != nil {
		respondError(c, h.logger, "failed to compose summary page", err)
		return
	}
	if s == nil {
		c.String(http.StatusNotFound, "summary not found")
		return
	}

	c.Render(http.StatusOK, render.HTML{Template: summaryTemplate, Name: "summary.html", Data: s})
}

// Image streams /summary-images/:file from the image store.
func (h *SummaryPageHandler) Image(c *gin.Context) {
	key := summary.ImagePrefix + "/" + path.Base(c.Param("file"))

	rc, err := h.images.Open(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, "failed to open summary image", err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, "image/png", rc, nil)
}
