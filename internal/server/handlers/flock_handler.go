package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/server/middleware"
	"github.com/mamadbah2/flocktrack/internal/service/flocks"
)

// defaultListDays is the window of log and expense listings without from/to.
const defaultListDays = 30

// FlockHandler serves flocks and the records kept under them.
type FlockHandler struct {
	flocks *flocks.Service
	today  func() time.Time
	logger *zap.Logger
}

// NewFlockHandler constructs the flock handler. today supplies the reference
// day of default listing windows.
func NewFlockHandler(svc *flocks.Service, today func() time.Time, logger *zap.Logger) *FlockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if today == nil {
		today = time.Now
	}
	return &FlockHandler{flocks: svc, today: today, logger: logger}
}

type flockDetail struct {
	*models.Flock
	TargetDailyAvg float64 `json:"targetDailyAvg"`
}

// ListFlocks returns the caller's flocks.
func (h *FlockHandler) ListFlocks(c *gin.Context) {
	list, err := h.flocks.ListFlocks(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, "failed to list flocks", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateFlock creates a flock owned by the caller.
func (h *FlockHandler) CreateFlock(c *gin.Context) {
	var input models.FlockInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	flock, err := h.flocks.CreateFlock(c.Request.Context(), middleware.CurrentUser(c).ID, input)
	if err != nil {
		respondError(c, h.logger, "failed to create flock", err)
		return
	}
	c.JSON(http.StatusCreated, flock)
}

// GetFlock returns the flock with its breeds and expected daily production.
func (h *FlockHandler) GetFlock(c *gin.Context) {
	flock := middleware.CurrentFlock(c)
	c.JSON(http.StatusOK, flockDetail{Flock: flock, TargetDailyAvg: models.TargetDailyAverage(flock.Breeds)})
}

// UpdateFlock overwrites the flock's writable fields.
func (h *FlockHandler) UpdateFlock(c *gin.Context) {
	var input models.FlockInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	flock, err := h.flocks.UpdateFlock(c.Request.Context(), c.Param("flockID"), input)
	if err != nil {
		respondError(c, h.logger, "failed to update flock", err)
		return
	}
	c.JSON(http.StatusOK, flock)
}

// DeleteFlock soft-deletes the flock and returns it.
func (h *FlockHandler) DeleteFlock(c *gin.Context) {
	flock, err := h.flocks.DeleteFlock(c.Request.Context(), c.Param("flockID"))
	if err != nil {
		respondError(c, h.logger, "failed to delete flock", err)
		return
	}
	c.JSON(http.StatusOK, flock)
}

// ListBreeds returns the flock's live breeds.
func (h *FlockHandler) ListBreeds(c *gin.Context) {
	breeds, err := h.flocks.ListBreeds(c.Request.Context(), c.Param("flockID"))
	if err != nil {
		respondError(c, h.logger, "failed to list breeds", err)
		return
	}
	c.JSON(http.StatusOK, breeds)
}

// CreateBreed adds a breed to the flock.
func (h *FlockHandler) CreateBreed(c *gin.Context) {
	var input models.BreedInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	breed, err := h.flocks.CreateBreed(c.Request.Context(), c.Param("flockID"), input)
	if err != nil {
		respondError(c, h.logger, "failed to create breed", err)
		return
	}
	c.JSON(http.StatusCreated, breed)
}

// UpdateBreed overwrites a breed's writable fields.
func (h *FlockHandler) UpdateBreed(c *gin.Context) {
	var input models.BreedInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	breed, err := h.flocks.UpdateBreed(c.Request.Context(), c.Param("flockID"), c.Param("breedID"), input)
	if err != nil {
		respondError(c, h.logger, "failed to update breed", err)
		return
	}
	c.JSON(http.StatusOK, breed)
}

// DeleteBreed soft-deletes a breed.
func (h *FlockHandler) DeleteBreed(c *gin.Context) {
	if err := h.flocks.DeleteBreed(c.Request.Context(), c.Param("flockID"), c.Param("breedID")); err != nil {
		respondError(c, h.logger, "failed to delete breed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEggLogs returns the logs between from and to, the last 30 days by default.
func (h *FlockHandler) ListEggLogs(c *gin.Context) {
	window, err := daterange.ParseWindow(c.Query("from"), c.Query("to"), h.today(), defaultListDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	logs, err := h.flocks.ListEggLogs(c.Request.Context(), c.Param("flockID"), window)
	if err != nil {
		respondError(c, h.logger, "failed to list egg logs", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// CreateEggLog records a day's egg count.
func (h *FlockHandler) CreateEggLog(c *gin.Context) {
	var input models.EggLogInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	log, err := h.flocks.CreateEggLog(c.Request.Context(), c.Param("flockID"), input)
	if err != nil {
		respondError(c, h.logger, "failed to create egg log", err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

// DeleteEggLog removes an egg log.
func (h *FlockHandler) DeleteEggLog(c *gin.Context) {
	if err := h.flocks.DeleteEggLog(c.Request.Context(), c.Param("flockID"), c.Param("logID")); err != nil {
		respondError(c, h.logger, "failed to delete egg log", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListExpenses returns the expenses between from and to, the last 30 days by
// default.
func (h *FlockHandler) ListExpenses(c *gin.Context) {
	window, err := daterange.ParseWindow(c.Query("from"), c.Query("to"), h.today(), defaultListDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	expenses, err := h.flocks.ListExpenses(c.Request.Context(), c.Param("flockID"), window)
	if err != nil {
		respondError(c, h.logger, "failed to list expenses", err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// CreateExpense records an expense.
func (h *FlockHandler) CreateExpense(c *gin.Context) {
	var input models.ExpenseInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	expense, err := h.flocks.CreateExpense(c.Request.Context(), c.Param("flockID"), input)
	if err != nil {
		respondError(c, h.logger, "failed to create expense", err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// DeleteExpense removes an expense.
func (h *FlockHandler) DeleteExpense(c *gin.Context) {
	if err := h.flocks.DeleteExpense(c.Request.Context(), c.Param("flockID"), c.Param("expenseID")); err != nil {
		respondError(c, h.logger, "failed to delete expense", err)
		return
	}
	c.Status(http.StatusNoContent)
}
