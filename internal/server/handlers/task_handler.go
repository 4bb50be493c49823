package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
	"github.com/mamadbah2/flocktrack/internal/server/middleware"
	"github.com/mamadbah2/flocktrack/internal/service/notifications"
	"github.com/mamadbah2/flocktrack/internal/service/tasks"
)

// TaskHandler serves flock tasks and the caller's notifications.
type TaskHandler struct {
	tasks         *tasks.Service
	notifications *notifications.Service
	logger        *zap.Logger
}

// NewTaskHandler constructs the task and notification handler.
func NewTaskHandler(taskSvc *tasks.Service, notificationSvc *notifications.Service, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{tasks: taskSvc, notifications: notificationSvc, logger: logger}
}

// ListTasks returns open tasks, and completed ones with ?completed=true.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	includeCompleted, _ := strconv.ParseBool(c.DefaultQuery("completed", "false"))

	list, err := h.tasks.ListTasks(c.Request.Context(), c.Param("flockID"), includeCompleted)
	if err != nil {
		respondError(c, h.logger, "failed to list tasks", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateTask adds a task to the flock.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input models.TaskInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), c.Param("flockID"), middleware.CurrentUser(c).ID, input)
	if err != nil {
		respondError(c, h.logger, "failed to create task", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask overwrites a task's writable fields.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var input models.TaskInput
	if !bindJSON(c, h.logger, &input) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("flockID"), c.Param("taskID"), input)
	if err != nil {
		respondError(c, h.logger, "failed to update task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), c.Param("flockID"), c.Param("taskID")); err != nil {
		respondError(c, h.logger, "failed to delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteTask marks a task done and returns its successor, if any.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	completion, err := h.tasks.CompleteTask(c.Request.Context(), c.Param("flockID"), c.Param("taskID"))
	if err != nil {
		respondError(c, h.logger, "failed to complete task", err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

// ListNotifications returns the caller's notifications, newest first.
// ?unread=true drops the ones already read.
func (h *TaskHandler) ListNotifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.notifications.List(c.Request.Context(), middleware.CurrentUser(c).ID, unreadOnly, limit)
	if err != nil {
		respondError(c, h.logger, "failed to list notifications", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (h *TaskHandler) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifications.MarkRead(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("notificationID"))
	if err != nil {
		respondError(c, h.logger, "failed to mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, n)
}
