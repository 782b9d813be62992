package handlers

import (
	"errors"
	"log"
	"net/http"

	"taskmate/backend/internal/middleware"
	"taskmate/backend/internal/models"
	"taskmate/backend/internal/ordering"
	"taskmate/backend/internal/services"
	"taskmate/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db     *gorm.DB
	tasks  services.TaskService
	events *worker.JobQueue // optional; nil disables event jobs
}

func NewTaskHandler(db *gorm.DB, tasks services.TaskService, events *worker.JobQueue) *TaskHandler {
	return &TaskHandler{db: db, tasks: tasks, events: events}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type ReorderRequest struct {
	SourceIndex      *int `json:"sourceIndex" binding:"required"`
	DestinationIndex *int `json:"destinationIndex" binding:"required"`
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(h.db, ownerID)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	// Ownership always comes from the authenticated identity, never from
	// the request body.
	task, err := h.tasks.CreateTask(h.db, ownerID, services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	h.publishEvent(ownerID, "created")
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(h.db, ownerID, taskID(c))
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	task, err := h.tasks.UpdateTask(h.db, ownerID, taskID(c), services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	h.publishEvent(ownerID, "updated")
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(h.db, ownerID, taskID(c)); err != nil {
		handleTaskError(c, err)
		return
	}

	h.publishEvent(ownerID, "deleted")
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	tasks, moved, err := h.tasks.ReorderTasks(h.db, ownerID, *req.SourceIndex, *req.DestinationIndex)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	// A same-index drop is a no-op: no event, just the unchanged list.
	if moved {
		h.publishEvent(ownerID, "reordered")
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskStats(c *gin.Context) {
	ownerID, ok := caller(c)
	if !ok {
		return
	}

	stats, err := h.tasks.TaskStats(h.db, ownerID)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *TaskHandler) publishEvent(ownerID uuid.UUID, action string) {
	if h.events == nil {
		return
	}
	err := h.events.Enqueue(worker.JobTypeTaskEvent, map[string]interface{}{
		"user_id": ownerID.String(),
		"action":  action,
	})
	if err != nil {
		log.Printf("failed to enqueue task event for %s: %v", ownerID, err)
	}
}

func caller(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := middleware.CallerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return uuid.Nil, false
	}
	return ownerID, true
}

func taskID(c *gin.Context) uuid.UUID {
	// An unparsable id yields uuid.Nil, which matches no row and falls out
	// as the same 404 as a missing task.
	return uuid.FromStringOrNil(c.Param("id"))
}

func handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
	case errors.Is(err, services.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "task title is required"})
	case errors.Is(err, ordering.ErrManualReorderDisabled):
		c.JSON(http.StatusConflict, gin.H{"message": "manual reorder is disabled"})
	case errors.Is(err, ordering.ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"message": "reorder index out of range"})
	default:
		log.Printf("task request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
