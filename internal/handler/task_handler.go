package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Subject     string `json:"subject"`
	DueDate     string `json:"dueDate"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, apiErr := h.taskService.List(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	input, apiErr := req.toInput()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	task, apiErr := h.taskService.Create(c.Request.Context(), middleware.UserID(c), *input)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	input, apiErr := req.toInput()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	task, apiErr := h.taskService.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), *input)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if apiErr := h.taskService.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r taskRequest) toInput() (*service.TaskInput, *apperrors.APIError) {
	input := service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Subject:     r.Subject,
	}
	if r.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, r.DueDate)
		if err != nil {
			return nil, apperrors.BadRequest("invalid_due_date", "dueDate must be RFC 3339")
		}
		utc := parsed.UTC()
		input.DueDate = &utc
	}
	return &input, nil
}
