package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/repositories"
)

// TaskHandler はタスク関連のハンドラーを管理します。
// タスク作成時の親プランの所有チェックのためPlanRepositoryも持ちます。
type TaskHandler struct {
	taskRepo *repositories.TaskRepository
	planRepo *repositories.PlanRepository
	logger   *zap.SugaredLogger
}

// NewTaskHandler は新しいTaskHandlerを作成します。
func NewTaskHandler(taskRepo *repositories.TaskRepository, planRepo *repositories.PlanRepository, logger *zap.SugaredLogger) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo, planRepo: planRepo, logger: logger}
}

// ListTasksHandler は自分が所有するタスクの一覧を返します。
// ?list_id= が指定された場合はそのプランに絞り込みます。
func (h *TaskHandler) ListTasksHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var listID *int
	if raw := c.Query("list_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid list ID")
			return
		}
		listID = &id
	}

	tasks, err := h.taskRepo.ListByOwner(userID, listID)
	if err != nil {
		h.logger.Errorw("failed to fetch tasks", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondList(c, tasks, len(tasks))
}

// GetTaskHandler は指定IDのタスクを返します。
func (h *TaskHandler) GetTaskHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.taskRepo.FindByID(id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Errorw("failed to fetch task", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondData(c, http.StatusOK, task)
}

// CreateTaskHandler は新しいタスクを作成します。
// 所有者スコープではlist_idの無いタスクは誰からも到達不能になるため、
// list_id は必須としています。ステータスは常に pending です。
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(c, http.StatusBadRequest, "Task title is required")
		return
	}
	if utf8.RuneCountInString(title) > 200 {
		respondError(c, http.StatusBadRequest, "Task title must be at most 200 characters")
		return
	}
	if req.EstimatedTime != nil && *req.EstimatedTime < 0 {
		respondError(c, http.StatusBadRequest, "Estimated time must be non-negative")
		return
	}
	if req.ListID == nil {
		respondError(c, http.StatusBadRequest, "list_id is required")
		return
	}

	// 親プランの所有チェック。他人のプランは存在しないものとして扱う。
	if _, err := h.planRepo.FindByID(*req.ListID, userID); err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			respondError(c, http.StatusNotFound, "List not found")
			return
		}
		h.logger.Errorw("failed to verify list ownership", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	task := &models.Task{
		ListID:        req.ListID,
		Title:         title,
		Deadline:      req.Deadline,
		EstimatedTime: req.EstimatedTime,
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed != "" {
			task.Description = &trimmed
		}
	}

	created, err := h.taskRepo.Create(task)
	if err != nil {
		h.logger.Errorw("failed to create task", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondMessage(c, http.StatusCreated, created, "Task created")
}

// validateTaskPatch は部分更新リクエストを検証し、問題があれば
// レスポンスを書き込んで false を返します。
func (h *TaskHandler) validateTaskPatch(c *gin.Context, req *models.UpdateTaskRequest) bool {
	if req.Empty() {
		respondError(c, http.StatusBadRequest, "At least one field must be provided")
		return false
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(c, http.StatusBadRequest, "Task title cannot be empty")
			return false
		}
		if utf8.RuneCountInString(title) > 200 {
			respondError(c, http.StatusBadRequest, "Task title must be at most 200 characters")
			return false
		}
		req.Title = &title
	}
	if req.Status != nil && !models.ValidStatus(*req.Status) {
		respondError(c, http.StatusBadRequest, "Status must be pending, completed or cancelled")
		return false
	}
	if req.EstimatedTime != nil && *req.EstimatedTime < 0 {
		respondError(c, http.StatusBadRequest, "Estimated time must be non-negative")
		return false
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}
	return true
}

// UpdateTaskHandler はタスクの部分更新を行います。
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !h.validateTaskPatch(c, &req) {
		return
	}

	updated, err := h.taskRepo.Update(id, userID, &req)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Errorw("failed to update task", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondMessage(c, http.StatusOK, updated, "Task updated")
}

// UpdateTaskStatusHandler はタスクのステータスのみを変更します。
// 3値以外は拒否しますが、状態遷移そのものに制限はありません。
func (h *TaskHandler) UpdateTaskStatusHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req models.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !models.ValidStatus(req.Status) {
		respondError(c, http.StatusBadRequest, "Status must be pending, completed or cancelled")
		return
	}

	updated, err := h.taskRepo.UpdateStatus(id, userID, req.Status)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Errorw("failed to update task status", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondMessage(c, http.StatusOK, updated, "Task status updated")
}

// DeleteTaskHandler はタスクを削除します。
func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskRepo.Delete(id, userID); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Errorw("failed to delete task", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Task deleted"})
}
