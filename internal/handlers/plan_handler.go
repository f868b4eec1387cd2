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

// PlanHandler はプラン (タスクリスト) 関連のハンドラーを管理します。
type PlanHandler struct {
	planRepo *repositories.PlanRepository
	logger   *zap.SugaredLogger
}

// NewPlanHandler は新しいPlanHandlerを作成します。
func NewPlanHandler(planRepo *repositories.PlanRepository, logger *zap.SugaredLogger) *PlanHandler {
	return &PlanHandler{planRepo: planRepo, logger: logger}
}

// ListPlansHandler は自分のプラン一覧を集計値付きで返します。
// 集計はプランごとに3つの独立したCOUNTクエリで行います。
func (h *PlanHandler) ListPlansHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	plans, err := h.planRepo.ListByUser(userID)
	if err != nil {
		h.logger.Errorw("failed to fetch plans", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	result := make([]models.PlanWithCounts, 0, len(plans))
	for _, p := range plans {
		taskCount, err := h.planRepo.CountTasks(p.ID)
		if err != nil {
			h.logger.Errorw("failed to count tasks", "error", err)
			respondError(c, http.StatusInternalServerError, "Server error")
			return
		}
		completedCount, err := h.planRepo.CountTasksByStatus(p.ID, models.StatusCompleted)
		if err != nil {
			h.logger.Errorw("failed to count completed tasks", "error", err)
			respondError(c, http.StatusInternalServerError, "Server error")
			return
		}
		cancelledCount, err := h.planRepo.CountTasksByStatus(p.ID, models.StatusCancelled)
		if err != nil {
			h.logger.Errorw("failed to count cancelled tasks", "error", err)
			respondError(c, http.StatusInternalServerError, "Server error")
			return
		}
		result = append(result, models.PlanWithCounts{
			Plan:           *p,
			TaskCount:      taskCount,
			CompletedCount: completedCount,
			CancelledCount: cancelledCount,
		})
	}

	respondList(c, result, len(result))
}

// GetPlanHandler は指定IDのプランをタスク数付きで返します。
func (h *PlanHandler) GetPlanHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid list ID")
		return
	}

	plan, err := h.planRepo.FindByID(id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			respondError(c, http.StatusNotFound, "List not found")
			return
		}
		h.logger.Errorw("failed to fetch plan", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	taskCount, err := h.planRepo.CountTasks(plan.ID)
	if err != nil {
		h.logger.Errorw("failed to count tasks", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	respondData(c, http.StatusOK, models.PlanDetail{Plan: *plan, TaskCount: taskCount})
}

// CreatePlanHandler は新しいプランを作成します。
func (h *PlanHandler) CreatePlanHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "List name is required")
		return
	}
	if utf8.RuneCountInString(name) > 100 {
		respondError(c, http.StatusBadRequest, "List name must be at most 100 characters")
		return
	}

	plan := &models.Plan{UserID: userID, Name: name}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed != "" {
			plan.Description = &trimmed
		}
	}

	created, err := h.planRepo.Create(plan)
	if err != nil {
		h.logger.Errorw("failed to create plan", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondMessage(c, http.StatusCreated, created, "List created")
}

// UpdatePlanHandler はプランの部分更新を行います。
// リクエストに含まれるフィールドだけが変更されます。
func (h *PlanHandler) UpdatePlanHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid list ID")
		return
	}

	var req models.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Empty() {
		respondError(c, http.StatusBadRequest, "At least one field must be provided")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, http.StatusBadRequest, "List name cannot be empty")
			return
		}
		if utf8.RuneCountInString(name) > 100 {
			respondError(c, http.StatusBadRequest, "List name must be at most 100 characters")
			return
		}
		req.Name = &name
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}

	updated, err := h.planRepo.Update(id, userID, &req)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			respondError(c, http.StatusNotFound, "List not found")
			return
		}
		h.logger.Errorw("failed to update plan", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondMessage(c, http.StatusOK, updated, "List updated")
}

// DeletePlanHandler はプランを削除します。属するタスクもカスケードで消えます。
func (h *PlanHandler) DeletePlanHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid list ID")
		return
	}

	if err := h.planRepo.Delete(id, userID); err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			respondError(c, http.StatusNotFound, "List not found")
			return
		}
		h.logger.Errorw("failed to delete plan", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "List and all its tasks deleted"})
}
