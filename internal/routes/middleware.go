package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-task-plans/backend/internal/handlers"
	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/services"
)

// RequireAuth はセッションCookieを検証し、ユーザーIDをコンテキストに設定する
// ミドルウェアです。Cookieの不在・無効・期限切れはすべて同じ401で返します。
func RequireAuth(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(handlers.SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.APIResponse{Success: false, Error: "Not authenticated"})
			return
		}

		userID, err := sessionService.Resolve(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.APIResponse{Success: false, Error: "Not authenticated"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// RequireJSON は更新系メソッドに Content-Type: application/json を要求します。
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if !strings.HasPrefix(c.ContentType(), "application/json") {
				c.AbortWithStatusJSON(http.StatusBadRequest,
					models.APIResponse{Success: false, Error: "Content-Type must be application/json"})
				return
			}
		}
		c.Next()
	}
}

// RequestLogger はリクエストごとに1行の構造化ログを出力するミドルウェアです。
func RequestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("requestID", requestID)

		c.Next()

		latency := time.Since(start)
		logger.Infow("request",
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"latency", latency.String(),
		)
	}
}
