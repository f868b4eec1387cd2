// Package routesはroutingを行います。
package routes

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-task-plans/backend/internal/config"
	"go-task-plans/backend/internal/handlers"
	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/repositories"
	"go-task-plans/backend/internal/services"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
// リポジトリとサービスはここで一度だけ構築し、ハンドラーに注入します。
func SetupRouter(db *sql.DB, cfg config.Config, logger *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(RequireJSON())

	// CORS対策。Cookieを使うためAllowCredentialsが必要。
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.CORSOrigin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// リポジトリ
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	resetRepo := repositories.NewSQLiteResetTokenRepo(db)

	// サービス
	userService := services.NewUserService(userRepo, resetRepo, cfg, logger)
	sessionService := services.NewSessionService(sessionRepo, time.Duration(cfg.SessionTTLHours)*time.Hour)

	// ハンドラー
	authHandler := handlers.NewAuthHandler(userService, sessionService, logger)
	planHandler := handlers.NewPlanHandler(planRepo, logger)
	taskHandler := handlers.NewTaskHandler(taskRepo, planRepo, logger)

	// ヘルスチェック
	r.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "API OK"})
	})
	r.GET("/api/dbcheck", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, models.APIResponse{Success: false, Error: "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Database connection is healthy"})
	})

	// 認証 (セッション不要。/me のみ認証必須)
	r.POST("/api/auth/register", authHandler.RegisterHandler)
	r.POST("/api/auth/login", authHandler.LoginHandler)
	r.POST("/api/auth/logout", authHandler.LogoutHandler)
	r.POST("/api/auth/forgot-password", authHandler.ForgotPasswordHandler)
	r.POST("/api/auth/reset-password/:token", authHandler.ResetPasswordHandler)
	r.GET("/api/auth/me", RequireAuth(sessionService), authHandler.MeHandler)

	authorized := r.Group("/")
	authorized.Use(RequireAuth(sessionService))
	{
		authorized.GET("/api/lists", planHandler.ListPlansHandler)
		authorized.GET("/api/lists/:id", planHandler.GetPlanHandler)
		authorized.POST("/api/lists", planHandler.CreatePlanHandler)
		authorized.PUT("/api/lists/:id", planHandler.UpdatePlanHandler)
		authorized.DELETE("/api/lists/:id", planHandler.DeletePlanHandler)

		authorized.GET("/api/tasks", taskHandler.ListTasksHandler)
		authorized.GET("/api/tasks/:id", taskHandler.GetTaskHandler)
		authorized.POST("/api/tasks", taskHandler.CreateTaskHandler)
		authorized.PUT("/api/tasks/:id", taskHandler.UpdateTaskHandler)
		authorized.DELETE("/api/tasks/:id", taskHandler.DeleteTaskHandler)
		authorized.PATCH("/api/tasks/:id/status", taskHandler.UpdateTaskStatusHandler)
	}

	// マッチしなかった /api/* は共通の404エンベロープを返す
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, models.APIResponse{Success: false, Error: "Not found"})
			return
		}
		c.Status(http.StatusNotFound)
	})

	return r
}
