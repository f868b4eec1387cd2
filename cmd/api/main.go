package main

import (
	"log"

	"go-task-plans/backend/internal/config"
	"go-task-plans/backend/internal/database"
	"go-task-plans/backend/internal/logging"
	"go-task-plans/backend/internal/repositories"
	"go-task-plans/backend/internal/routes"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Fatal: Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogDir)
	defer logger.Sync()

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("Fatal: Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		logger.Fatalf("Fatal: Failed to initialize schema: %v", err)
	}
	logger.Info("Successfully connected to SQLite database!")

	// 起動時に期限切れのセッションとリセットトークンを掃除する
	if err := repositories.NewSessionRepository(db).DeleteExpired(); err != nil {
		logger.Warnw("failed to delete expired sessions", "error", err)
	}
	if err := repositories.NewSQLiteResetTokenRepo(db).CleanupExpired(); err != nil {
		logger.Warnw("failed to cleanup reset tokens", "error", err)
	}

	r := routes.SetupRouter(db, cfg, logger)

	logger.Infof("Server listening on port %s...", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Fatal: Server stopped: %v", err)
	}
}
