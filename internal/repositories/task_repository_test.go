package repositories_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-plans/backend/internal/database"
	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/repositories"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.InitSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, email, login string) *models.User {
	t.Helper()
	hash, err := repositories.HashPassword("secret123")
	require.NoError(t, err)
	user, err := repositories.NewUserRepository(db).Create(&models.User{
		Email: email, Login: login, PasswordHash: hash,
	})
	require.NoError(t, err)
	return user
}

func createPlan(t *testing.T, db *sql.DB, userID int, name string) *models.Plan {
	t.Helper()
	plan, err := repositories.NewPlanRepository(db).Create(&models.Plan{UserID: userID, Name: name})
	require.NoError(t, err)
	return plan
}

func createTask(t *testing.T, db *sql.DB, listID int, title string) *models.Task {
	t.Helper()
	task, err := repositories.NewTaskRepository(db).Create(&models.Task{ListID: &listID, Title: title})
	require.NoError(t, err)
	return task
}

func TestUserRepository_DuplicateDetection(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewUserRepository(db)
	createUser(t, db, "a@example.com", "usera")

	hash, _ := repositories.HashPassword("secret123")
	_, err := repo.Create(&models.User{Email: "a@example.com", Login: "userb", PasswordHash: hash})
	assert.ErrorIs(t, err, repositories.ErrDuplicateUser)

	_, err = repo.Create(&models.User{Email: "b@example.com", Login: "usera", PasswordHash: hash})
	assert.ErrorIs(t, err, repositories.ErrDuplicateUser)
}

func TestUserRepository_FindByIdentifier(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewUserRepository(db)
	user := createUser(t, db, "find@example.com", "findme")

	byLogin, err := repo.FindByIdentifier("findme")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byLogin.ID)
	assert.NotEmpty(t, byLogin.PasswordHash)

	// メールアドレスは大文字小文字を無視して照合される
	byEmail, err := repo.FindByIdentifier("Find@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByIdentifier("nobody")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	// FindByEmail はログイン名には一致しない
	byEmailOnly, err := repo.FindByEmail("FIND@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmailOnly.ID)
	_, err = repo.FindByEmail("findme")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestTaskRepository_OwnershipScoping(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewTaskRepository(db)

	owner := createUser(t, db, "owner@example.com", "owneruser")
	other := createUser(t, db, "other@example.com", "otheruser")
	plan := createPlan(t, db, owner.ID, "Owner plan")
	task := createTask(t, db, plan.ID, "Owner task")

	// 所有者は参照できる
	found, err := repo.FindByID(task.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner task", found.Title)

	// 他人からは存在しないのと同じ
	_, err = repo.FindByID(task.ID, other.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	title := "Hijacked"
	_, err = repo.Update(task.ID, other.ID, &models.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	err = repo.Delete(task.ID, other.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	// 更新も削除もされていない
	found, err = repo.FindByID(task.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner task", found.Title)
}

func TestTaskRepository_PartialUpdate(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewTaskRepository(db)
	user := createUser(t, db, "user@example.com", "someuser")
	plan := createPlan(t, db, user.ID, "Plan")
	task := createTask(t, db, plan.ID, "Keep this title")

	desc := "Only the description"
	est := 2.5
	updated, err := repo.Update(task.ID, user.ID, &models.UpdateTaskRequest{
		Description:   &desc,
		EstimatedTime: &est,
	})
	require.NoError(t, err)
	assert.Equal(t, "Keep this title", updated.Title)
	assert.Equal(t, models.StatusPending, updated.Status)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)
	require.NotNil(t, updated.EstimatedTime)
	assert.InDelta(t, est, *updated.EstimatedTime, 1e-9)
}

func TestTaskRepository_UpdateStatusIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewTaskRepository(db)
	user := createUser(t, db, "user@example.com", "someuser")
	plan := createPlan(t, db, user.ID, "Plan")
	task := createTask(t, db, plan.ID, "Toggle")

	updated, err := repo.UpdateStatus(task.ID, user.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	// 既に同じステータスでもエラーにならない
	updated, err = repo.UpdateStatus(task.ID, user.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
}

func TestTaskRepository_OrphanTaskUnreachable(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewTaskRepository(db)
	user := createUser(t, db, "user@example.com", "someuser")

	// list_idがNULLのタスクはどのユーザーの一覧にも現れない
	res, err := db.Exec(`INSERT INTO tasks (title, status, created_at) VALUES ('orphan', 'pending', datetime('now'))`)
	require.NoError(t, err)
	orphanID, err := res.LastInsertId()
	require.NoError(t, err)

	tasks, err := repo.ListByOwner(user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = repo.FindByID(int(orphanID), user.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}

func TestPlanRepository_DeleteCascadesAndCounts(t *testing.T) {
	db := setupDB(t)
	planRepo := repositories.NewPlanRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	user := createUser(t, db, "user@example.com", "someuser")
	plan := createPlan(t, db, user.ID, "Plan")

	t1 := createTask(t, db, plan.ID, "one")
	createTask(t, db, plan.ID, "two")
	_, err := taskRepo.UpdateStatus(t1.ID, user.ID, models.StatusCompleted)
	require.NoError(t, err)

	total, err := planRepo.CountTasks(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	completed, err := planRepo.CountTasksByStatus(plan.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	require.NoError(t, planRepo.Delete(plan.ID, user.ID))

	var remaining int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&remaining))
	assert.Equal(t, 0, remaining)

	err = planRepo.Delete(plan.ID, user.ID)
	assert.ErrorIs(t, err, repositories.ErrPlanNotFound)
}

func TestPlanRepository_UpdateRequiresOwnership(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewPlanRepository(db)
	owner := createUser(t, db, "owner@example.com", "owneruser")
	other := createUser(t, db, "other@example.com", "otheruser")
	plan := createPlan(t, db, owner.ID, "Original")

	name := "Hijacked"
	_, err := repo.Update(plan.ID, other.ID, &models.UpdatePlanRequest{Name: &name})
	assert.ErrorIs(t, err, repositories.ErrPlanNotFound)

	kept, err := repo.FindByID(plan.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", kept.Name)
}

func TestSessionRepository_DeleteIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewSessionRepository(db)
	user := createUser(t, db, "user@example.com", "someuser")

	sess := &models.Session{Token: "abc123", UserID: user.ID}
	require.NoError(t, repo.Create(sess))

	found, err := repo.Find("abc123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)

	require.NoError(t, repo.Delete("abc123"))
	// 既に存在しないトークンの削除もエラーにしない
	require.NoError(t, repo.Delete("abc123"))

	_, err = repo.Find("abc123")
	assert.ErrorIs(t, err, repositories.ErrSessionNotFound)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewSessionRepository(db)
	user := createUser(t, db, "user@example.com", "someuser")

	now := time.Now().UTC()
	require.NoError(t, repo.Create(&models.Session{
		Token: "expired", UserID: user.ID, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour),
	}))
	require.NoError(t, repo.Create(&models.Session{
		Token: "valid", UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}))

	require.NoError(t, repo.DeleteExpired())

	// 期限切れだけが消え、有効なセッションは残る
	_, err := repo.Find("expired")
	assert.ErrorIs(t, err, repositories.ErrSessionNotFound)
	_, err = repo.Find("valid")
	require.NoError(t, err)
}

func TestResetTokenRepository_CleanupExpired(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewSQLiteResetTokenRepo(db)
	user := createUser(t, db, "user@example.com", "someuser")

	now := time.Now().UTC()
	require.NoError(t, repo.Save(&models.PasswordResetToken{
		UserID: user.ID, Token: "stale", ExpiresAt: now.Add(-24 * time.Hour),
	}))
	require.NoError(t, repo.Save(&models.PasswordResetToken{
		UserID: user.ID, Token: "fresh", ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, repo.CleanupExpired())

	_, err := repo.FindByToken("stale")
	assert.ErrorIs(t, err, repositories.ErrResetTokenNotFound)
	_, err = repo.FindByToken("fresh")
	require.NoError(t, err)
}
