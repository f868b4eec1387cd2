package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-task-plans/backend/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository はtasksテーブルへのアクセスを提供します。
// タスクの所有者は親プラン経由で決まるため、すべての操作は
// task_lists との結合 (またはサブクエリ) で所有者スコープを適用します。
type TaskRepository struct {
	DB *sql.DB
}

// NewTaskRepository は新しいTaskRepositoryインスタンスを作成します。
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var t models.Task
	var listID sql.NullInt64
	var description, deadline sql.NullString
	var estimatedTime sql.NullFloat64

	err := row.Scan(&t.ID, &listID, &t.Title, &description, &t.Status,
		&deadline, &estimatedTime, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if listID.Valid {
		v := int(listID.Int64)
		t.ListID = &v
	}
	if description.Valid {
		t.Description = &description.String
	}
	if deadline.Valid {
		t.Deadline = &deadline.String
	}
	if estimatedTime.Valid {
		t.EstimatedTime = &estimatedTime.Float64
	}
	return &t, nil
}

// ListByOwner は指定ユーザーが所有するタスクを作成日時の新しい順で取得します。
// listID が指定された場合はそのプランのタスクに絞り込みます。
func (r *TaskRepository) ListByOwner(userID int, listID *int) ([]*models.Task, error) {
	query := `SELECT t.id, t.list_id, t.title, t.description, t.status, t.deadline, t.estimated_time, t.created_at
		FROM tasks t
		JOIN task_lists l ON t.list_id = l.id
		WHERE l.user_id = ?`
	args := []any{userID}

	if listID != nil {
		query += " AND t.list_id = ?"
		args = append(args, *listID)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// FindByID は指定IDのタスクを取得します。親プランが指定ユーザーの
// 所有でない場合は ErrTaskNotFound を返します (存在との区別はしません)。
func (r *TaskRepository) FindByID(id, userID int) (*models.Task, error) {
	query := `SELECT t.id, t.list_id, t.title, t.description, t.status, t.deadline, t.estimated_time, t.created_at
		FROM tasks t
		JOIN task_lists l ON t.list_id = l.id
		WHERE t.id = ? AND l.user_id = ?`

	t, err := scanTask(r.DB.QueryRow(query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	return t, nil
}

// Create は新しいタスクをデータベースに挿入します。
// ステータスは入力にかかわらず常に pending で初期化されます。
func (r *TaskRepository) Create(t *models.Task) (*models.Task, error) {
	createdAt := time.Now().UTC()
	query := `INSERT INTO tasks (list_id, title, description, status, deadline, estimated_time, created_at)
		VALUES (?, ?, ?, 'pending', ?, ?, ?)`

	result, err := r.DB.Exec(query, t.ListID, t.Title, t.Description, t.Deadline, t.EstimatedTime, createdAt)
	if err != nil {
		return nil, fmt.Errorf("could not insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}

	t.ID = int(id)
	t.Status = models.StatusPending
	t.CreatedAt = createdAt
	return t, nil
}

// Update は指定されたフィールドのみを更新する部分更新です。
// SET句はパッチ構造体のフィールド順で決定的に組み立てます。
func (r *TaskRepository) Update(id, userID int, patch *models.UpdateTaskRequest) (*models.Task, error) {
	updates := []string{}
	values := []any{}

	if patch.Title != nil {
		updates = append(updates, "title = ?")
		values = append(values, *patch.Title)
	}
	if patch.Description != nil {
		updates = append(updates, "description = ?")
		values = append(values, *patch.Description)
	}
	if patch.Status != nil {
		updates = append(updates, "status = ?")
		values = append(values, *patch.Status)
	}
	if patch.Deadline != nil {
		updates = append(updates, "deadline = ?")
		values = append(values, *patch.Deadline)
	}
	if patch.EstimatedTime != nil {
		updates = append(updates, "estimated_time = ?")
		values = append(values, *patch.EstimatedTime)
	}
	if len(updates) == 0 {
		return r.FindByID(id, userID)
	}

	values = append(values, id, userID)
	query := fmt.Sprintf(`UPDATE tasks SET %s
		WHERE id = ? AND list_id IN (SELECT id FROM task_lists WHERE user_id = ?)`,
		strings.Join(updates, ", "))

	result, err := r.DB.Exec(query, values...)
	if err != nil {
		return nil, fmt.Errorf("could not update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTaskNotFound
	}
	return r.FindByID(id, userID)
}

// UpdateStatus はタスクのステータスのみを変更します。
func (r *TaskRepository) UpdateStatus(id, userID int, status string) (*models.Task, error) {
	return r.Update(id, userID, &models.UpdateTaskRequest{Status: &status})
}

// Delete は指定IDのタスクを削除します。所有者スコープは更新と同様です。
func (r *TaskRepository) Delete(id, userID int) error {
	query := "DELETE FROM tasks WHERE id = ? AND list_id IN (SELECT id FROM task_lists WHERE user_id = ?)"
	result, err := r.DB.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
