package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-task-plans/backend/internal/models"
)

var ErrPlanNotFound = errors.New("plan not found")

// PlanRepository はtask_listsテーブルへのアクセスを提供します。
// すべての操作は所有者 (userID) でスコープされます。他人のプランは
// 存在しないものとして扱われ、取得側からは区別できません。
type PlanRepository struct {
	DB *sql.DB
}

// NewPlanRepository は新しいPlanRepositoryインスタンスを作成します。
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{DB: db}
}

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	var p models.Plan
	var description sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.CreatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = &description.String
	}
	return &p, nil
}

// ListByUser は指定ユーザーのプランを作成日時の新しい順で取得します。
func (r *PlanRepository) ListByUser(userID int) ([]*models.Plan, error) {
	query := `SELECT id, user_id, name, description, created_at
		FROM task_lists WHERE user_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("could not query plans: %w", err)
	}
	defer rows.Close()

	plans := []*models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return plans, nil
}

// FindByID は指定ID・指定所有者のプランを取得します。
func (r *PlanRepository) FindByID(id, userID int) (*models.Plan, error) {
	query := "SELECT id, user_id, name, description, created_at FROM task_lists WHERE id = ? AND user_id = ?"
	p, err := scanPlan(r.DB.QueryRow(query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("could not query plan: %w", err)
	}
	return p, nil
}

// Create は新しいプランをデータベースに挿入します。
func (r *PlanRepository) Create(p *models.Plan) (*models.Plan, error) {
	createdAt := time.Now().UTC()
	query := "INSERT INTO task_lists (user_id, name, description, created_at) VALUES (?, ?, ?, ?)"
	// *string はnilのときNULLとして束縛される
	result, err := r.DB.Exec(query, p.UserID, p.Name, p.Description, createdAt)
	if err != nil {
		return nil, fmt.Errorf("could not insert plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	return r.FindByID(int(id), p.UserID)
}

// Update は指定されたフィールドのみを更新する部分更新です。
// SET句はパッチ構造体のフィールド順で決定的に組み立てます。
func (r *PlanRepository) Update(id, userID int, patch *models.UpdatePlanRequest) (*models.Plan, error) {
	updates := []string{}
	values := []any{}

	if patch.Name != nil {
		updates = append(updates, "name = ?")
		values = append(values, *patch.Name)
	}
	if patch.Description != nil {
		updates = append(updates, "description = ?")
		values = append(values, *patch.Description)
	}
	if len(updates) == 0 {
		return r.FindByID(id, userID)
	}

	values = append(values, id, userID)
	query := fmt.Sprintf("UPDATE task_lists SET %s WHERE id = ? AND user_id = ?", strings.Join(updates, ", "))
	result, err := r.DB.Exec(query, values...)
	if err != nil {
		return nil, fmt.Errorf("could not update plan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrPlanNotFound
	}
	return r.FindByID(id, userID)
}

// Delete は指定ID・指定所有者のプランを削除します。
// tasks側の ON DELETE CASCADE により、属するタスクも同時に削除されます。
func (r *PlanRepository) Delete(id, userID int) error {
	result, err := r.DB.Exec("DELETE FROM task_lists WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("could not delete plan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// CountTasks はプラン内のタスク数を返します。
func (r *PlanRepository) CountTasks(listID int) (int, error) {
	var count int
	err := r.DB.QueryRow("SELECT COUNT(*) FROM tasks WHERE list_id = ?", listID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("could not count tasks: %w", err)
	}
	return count, nil
}

// CountTasksByStatus はプラン内の指定ステータスのタスク数を返します。
func (r *PlanRepository) CountTasksByStatus(listID int, status string) (int, error) {
	var count int
	err := r.DB.QueryRow("SELECT COUNT(*) FROM tasks WHERE list_id = ? AND status = ?", listID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("could not count tasks by status: %w", err)
	}
	return count, nil
}
