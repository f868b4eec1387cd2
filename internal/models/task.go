package models

import "time"

// タスクの3状態。遷移の制限は設けていません
// (cancelled → pending のような差し戻しも許可されます)。
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus は status が許可された3値のいずれかであるかを返します。
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task はタスクのデータベース構造体を表します。
// 所有者はタスク自身ではなく親プラン (list_id) を通じて決まります。
type Task struct {
	ID            int       `json:"id,omitempty"`
	ListID        *int      `json:"list_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	Status        string    `json:"status"`
	Deadline      *string   `json:"deadline"`
	EstimatedTime *float64  `json:"estimated_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateTaskRequest はタスク作成リクエストの構造体です。
// status は受け取らず、常に pending で作成します。
type CreateTaskRequest struct {
	Title         string   `json:"title"`
	ListID        *int     `json:"list_id"`
	Description   *string  `json:"description"`
	Deadline      *string  `json:"deadline"`
	EstimatedTime *float64 `json:"estimated_time"`
}

// UpdateTaskRequest は部分更新用のパッチ構造体です。
// nil のフィールドは「変更しない」を意味します。
type UpdateTaskRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status"`
	Deadline      *string  `json:"deadline"`
	EstimatedTime *float64 `json:"estimated_time"`
}

// Empty は更新対象のフィールドが1つも無いかどうかを返します。
func (r *UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Deadline == nil && r.EstimatedTime == nil
}

// UpdateTaskStatusRequest はステータス変更リクエストの構造体です。
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}
