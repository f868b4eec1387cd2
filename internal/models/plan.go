package models

import "time"

// Plan はタスクリスト（プラン）のデータベース構造体を表します。
// 1つのプランは必ず1人のユーザーに所有されます。
type Plan struct {
	ID          int       `json:"id,omitempty"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlanWithCounts は一覧表示用に集計値を付加したプランです。
type PlanWithCounts struct {
	Plan
	TaskCount      int `json:"taskCount"`
	CompletedCount int `json:"completedCount"`
	CancelledCount int `json:"cancelledCount"`
}

// PlanDetail は単体取得用にタスク数のみを付加したプランです。
type PlanDetail struct {
	Plan
	TaskCount int `json:"taskCount"`
}

// CreatePlanRequest はプラン作成リクエストの構造体です。
type CreatePlanRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdatePlanRequest は部分更新用のパッチ構造体です。
// nil のフィールドは「変更しない」を意味します。
type UpdatePlanRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Empty は更新対象のフィールドが1つも無いかどうかを返します。
func (r *UpdatePlanRequest) Empty() bool {
	return r.Name == nil && r.Description == nil
}
