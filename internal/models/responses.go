package models

// APIResponse は全エンドポイント共通のレスポンスエンベロープです。
// 形式: { success, data?, error?, count?, message? }
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}
