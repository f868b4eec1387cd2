package models

import "time"

// Session は永続化されるセッションのレコードです。
// Token は crypto/rand 由来の推測不可能な識別子で、
// ユーザー情報から導出されることはありません。
type Session struct {
	Token     string    `json:"-"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
