package models

import "time"

// User はユーザーのデータベース構造体を表します。
// JSONタグ: クライアントとの通信用
// PasswordHashはレスポンスに含めないため `json:"-"` を付けます。
type User struct {
	ID           int       `json:"id,omitempty"`
	Email        string    `json:"email"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRegisterRequest はユーザー登録リクエストの構造体です。
// 文字数などの詳細なバリデーションはハンドラーで行います。
type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserLoginRequest はログインリクエストの構造体です。
// Identifier にはメールアドレスまたはログイン名を指定できます。
type UserLoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type UserForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UserResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// PasswordResetToken はパスワードリセット用トークンのレコードです。
type PasswordResetToken struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
