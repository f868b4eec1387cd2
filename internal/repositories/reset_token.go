package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"go-task-plans/backend/internal/models"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

// ResetTokenRepository はパスワードリセットトークンの保存・検索を行います。
type ResetTokenRepository interface {
	Save(token *models.PasswordResetToken) error
	FindByToken(token string) (*models.PasswordResetToken, error)
	MarkUsed(id int) error
	CleanupExpired() error
}

// SQLiteResetTokenRepo はResetTokenRepositoryのSQLite実装です。
type SQLiteResetTokenRepo struct {
	DB *sql.DB
}

func NewSQLiteResetTokenRepo(db *sql.DB) *SQLiteResetTokenRepo {
	return &SQLiteResetTokenRepo{DB: db}
}

func (r *SQLiteResetTokenRepo) Save(t *models.PasswordResetToken) error {
	_, err := r.DB.Exec(
		"INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)",
		t.UserID, t.Token, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("could not save reset token: %w", err)
	}
	return nil
}

func (r *SQLiteResetTokenRepo) FindByToken(token string) (*models.PasswordResetToken, error) {
	query := "SELECT id, user_id, token, expires_at, used_at FROM password_reset_tokens WHERE token = ?"

	var pr models.PasswordResetToken
	var usedAt sql.NullTime
	err := r.DB.QueryRow(query, token).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("could not query reset token: %w", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return &pr, nil
}

func (r *SQLiteResetTokenRepo) MarkUsed(id int) error {
	_, err := r.DB.Exec(
		"UPDATE password_reset_tokens SET used_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not mark reset token used: %w", err)
	}
	return nil
}

// CleanupExpired は期限切れまたは使用済みのトークンを削除します。
func (r *SQLiteResetTokenRepo) CleanupExpired() error {
	_, err := r.DB.Exec(`
		DELETE FROM password_reset_tokens
		WHERE used_at IS NOT NULL
		   OR expires_at < CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("could not cleanup reset tokens: %w", err)
	}
	return nil
}
