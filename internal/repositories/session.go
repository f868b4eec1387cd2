package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"go-task-plans/backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository はsessionsテーブルへのアクセスを提供します。
// セッションはデータベースに永続化されるため、プロセス再起動後も有効です。
type SessionRepository struct {
	DB *sql.DB
}

// NewSessionRepository は新しいSessionRepositoryインスタンスを作成します。
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// Create はセッションレコードを挿入します。
func (r *SessionRepository) Create(s *models.Session) error {
	query := "INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)"
	if _, err := r.DB.Exec(query, s.Token, s.UserID, s.CreatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("could not insert session: %w", err)
	}
	return nil
}

// Find はトークンでセッションを検索します。
func (r *SessionRepository) Find(token string) (*models.Session, error) {
	query := "SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?"
	var s models.Session
	err := r.DB.QueryRow(query, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}
	return &s, nil
}

// Delete はセッションを削除します。存在しない場合もエラーにしません (冪等)。
func (r *SessionRepository) Delete(token string) error {
	if _, err := r.DB.Exec("DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れのセッションをまとめて削除します。
func (r *SessionRepository) DeleteExpired() error {
	if _, err := r.DB.Exec("DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP"); err != nil {
		return fmt.Errorf("could not delete expired sessions: %w", err)
	}
	return nil
}
