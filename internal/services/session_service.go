package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/repositories"
)

// ErrSessionInvalid はセッションの不在・破棄済み・期限切れをまとめて表します。
var ErrSessionInvalid = errors.New("session invalid or expired")

// SessionService はセッションのライフサイクルを管理します。
// 状態遷移は absent → active → destroyed のみで、destroyed が終端です。
type SessionService struct {
	sessionRepo *repositories.SessionRepository
	ttl         time.Duration
}

// NewSessionService は新しいSessionServiceを作成します。
func NewSessionService(sessionRepo *repositories.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, ttl: ttl}
}

// GenerateToken はセッションやパスワードリセットに使う
// 暗号論的に推測不可能なランダムトークンを生成します。
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// TTL はセッションの有効期間を返します。
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Open はログイン・登録成功時に新しいセッションを作成します。
func (s *SessionService) Open(userID int) (*models.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Resolve はトークンからユーザーIDを解決します。
// 期限切れのセッションは削除してから ErrSessionInvalid を返します。
func (s *SessionService) Resolve(token string) (int, error) {
	session, err := s.sessionRepo.Find(token)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return 0, ErrSessionInvalid
		}
		return 0, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessionRepo.Delete(token)
		return 0, ErrSessionInvalid
	}
	return session.UserID, nil
}

// Destroy はセッションを破棄します。冪等です。
func (s *SessionService) Destroy(token string) error {
	return s.sessionRepo.Delete(token)
}
