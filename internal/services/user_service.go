// Package services はビジネスロジックを提供します。
package services

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-task-plans/backend/internal/config"
	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials はユーザー不在とパスワード不一致の両方で返します。
	// どちらが原因かを呼び出し側に漏らさないため、意図的に区別しません。
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrResetTokenInvalid = errors.New("invalid or expired token")
)

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	userRepo       *repositories.UserRepository
	resetTokenRepo repositories.ResetTokenRepository
	cfg            config.Config
	logger         *zap.SugaredLogger
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo *repositories.UserRepository, resetTokenRepo repositories.ResetTokenRepository, cfg config.Config, logger *zap.SugaredLogger) *UserService {
	return &UserService{userRepo: userRepo, resetTokenRepo: resetTokenRepo, cfg: cfg, logger: logger}
}

// Register はユーザーを登録します。メールアドレスは小文字に正規化して保存します。
// email/loginの重複は repositories.ErrDuplicateUser がそのまま返ります。
func (s *UserService) Register(req models.UserRegisterRequest) (*models.User, error) {
	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Login:        strings.TrimSpace(req.Login),
		PasswordHash: hashedPassword,
	}

	createdUser, err := s.userRepo.Create(newUser)
	if err != nil {
		return nil, err
	}
	createdUser.PasswordHash = ""
	return createdUser, nil
}

// Authenticate はメールアドレスまたはログイン名とパスワードでユーザーを認証します。
func (s *UserService) Authenticate(req models.UserLoginRequest) (*models.User, error) {
	foundUser, err := s.userRepo.FindByIdentifier(strings.TrimSpace(req.Identifier))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	foundUser.PasswordHash = ""
	return foundUser, nil
}

// CurrentUser はセッション解決済みのユーザーIDから公開レコードを取得します。
func (s *UserService) CurrentUser(userID int) (*models.User, error) {
	return s.userRepo.FindByID(userID)
}

// ForgotPassword はパスワードリセットトークンを発行してメールを送信します。
// メールの存在がバレないように、ユーザーが見つからなくても成功扱いにします。
func (s *UserService) ForgotPassword(email string) error {
	// ログイン名での照合は禁止。メールアドレスの持ち主だけに送る。
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		s.logger.Infow("password reset requested for unknown email", "email", email)
		return nil
	}

	token, err := GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	resetToken := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(1 * time.Hour),
	}
	if err := s.resetTokenRepo.Save(resetToken); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.cfg.FrontendURL, token)
	if err := s.sendPasswordResetEmail(email, resetURL); err != nil {
		// 送信失敗はログに残すだけでリクエスト自体は成功させる
		s.logger.Warnw("failed to send reset email", "error", err)
	}
	return nil
}

// ResetPassword はトークンを検証してパスワードを更新します。
func (s *UserService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.resetTokenRepo.FindByToken(token)
	if err != nil {
		return ErrResetTokenInvalid
	}
	if time.Now().After(resetToken.ExpiresAt) {
		return ErrResetTokenInvalid
	}
	if resetToken.UsedAt != nil {
		return ErrResetTokenInvalid
	}

	hashedPassword, err := repositories.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(resetToken.UserID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetTokenRepo.MarkUsed(resetToken.ID); err != nil {
		// 失敗しても続行
		s.logger.Warnw("failed to mark reset token as used", "error", err)
	}
	return nil
}

func (s *UserService) sendPasswordResetEmail(email, resetURL string) error {
	to := []string{email}
	message := []byte(fmt.Sprintf(
		"Subject: Password reset\r\n\r\nOpen the following URL to set a new password.\r\n%s",
		resetURL,
	))

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return smtp.SendMail(s.cfg.SMTPHost+":"+s.cfg.SMTPPort, auth, s.cfg.SMTPUser, to, message)
}
