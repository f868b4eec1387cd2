package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/repositories"
	"go-task-plans/backend/internal/services"
)

// SessionCookieName はセッショントークンを運ぶCookie名です。
const SessionCookieName = "session_id"

// AuthHandler は認証関連のハンドラーを管理します。
type AuthHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	logger         *zap.SugaredLogger
}

// NewAuthHandler は新しいAuthHandlerを作成します。
func NewAuthHandler(userService *services.UserService, sessionService *services.SessionService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{userService: userService, sessionService: sessionService, logger: logger}
}

// setSessionCookie はhttpOnly + SameSite=LaxのセッションCookieを設定します。
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", false, true)
}

// RegisterHandler はユーザー登録を処理します。成功時はセッションも開始します。
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email, login and password required")
		return
	}

	if !strings.Contains(req.Email, "@") {
		respondError(c, http.StatusBadRequest, "Invalid email")
		return
	}
	// 文字数はバイト数ではなくルーン数で数える
	login := strings.TrimSpace(req.Login)
	if n := utf8.RuneCountInString(login); n < 3 || n > 50 {
		respondError(c, http.StatusBadRequest, "Login must be 3-50 characters")
		return
	}
	if len(req.Password) < 6 {
		respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	user, err := h.userService.Register(req)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			respondError(c, http.StatusConflict, "Email or login already in use")
			return
		}
		h.logger.Errorw("failed to register user", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	session, err := h.sessionService.Open(user.ID)
	if err != nil {
		h.logger.Errorw("failed to open session", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.setSessionCookie(c, session.Token, int(h.sessionService.TTL().Seconds()))

	respondData(c, http.StatusCreated, user)
}

// LoginHandler はログインを処理します。
// ユーザー不在とパスワード不一致は同じメッセージで返します。
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Identifier and password required")
		return
	}

	user, err := h.userService.Authenticate(req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Errorw("failed to authenticate user", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}

	session, err := h.sessionService.Open(user.ID)
	if err != nil {
		h.logger.Errorw("failed to open session", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.setSessionCookie(c, session.Token, int(h.sessionService.TTL().Seconds()))

	respondData(c, http.StatusOK, user)
}

// LogoutHandler は現在のセッションを破棄します。セッションが無くても成功します。
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
		if err := h.sessionService.Destroy(token); err != nil {
			h.logger.Warnw("failed to destroy session", "error", err)
		}
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, models.APIResponse{Success: true})
}

// MeHandler は現在のセッションに紐づくユーザーを返します。
func (h *AuthHandler) MeHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.CurrentUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h.logger.Errorw("failed to fetch current user", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	respondData(c, http.StatusOK, user)
}

// ForgotPasswordHandler はパスワードリセットの要求を処理します。
// メールアドレスの存在有無にかかわらず200を返します。
func (h *AuthHandler) ForgotPasswordHandler(c *gin.Context) {
	var req models.UserForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email required")
		return
	}

	if err := h.userService.ForgotPassword(strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		h.logger.Errorw("failed to process password reset", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Password reset email sent"})
}

// ResetPasswordHandler はトークンによるパスワード再設定を処理します。
func (h *AuthHandler) ResetPasswordHandler(c *gin.Context) {
	var req models.UserResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Password required")
		return
	}
	if len(req.Password) < 6 {
		respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	if err := h.userService.ResetPassword(c.Param("token"), req.Password); err != nil {
		if errors.Is(err, services.ErrResetTokenInvalid) {
			respondError(c, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		h.logger.Errorw("failed to reset password", "error", err)
		respondError(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Password reset successfully"})
}
