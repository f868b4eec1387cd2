// Package handlers はHTTPハンドラーを提供します。
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-task-plans/backend/internal/models"
)

// respondData はデータ付きの成功レスポンスを返します。
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, models.APIResponse{Success: true, Data: data})
}

// respondList は一覧用に件数付きの成功レスポンスを返します。
func respondList(c *gin.Context, data any, count int) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: data, Count: &count})
}

// respondMessage はデータとメッセージを持つ成功レスポンスを返します。
func respondMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, models.APIResponse{Success: true, Data: data, Message: message})
}

// respondError はエラーレスポンスを返します。
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.APIResponse{Success: false, Error: message})
}

// currentUserID は認証ミドルウェアがコンテキストに設定したユーザーIDを取り出します。
// 取り出せない場合はレスポンスを書き込み、false を返します。
func currentUserID(c *gin.Context) (int, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return 0, false
	}
	userID, ok := userIDVal.(int)
	if !ok {
		respondError(c, http.StatusInternalServerError, "Invalid user ID type in context")
		return 0, false
	}
	return userID, true
}
