// Package testutil はHTTPレベルのテストで共有するセットアップとヘルパーを提供します。
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-task-plans/backend/internal/config"
	"go-task-plans/backend/internal/database"
	"go-task-plans/backend/internal/handlers"
	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/internal/routes"
)

// Envelope はテストでレスポンスをデコードするためのエンベロープです。
// Data は呼び出し側で任意の型にアンマーシャルします。
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
}

// SetupTestServer はin-memoryのSQLiteとルーターを構築します。
// 各テストが独立したデータベースを持ちます。
func SetupTestServer(t *testing.T) (*sql.DB, *gin.Engine) {
	t.Helper()

	// .env があれば読み込む (無くてもテストは動く)
	_ = godotenv.Load("../../.env")

	gin.SetMode(gin.TestMode)

	db, err := database.Open(":memory:")
	require.NoError(t, err, "Failed to open in-memory database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.InitSchema(db), "Failed to initialize schema")

	cfg := config.Config{
		ServerPort:      "8080",
		CORSOrigin:      "http://localhost:3000",
		SessionTTLHours: 24,
		FrontendURL:     "http://localhost:3000",
	}

	router := routes.SetupRouter(db, cfg, zap.NewNop().Sugar())
	return db, router
}

// DoJSON はJSONボディ付きのリクエストを実行します。body が nil の場合は空ボディです。
func DoJSON(t *testing.T, router *gin.Engine, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// DecodeData はエンベロープの data フィールドを out にデコードします。
func DecodeData(t *testing.T, resp *httptest.ResponseRecorder, out any) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "Response should be a valid JSON envelope: %s", resp.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out), "Envelope data should decode: %s", string(env.Data))
	}
	return env
}

// SessionCookie はレスポンスからセッションCookieを取り出します。
func SessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range resp.Result().Cookies() {
		if c.Name == handlers.SessionCookieName {
			return c
		}
	}
	t.Fatalf("session cookie not found in response")
	return nil
}

// RegisterTestUser はユーザーを登録し、セッションCookieと作成されたユーザーを返します。
func RegisterTestUser(t *testing.T, router *gin.Engine, email, login, password string) (*http.Cookie, *models.User) {
	t.Helper()

	payload := map[string]string{"email": email, "login": login, "password": password}
	resp := DoJSON(t, router, http.MethodPost, "/api/auth/register", payload, nil)
	require.Equal(t, http.StatusCreated, resp.Code, "Failed to register test user: %s", resp.Body.String())

	var user models.User
	DecodeData(t, resp, &user)
	return SessionCookie(t, resp), &user
}

// LoginAndGetCookie はログインしてセッションCookieを返します。
func LoginAndGetCookie(t *testing.T, router *gin.Engine, identifier, password string) (*http.Cookie, error) {
	t.Helper()

	payload := map[string]string{"identifier": identifier, "password": password}
	resp := DoJSON(t, router, http.MethodPost, "/api/auth/login", payload, nil)
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}
	return SessionCookie(t, resp), nil
}

// CreateTestPlan はプランを作成して返します。
func CreateTestPlan(t *testing.T, router *gin.Engine, cookie *http.Cookie, name string) *models.Plan {
	t.Helper()

	resp := DoJSON(t, router, http.MethodPost, "/api/lists", map[string]string{"name": name}, cookie)
	require.Equal(t, http.StatusCreated, resp.Code, "Failed to create test plan: %s", resp.Body.String())

	var plan models.Plan
	DecodeData(t, resp, &plan)
	return &plan
}

// CreateTestTask は指定プランにタスクを作成して返します。
func CreateTestTask(t *testing.T, router *gin.Engine, cookie *http.Cookie, listID int, title string) *models.Task {
	t.Helper()

	payload := map[string]any{"title": title, "list_id": listID}
	resp := DoJSON(t, router, http.MethodPost, "/api/tasks", payload, cookie)
	require.Equal(t, http.StatusCreated, resp.Code, "Failed to create test task: %s", resp.Body.String())

	var task models.Task
	DecodeData(t, resp, &task)
	return &task
}
