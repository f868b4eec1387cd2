package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-plans/backend/internal/models"
	"go-task-plans/backend/testutil"
)

func TestCreatePlan_Success(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")

	resp := testutil.DoJSON(t, r, http.MethodPost, "/api/lists", map[string]string{
		"name":        "  Groceries  ",
		"description": "Weekly shopping",
	}, cookie)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var plan models.Plan
	env := testutil.DecodeData(t, resp, &plan)
	assert.True(t, env.Success)
	assert.Equal(t, "List created", env.Message)
	// 前後の空白は除去される
	assert.Equal(t, "Groceries", plan.Name)
	require.NotNil(t, plan.Description)
	assert.Equal(t, "Weekly shopping", *plan.Description)
	assert.NotZero(t, plan.ID)
	assert.NotZero(t, plan.CreatedAt)
}

func TestCreatePlan_Validation(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")

	cases := []struct {
		name    string
		payload map[string]string
	}{
		{"empty name", map[string]string{"name": ""}},
		{"whitespace name", map[string]string{"name": "   "}},
		{"name too long", map[string]string{"name": makeString(101, 'a')}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := testutil.DoJSON(t, r, http.MethodPost, "/api/lists", tc.payload, cookie)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
		})
	}
}

func TestCreatePlan_MultibyteName(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")

	// 100文字ちょうどの日本語名 (300バイト) は有効
	name := strings.Repeat("あ", 100)
	resp := testutil.DoJSON(t, r, http.MethodPost, "/api/lists", map[string]string{"name": name}, cookie)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var plan models.Plan
	testutil.DecodeData(t, resp, &plan)
	assert.Equal(t, name, plan.Name)

	// 101文字は文字数として超過
	resp = testutil.DoJSON(t, r, http.MethodPost, "/api/lists",
		map[string]string{"name": strings.Repeat("あ", 101)}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// 更新側も同じ判定
	resp = testutil.DoJSON(t, r, http.MethodPut, fmt.Sprintf("/api/lists/%d", plan.ID),
		map[string]string{"name": strings.Repeat("い", 100)}, cookie)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestListPlans_CountsAndOrder(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")

	first := testutil.CreateTestPlan(t, r, cookie, "First")
	second := testutil.CreateTestPlan(t, r, cookie, "Second")

	t1 := testutil.CreateTestTask(t, r, cookie, second.ID, "Task one")
	t2 := testutil.CreateTestTask(t, r, cookie, second.ID, "Task two")
	testutil.CreateTestTask(t, r, cookie, second.ID, "Task three")

	patch := func(id int, status string) {
		resp := testutil.DoJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/status", id),
			map[string]string{"status": status}, cookie)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}
	patch(t1.ID, "completed")
	patch(t2.ID, "cancelled")

	resp := testutil.DoJSON(t, r, http.MethodGet, "/api/lists", nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	var plans []models.PlanWithCounts
	env := testutil.DecodeData(t, resp, &plans)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	require.Len(t, plans, 2)

	// 新しい順に並ぶ
	assert.Equal(t, second.ID, plans[0].ID)
	assert.Equal(t, first.ID, plans[1].ID)

	assert.Equal(t, 3, plans[0].TaskCount)
	assert.Equal(t, 1, plans[0].CompletedCount)
	assert.Equal(t, 1, plans[0].CancelledCount)
	assert.Equal(t, 0, plans[1].TaskCount)
}

func TestListPlans_EmptyForNewUser(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")

	resp := testutil.DoJSON(t, r, http.MethodGet, "/api/lists", nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	var env testutil.Envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)
	// 空でもnullではなく配列を返す
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestGetPlan_DetailAndErrors(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "owner@example.com", "owneruser", "secret123")
	plan := testutil.CreateTestPlan(t, r, cookie, "Mine")
	testutil.CreateTestTask(t, r, cookie, plan.ID, "A task")

	resp := testutil.DoJSON(t, r, http.MethodGet, fmt.Sprintf("/api/lists/%d", plan.ID), nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code)

	var detail models.PlanDetail
	testutil.DecodeData(t, resp, &detail)
	assert.Equal(t, "Mine", detail.Name)
	assert.Equal(t, 1, detail.TaskCount)

	resp = testutil.DoJSON(t, r, http.MethodGet, "/api/lists/abc", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	missing := testutil.DoJSON(t, r, http.MethodGet, "/api/lists/99999", nil, cookie)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	// 他人のリストへのアクセスは存在しない場合と区別がつかない
	otherCookie, _ := testutil.RegisterTestUser(t, r, "other@example.com", "otheruser", "secret123")
	foreign := testutil.DoJSON(t, r, http.MethodGet, fmt.Sprintf("/api/lists/%d", plan.ID), nil, otherCookie)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())
}

func TestUpdatePlan_PartialUpdate(t *testing.T) {
	_, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")
	plan := testutil.CreateTestPlan(t, r, cookie, "Original")

	// 説明のみ更新しても名前は変わらない
	resp := testutil.DoJSON(t, r, http.MethodPut, fmt.Sprintf("/api/lists/%d", plan.ID),
		map[string]string{"description": "New description"}, cookie)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated models.Plan
	env := testutil.DecodeData(t, resp, &updated)
	assert.Equal(t, "List updated", env.Message)
	assert.Equal(t, "Original", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "New description", *updated.Description)

	// フィールド無しの更新は拒否される
	resp = testutil.DoJSON(t, r, http.MethodPut, fmt.Sprintf("/api/lists/%d", plan.ID),
		map[string]string{}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// 名前を空文字に更新することはできない
	resp = testutil.DoJSON(t, r, http.MethodPut, fmt.Sprintf("/api/lists/%d", plan.ID),
		map[string]string{"name": "  "}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	otherCookie, _ := testutil.RegisterTestUser(t, r, "other@example.com", "otheruser", "secret123")
	resp = testutil.DoJSON(t, r, http.MethodPut, fmt.Sprintf("/api/lists/%d", plan.ID),
		map[string]string{"name": "Hijacked"}, otherCookie)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeletePlan_CascadesTasks(t *testing.T) {
	db, r := testutil.SetupTestServer(t)
	cookie, _ := testutil.RegisterTestUser(t, r, "user@example.com", "someuser", "secret123")
	plan := testutil.CreateTestPlan(t, r, cookie, "Doomed")
	task := testutil.CreateTestTask(t, r, cookie, plan.ID, "Goes with it")

	resp := testutil.DoJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/lists/%d", plan.ID), nil, cookie)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = testutil.DoJSON(t, r, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tasks WHERE id = ?", task.ID).Scan(&count))
	assert.Equal(t, 0, count)

	// 2回目の削除は404
	resp = testutil.DoJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/lists/%d", plan.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPlans_RequireAuth(t *testing.T) {
	_, r := testutil.SetupTestServer(t)

	resp := testutil.DoJSON(t, r, http.MethodGet, "/api/lists", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = testutil.DoJSON(t, r, http.MethodPost, "/api/lists", map[string]string{"name": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
