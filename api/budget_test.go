package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var budgetColumns = []string{"id", "user_id", "category", "month", "amount", "created_at", "updated_at"}

func TestBudgetHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 类别存在
	mock.ExpectQuery("SELECT .* FROM `expense_categories`").
		WithArgs("餐饮").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sort", "color", "created_at", "updated_at", "deleted_at"}).
			AddRow(1, "餐饮", 10, "#ef4444", time.Now(), time.Now(), nil))

	// 无重复预算
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(uint(1), "餐饮", "2024-01").
		WillReturnRows(sqlmock.NewRows([]string{}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `budgets`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/budgets", NewBudgetHandler().Create)

	body := `{"category":"餐饮","month":"2024-01","amount":1500}`
	req := httptest.NewRequest("POST", "/budgets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_Create_InvalidMonth(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/budgets", NewBudgetHandler().Create)

	body := `{"category":"餐饮","month":"2024/01","amount":1500}`
	req := httptest.NewRequest("POST", "/budgets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "月份格式错误")
}

func TestBudgetHandler_Create_Duplicate(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `expense_categories`").
		WithArgs("餐饮").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sort", "color", "created_at", "updated_at", "deleted_at"}).
			AddRow(1, "餐饮", 10, "#ef4444", time.Now(), time.Now(), nil))

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(uint(1), "餐饮", "2024-01").
		WillReturnRows(sqlmock.NewRows(budgetColumns).
			AddRow(5, 1, "餐饮", "2024-01", 1000.0, time.Now(), time.Now()))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/budgets", NewBudgetHandler().Create)

	body := `{"category":"餐饮","month":"2024-01","amount":1500}`
	req := httptest.NewRequest("POST", "/budgets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "已存在")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_Status(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 当月两条预算
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(uint(1), "2024-01").
		WillReturnRows(sqlmock.NewRows(budgetColumns).
			AddRow(1, 1, "交通", "2024-01", 300.0, time.Now(), time.Now()).
			AddRow(2, 1, "餐饮", "2024-01", 1500.0, time.Now(), time.Now()))

	// 交通已花 450 → 超支
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(450.0))
	// 餐饮已花 750 → 50%
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(750.0))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/budgets/status", NewBudgetHandler().Status)

	req := httptest.NewRequest("GET", "/budgets/status?month=2024-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Code int            `json:"code"`
		Data []BudgetStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)

	assert.Equal(t, "交通", resp.Data[0].Category)
	assert.Equal(t, 450.0, resp.Data[0].Spent)
	assert.Equal(t, -150.0, resp.Data[0].Remaining)
	assert.Equal(t, 150.0, resp.Data[0].UsagePct)
	assert.True(t, resp.Data[0].Exceeded)

	assert.Equal(t, "餐饮", resp.Data[1].Category)
	assert.Equal(t, 750.0, resp.Data[1].Remaining)
	assert.Equal(t, 50.0, resp.Data[1].UsagePct)
	assert.False(t, resp.Data[1].Exceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 删除后同一 (类别, 月份) 必须可以重建：删除是物理删除，不会留下占用唯一索引的行
func TestBudgetHandler_RecreateAfterDelete(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 删除：先按 (id, user_id) 取记录，再物理 DELETE（而非软删除的 UPDATE）
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(uint64(5), uint(1)).
		WillReturnRows(sqlmock.NewRows(budgetColumns).
			AddRow(5, 1, "餐饮", "2024-01", 1000.0, time.Now(), time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `budgets`").
		WithArgs(uint(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// 重建同一 (类别, 月份)：查重查不到旧行，插入成功
	mock.ExpectQuery("SELECT .* FROM `expense_categories`").
		WithArgs("餐饮").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sort", "color", "created_at", "updated_at", "deleted_at"}).
			AddRow(1, "餐饮", 10, "#ef4444", time.Now(), time.Now(), nil))
	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(uint(1), "餐饮", "2024-01").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `budgets`").
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	h := NewBudgetHandler()
	router.DELETE("/budgets/:id", h.Delete)
	router.POST("/budgets", h.Create)

	req := httptest.NewRequest("DELETE", "/budgets/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	body := `{"category":"餐饮","month":"2024-01","amount":1200}`
	req2 := httptest.NewRequest("POST", "/budgets", bytes.NewBufferString(body))
	req2.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	assert.Equal(t, 200, w2.Code)
	assert.Contains(t, w2.Body.String(), "创建成功")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetHandler_Delete_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `budgets`").
		WithArgs(uint64(99), uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.DELETE("/budgets/:id", NewBudgetHandler().Delete)

	req := httptest.NewRequest("DELETE", "/budgets/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
