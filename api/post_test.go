package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"licai/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postColumns = []string{"id", "user_id", "title", "content", "status", "created_at", "updated_at", "deleted_at"}

func TestPostHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `posts`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/posts", NewPostHandler().Create)

	body := `{"title":"记账一年的心得","content":"坚持记账之后，每月能省下不少。"}`
	req := httptest.NewRequest("POST", "/posts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "发布成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostHandler_Create_MissingTitle(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/posts", NewPostHandler().Create)

	body := `{"content":"没有标题"}`
	req := httptest.NewRequest("POST", "/posts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestPostHandler_ListFeed_OnlyVisible(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `posts`").
		WithArgs(models.PostStatusVisible).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT .* FROM `posts`").
		WithArgs(models.PostStatusVisible).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(1, 2, "可见帖子", "内容", "visible", time.Now(), time.Now(), nil))

	router := gin.New()
	router.GET("/posts/feed", NewPostHandler().ListFeed)

	req := httptest.NewRequest("GET", "/posts/feed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			Total int64         `json:"total"`
			List  []models.Post `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Total)
	require.Len(t, resp.Data.List, 1)
	assert.Equal(t, "可见帖子", resp.Data.List[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostHandler_Get_HiddenInvisibleToOthers(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 帖子属于用户 2 且被隐藏，用户 1 访问
	mock.ExpectQuery("SELECT .* FROM `posts`").
		WithArgs(uint(5)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(5, 2, "被隐藏的帖子", "内容", "hidden", time.Now(), time.Now(), nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/posts/:id", NewPostHandler().Get)

	req := httptest.NewRequest("GET", "/posts/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostHandler_Get_HiddenVisibleToAuthor(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `posts`").
		WithArgs(uint(5)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(5, 1, "被隐藏的帖子", "内容", "hidden", time.Now(), time.Now(), nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/posts/:id", NewPostHandler().Get)

	req := httptest.NewRequest("GET", "/posts/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "被隐藏的帖子")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostHandler_Delete_NotOwner(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 所有权过滤后查不到
	mock.ExpectQuery("SELECT .* FROM `posts`").
		WithArgs(uint64(5), uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.DELETE("/posts/:id", NewPostHandler().Delete)

	req := httptest.NewRequest("DELETE", "/posts/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
