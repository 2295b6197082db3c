package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"licai/config"
	"licai/database"
	"licai/middleware"
	"licai/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func TestAuthHandler_Register(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	defer func() { config.GlobalConfig = nil }()

	// 检查用户名不存在：SELECT 返回无记录
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("newuser").
		WillReturnRows(sqlmock.NewRows([]string{}))

	// GORM Create 使用事务
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/register", h.Register)

	body := `{"username":"newuser","password":"password123","email":"test@example.com"}`
	req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, "注册成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_UsernameExists(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret"},
	}
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// SELECT 返回已有用户
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("existinguser").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "email", "nickname", "is_admin", "status", "created_at", "updated_at", "deleted_at"}).
			AddRow(1, "existinguser", "hash", "e@x.com", "", false, "active", time.Now(), time.Now(), nil))

	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/register", h.Register)

	body := `{"username":"existinguser","password":"password123"}`
	req := httptest.NewRequest("POST", "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "用户名已存在", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	defer func() { config.GlobalConfig = nil }()

	// SELECT 用户（username OR email）
	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("loginuser", "loginuser").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "email", "nickname", "is_admin", "status", "created_at", "updated_at", "deleted_at"}).
			AddRow(1, "loginuser", string(hashed), "login@x.com", "", false, models.UserStatusActive, time.Now(), time.Now(), nil))

	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/login", h.Login)

	body := `{"username":"loginuser","password":"password123"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(200), resp["code"])
	assert.NotEmpty(t, resp["data"])
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_LockedUser(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("lockeduser", "lockeduser").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password", "email", "nickname", "is_admin", "status", "created_at", "updated_at", "deleted_at"}).
			AddRow(2, "lockeduser", string(hashed), "locked@x.com", "", false, models.UserStatusLocked, time.Now(), time.Now(), nil))

	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/login", h.Login)

	body := `{"username":"lockeduser","password":"password123"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "锁定")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_UserNotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := &config.Config{Server: config.ServerConfig{Mode: "debug"}, JWT: config.JWTConfig{Secret: "x"}}
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("nouser", "nouser").
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/login", h.Login)

	body := `{"username":"nouser","password":"any"}`
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_SendVerificationCode_AdminBind(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 邮件服务未启用：验证码会先落库，发送失败后被清理
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Email:  config.EmailConfig{Enabled: false},
	}
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// admin_bind 类型不检查邮箱占用，直接查未使用的验证码
	mock.ExpectQuery("SELECT .* FROM `email_verifications`").
		WithArgs("user@example.com", "admin_bind", false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `email_verifications`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	// 发送失败后软删除刚创建的验证码
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `email_verifications`").
		WithArgs(sqlmock.AnyArg(), uint(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	h := NewAuthHandler(cfg)
	router.POST("/send-code", h.SendVerificationCode)

	body := `{"email":"user@example.com","type":"admin_bind"}`
	req := httptest.NewRequest("POST", "/send-code", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// admin_bind 必须通过参数校验，走到发送环节而不是返回 400
	assert.Equal(t, 500, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "邮件发送失败")
	require.NoError(t, mock.ExpectationsWereMet())
}
