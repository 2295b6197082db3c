package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"licai/adminauth"
	"licai/database"
	"licai/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

func setAdminCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	secure, sameSite := getCookieOptions()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: httpOnly,
		SameSite: sameSite,
	})
}

// setSignedAdminCookie 设置签名后的敏感 Cookie，防止客户端篡改
func setSignedAdminCookie(c *gin.Context, name, value string, maxAge int, httpOnly bool) {
	setAdminCookie(c, name, adminauth.SignCookieValue(value), maxAge, httpOnly)
}

// AdminHandler 后台管理处理器
type AdminHandler struct{}

// NewAdminHandler 创建后台管理处理器
func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// getCurrentUser 获取当前登录用户信息（校验 Cookie 签名，防止篡改越权）
func getCurrentUser(c *gin.Context) (*models.User, error) {
	userID, err := adminauth.GetVerifiedAdminUserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// requireAdmin 校验当前登录用户且必须为管理员
func requireAdmin(c *gin.Context) (*models.User, bool) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return nil, false
	}
	if !currentUser.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
		return nil, false
	}
	return currentUser, true
}

// AdminLoginRequest 管理员登录请求（支持用户名或邮箱）
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"` // 可为用户名或邮箱
	Password string `json:"password" binding:"required"`
}

// AdminLogin 管理员登录（使用 session/cookie 方式）
// @Summary 管理员登录
// @Description 管理员使用用户名和密码登录，登录成功后设置 Cookie。只有状态为 active 的用户可以登录。
// @Tags 后台管理
// @Accept json
// @Produce json
// @Param request body AdminLoginRequest true "登录信息"
// @Success 200 {object} map[string]interface{} "登录成功，返回用户信息"
// @Failure 400 {object} map[string]interface{} "请求参数错误"
// @Failure 401 {object} map[string]interface{} "用户名或密码错误"
// @Failure 403 {object} map[string]interface{} "账号已锁定"
// @Router /admin/login [post]
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误"})
		return
	}

	// 查找用户（支持用户名或邮箱）
	var user models.User
	if err := database.DB.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "用户名或密码错误"})
		return
	}

	// 仅正常用户可登录
	if !user.CanLogin() {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "账号已锁定，请联系管理员解锁"})
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "用户名或密码错误"})
		return
	}

	// 设置 Cookie（admin_user_id、admin_is_admin 使用签名防篡改）
	setSignedAdminCookie(c, "admin_user_id", fmt.Sprintf("%d", user.ID), 86400, true)
	setAdminCookie(c, "admin_username", user.Username, 86400, false)
	setSignedAdminCookie(c, "admin_is_admin", fmt.Sprintf("%t", user.IsAdmin), 86400, false)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "登录成功",
		"data": gin.H{
			"user_id":  user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		},
	})
}

// AdminLogout 管理员登出
// @Summary 管理员登出
// @Description 清除登录 Cookie
// @Tags 后台管理
// @Produce json
// @Success 200 {object} map[string]interface{} "登出成功"
// @Router /admin/logout [post]
func (h *AdminHandler) AdminLogout(c *gin.Context) {
	setAdminCookie(c, "admin_user_id", "", -1, true)
	setAdminCookie(c, "admin_username", "", -1, false)
	setAdminCookie(c, "admin_is_admin", "", -1, false)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "已登出"})
}

// GetAdminProfile 获取当前后台登录用户信息
// @Summary 获取后台当前用户
// @Description 返回当前 Cookie 会话对应的用户信息
// @Tags 后台管理
// @Produce json
// @Success 200 {object} map[string]interface{} "获取成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/profile [get]
func (h *AdminHandler) GetAdminProfile(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_id":  user.ID,
			"username": user.Username,
			"nickname": user.Nickname,
			"email":    user.Email,
			"is_admin": user.IsAdmin,
		},
	})
}

// GetAllExpenses 获取消费记录（管理员看全部，非管理员只看自己的）
// @Summary 获取消费记录列表
// @Description 获取消费记录列表，支持分页、时间范围、类别、用户名筛选。管理员可查看所有记录并可按用户ID筛选，非管理员只能查看自己的记录。
// @Tags 后台管理-消费记录
// @Produce json
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页数量，默认20"
// @Param start_time query string false "开始时间 (YYYY-MM-DD)"
// @Param end_time query string false "结束时间 (YYYY-MM-DD)"
// @Param category query string false "类别筛选"
// @Param username query string false "用户名筛选（模糊匹配）"
// @Param user_id query int false "用户ID筛选（仅管理员可用）"
// @Success 200 {object} map[string]interface{} "获取成功，返回分页数据"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/expenses [get]
func (h *AdminHandler) GetAllExpenses(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}
	if ps := c.Query("page_size"); ps != "" {
		fmt.Sscanf(ps, "%d", &pageSize)
	}

	startTime := c.Query("start_time")
	endTime := c.Query("end_time")
	category := c.Query("category")
	username := c.Query("username")
	userIDFilter := c.Query("user_id") // 管理员可以按用户ID筛选

	query := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.username").
		Joins("LEFT JOIN users ON expenses.user_id = users.id")

	// 权限过滤：非管理员只能看自己的数据
	if !currentUser.IsAdmin {
		query = query.Where("expenses.user_id = ?", currentUser.ID)
	} else if userIDFilter != "" {
		if uid, err := strconv.ParseUint(userIDFilter, 10, 32); err == nil {
			query = query.Where("expenses.user_id = ?", uint(uid))
		}
	}

	if startTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", startTime, time.Local); err == nil {
			query = query.Where("expenses.expense_time >= ?", t)
		}
	}
	if endTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", endTime, time.Local); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			query = query.Where("expenses.expense_time <= ?", t)
		}
	}
	if category != "" {
		query = query.Where("expenses.category = ?", category)
	}
	if username != "" {
		escaped := escapeLikeValue(username)
		query = query.Where("users.username LIKE ?", "%"+escaped+"%")
	}

	var total int64
	query.Count(&total)

	type ExpenseWithUser struct {
		models.Expense
		Username string `json:"username"`
	}

	var expenses []ExpenseWithUser
	offset := (page - 1) * pageSize
	query.Order("expenses.expense_time DESC").Offset(offset).Limit(pageSize).Scan(&expenses)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
			"list":      expenses,
		},
	})
}

// GetAllIncomes 获取收入记录（管理员看全部，非管理员只看自己的）
// @Summary 获取收入记录列表
// @Description 获取收入记录列表，支持分页、日期范围、类型、是否周期性筛选。管理员可查看所有记录并可按用户ID筛选。
// @Tags 后台管理-收入记录
// @Produce json
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页数量，默认20"
// @Param start_date query string false "开始日期 (YYYY-MM-DD)"
// @Param end_date query string false "结束日期 (YYYY-MM-DD)"
// @Param type query string false "收入类型筛选"
// @Param recurring query bool false "仅周期性收入"
// @Param user_id query int false "用户ID筛选（仅管理员可用）"
// @Success 200 {object} map[string]interface{} "获取成功，返回分页数据"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/incomes [get]
func (h *AdminHandler) GetAllIncomes(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}
	if ps := c.Query("page_size"); ps != "" {
		fmt.Sscanf(ps, "%d", &pageSize)
	}

	query := database.DB.Model(&models.Income{}).
		Select("incomes.*, users.username").
		Joins("LEFT JOIN users ON incomes.user_id = users.id")

	if !currentUser.IsAdmin {
		query = query.Where("incomes.user_id = ?", currentUser.ID)
	} else if userIDFilter := c.Query("user_id"); userIDFilter != "" {
		if uid, err := strconv.ParseUint(userIDFilter, 10, 32); err == nil {
			query = query.Where("incomes.user_id = ?", uint(uid))
		}
	}

	if startDate := c.Query("start_date"); startDate != "" {
		if t, err := models.ParseDate(startDate); err == nil {
			query = query.Where("incomes.income_date >= ?", t)
		}
	}
	if endDate := c.Query("end_date"); endDate != "" {
		if t, err := models.ParseDate(endDate); err == nil {
			query = query.Where("incomes.income_date <= ?", t)
		}
	}
	if incomeType := c.Query("type"); incomeType != "" {
		query = query.Where("incomes.type = ?", incomeType)
	}
	if c.Query("recurring") == "true" {
		query = query.Where("incomes.is_recurring = ?", true)
	}

	var total int64
	query.Count(&total)

	type IncomeWithUser struct {
		models.Income
		Username string `json:"username"`
	}

	var incomes []IncomeWithUser
	offset := (page - 1) * pageSize
	query.Order("incomes.income_date DESC").Offset(offset).Limit(pageSize).Scan(&incomes)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
			"list":      incomes,
		},
	})
}

// GetAllUsers 获取所有用户列表
// @Summary 获取用户列表
// @Description 获取系统中所有用户列表
// @Tags 后台管理-用户管理
// @Produce json
// @Success 200 {object} map[string]interface{} "获取成功，返回用户列表"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/users [get]
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	var users []models.User
	database.DB.Find(&users)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
	})
}

// UpdateUserPasswordRequest 更新用户密码请求
type UpdateUserPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// UpdateUserPassword 更新用户密码（仅管理员）
// @Summary 更新用户密码
// @Description 管理员可以修改指定用户的密码
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body UpdateUserPasswordRequest true "新密码"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/password [put]
func (h *AdminHandler) UpdateUserPassword(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req UpdateUserPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "密码加密失败"})
		return
	}

	user.Password = string(hashedPassword)
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "密码更新成功",
	})
}

// DeleteUser 删除用户（仅管理员，软删除）
// @Summary 删除用户
// @Description 管理员可以删除用户（软删除），不能删除自己
// @Tags 后台管理-用户管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 400 {object} map[string]interface{} "不能删除自己"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	currentUser, ok := requireAdmin(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	// 不能删除自己
	if uint(userID) == currentUser.ID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "不能删除自己的账号"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "删除失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "用户删除成功",
	})
}

// SetAdminRequest 设置管理员权限请求
type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// UpdateUserStatusRequest 更新用户状态请求
type UpdateUserStatusRequest struct {
	// Status 用户状态：active（正常）/ locked（锁定）
	Status string `json:"status" binding:"required,oneof=active locked"`
}

// SetAdmin 设置用户管理员权限（仅管理员）
// @Summary 设置管理员权限
// @Description 管理员可以设置或取消其他用户的管理员权限，不能取消自己的管理员权限
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body SetAdminRequest true "管理员权限设置"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "不能取消自己的管理员权限"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/admin [put]
func (h *AdminHandler) SetAdmin(c *gin.Context) {
	currentUser, ok := requireAdmin(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	// 不能取消自己的管理员权限
	if uint(userID) == currentUser.ID && !req.IsAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "不能取消自己的管理员权限"})
		return
	}

	user.IsAdmin = req.IsAdmin
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "权限更新成功",
		"data":    user,
	})
}

// UpdateUserStatus 更新用户状态（仅管理员）
// @Summary 更新用户状态
// @Description 管理员可将用户状态设置为 active 或 locked。只有 active 状态的用户可以登录。
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body UpdateUserStatusRequest true "状态信息"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/status [put]
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	currentUser, ok := requireAdmin(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	// 不能锁定自己，避免自锁导致无法登录后台
	if uint(userID) == currentUser.ID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "不能修改自己的状态"})
		return
	}

	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	status := strings.TrimSpace(req.Status)
	if status != models.UserStatusActive && status != models.UserStatusLocked {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的状态，支持：active/locked"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	user.Status = status
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "状态更新成功",
		"data":    user,
	})
}

// UpdateUserEmailRequest 更新用户邮箱请求
type UpdateUserEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"` // 绑定邮箱时必填，用于验证邮箱可用性
}

// UpdateUserEmail 绑定/修改用户邮箱（仅管理员）
// @Summary 绑定或修改用户邮箱
// @Description 管理员可为用户设置邮箱。绑定新邮箱必须先发送验证码，验证通过后才能绑定。清除邮箱无需验证。
// @Tags 后台管理-用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body UpdateUserEmailRequest true "邮箱地址和验证码"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "参数错误或验证码错误"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "用户不存在"
// @Router /admin/users/{id}/email [put]
func (h *AdminHandler) UpdateUserEmail(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的用户ID"})
		return
	}

	var req UpdateUserEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误"})
		return
	}

	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.Code)

	if email != "" {
		// 绑定邮箱：必须提供验证码
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请先发送验证码并输入收到的验证码"})
			return
		}
		if len(code) != 6 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "验证码格式错误"})
			return
		}
		var verification models.EmailVerification
		if err := database.DB.Where("email = ? AND code = ? AND type = ?",
			email, code, "admin_bind").First(&verification).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "验证码错误"})
			return
		}
		if verification.Used {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "验证码已被使用，请重新获取"})
			return
		}
		if verification.IsExpired() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "验证码已过期，请重新获取"})
			return
		}
		// 检查邮箱是否已被其他用户使用
		var other models.User
		if err := database.DB.Where("email = ? AND id != ?", email, userID).First(&other).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "该邮箱已被其他用户绑定"})
			return
		}
	}

	var user models.User
	if err := database.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "用户不存在"})
		return
	}

	if err := database.DB.Model(&user).Update("email", email).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "更新失败"})
		return
	}

	// 绑定成功后使验证码失效
	if email != "" {
		var verification models.EmailVerification
		if err := database.DB.Where("email = ? AND code = ? AND type = ?", email, code, "admin_bind").First(&verification).Error; err == nil {
			database.DB.Model(&verification).Update("used", true)
		}
	}

	msg := "邮箱已绑定"
	if email == "" {
		msg = "邮箱已清除"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
	})
}

// GetStatistics 获取统计数据
// @Summary 获取统计数据
// @Description 获取支出和收入的统计数据，包括总金额、总记录数、类别统计、周期性收入数量等。管理员可查看所有数据，非管理员只能查看自己的数据。
// @Tags 后台管理-统计
// @Produce json
// @Param start_time query string false "开始时间 (YYYY-MM-DD)"
// @Param end_time query string false "结束时间 (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{} "获取成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/statistics [get]
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	startTime := c.Query("start_time")
	endTime := c.Query("end_time")

	query := database.DB.Model(&models.Expense{})
	incomeQuery := database.DB.Model(&models.Income{})

	// 权限过滤：非管理员只能看自己的数据
	if !currentUser.IsAdmin {
		query = query.Where("user_id = ?", currentUser.ID)
		incomeQuery = incomeQuery.Where("user_id = ?", currentUser.ID)
	}

	if startTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", startTime, time.Local); err == nil {
			query = query.Where("expense_time >= ?", t)
			incomeQuery = incomeQuery.Where("income_date >= ?", t)
		}
	}
	if endTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", endTime, time.Local); err == nil {
			query = query.Where("expense_time <= ?", t.Add(24*time.Hour-time.Second))
			incomeQuery = incomeQuery.Where("income_date <= ?", t)
		}
	}

	// 支出总金额和总记录数
	var totalAmount float64
	var totalCount int64
	query.Select("COALESCE(SUM(amount), 0)").Scan(&totalAmount)
	query.Count(&totalCount)

	// 收入总金额和总记录数
	var totalIncome float64
	var incomeCount int64
	incomeQuery.Select("COALESCE(SUM(amount), 0)").Scan(&totalIncome)
	incomeQuery.Count(&incomeCount)

	// 周期性收入根记录数量
	recurringQuery := database.DB.Model(&models.Income{}).
		Where("is_recurring = ? AND parent_income_id IS NULL", true)
	if !currentUser.IsAdmin {
		recurringQuery = recurringQuery.Where("user_id = ?", currentUser.ID)
	}
	var recurringCount int64
	recurringQuery.Count(&recurringCount)

	// 按类别统计支出
	type CategoryStat struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
		Count    int64   `json:"count"`
	}
	var categoryStats []CategoryStat
	categoryQuery := database.DB.Model(&models.Expense{})
	if !currentUser.IsAdmin {
		categoryQuery = categoryQuery.Where("user_id = ?", currentUser.ID)
	}
	if startTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", startTime, time.Local); err == nil {
			categoryQuery = categoryQuery.Where("expense_time >= ?", t)
		}
	}
	if endTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", endTime, time.Local); err == nil {
			categoryQuery = categoryQuery.Where("expense_time <= ?", t.Add(24*time.Hour-time.Second))
		}
	}
	categoryQuery.
		Select("category, SUM(amount) as total, COUNT(*) as count").
		Group("category").
		Order("total DESC").
		Scan(&categoryStats)

	// 用户数量（仅管理员可见）
	var userCount int64
	if currentUser.IsAdmin {
		database.DB.Model(&models.User{}).Count(&userCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_amount":    totalAmount,
			"total_count":     totalCount,
			"total_income":    totalIncome,
			"income_count":    incomeCount,
			"recurring_count": recurringCount,
			"user_count":      userCount,
			"category_stats":  categoryStats,
		},
	})
}

// ============== 帖子管理 ==============

// AdminListPosts 后台帖子列表
// @Summary 后台帖子列表
// @Description 管理员查看全部帖子（含隐藏），支持按状态筛选
// @Tags 后台管理-社区
// @Produce json
// @Param status query string false "状态筛选 visible/hidden"
// @Success 200 {object} map[string]interface{} "获取成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/posts [get]
func (h *AdminHandler) AdminListPosts(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	query := database.DB.Model(&models.Post{}).
		Select("posts.*, users.username").
		Joins("LEFT JOIN users ON posts.user_id = users.id")
	if status := c.Query("status"); status != "" {
		query = query.Where("posts.status = ?", status)
	}

	type PostWithUser struct {
		models.Post
		Username string `json:"username"`
	}
	var posts []PostWithUser
	query.Order("posts.created_at DESC").Scan(&posts)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": posts})
}

// UpdatePostStatusRequest 帖子状态变更请求
type UpdatePostStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=visible hidden"`
}

// UpdatePostStatus 隐藏/恢复帖子（仅管理员）
// @Summary 隐藏或恢复帖子
// @Description 管理员将帖子设置为 hidden（对其他用户不可见）或 visible
// @Tags 后台管理-社区
// @Accept json
// @Produce json
// @Param id path int true "帖子ID"
// @Param request body UpdatePostStatusRequest true "状态"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "帖子不存在"
// @Router /admin/posts/{id}/status [put]
func (h *AdminHandler) UpdatePostStatus(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}

	var req UpdatePostStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": SafeErrorMessage(err, "参数错误")})
		return
	}

	var post models.Post
	if err := database.DB.First(&post, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "帖子不存在"})
		return
	}

	if err := database.DB.Model(&post).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "更新失败")})
		return
	}

	msg := "帖子已恢复"
	if req.Status == models.PostStatusHidden {
		msg = "帖子已隐藏"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// AdminDeletePost 删除帖子（仅管理员）
// @Summary 删除帖子
// @Description 管理员删除任意帖子（软删除）
// @Tags 后台管理-社区
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Failure 403 {object} map[string]interface{} "权限不足"
// @Failure 404 {object} map[string]interface{} "帖子不存在"
// @Router /admin/posts/{id} [delete]
func (h *AdminHandler) AdminDeletePost(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}

	var post models.Post
	if err := database.DB.First(&post, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "帖子不存在"})
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": SafeErrorMessage(err, "删除失败")})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "删除成功"})
}

// ExportExcel 导出 Excel
// @Summary 导出收支记录为Excel
// @Description 根据时间范围导出消费和收入记录为Excel文件（两个工作表）。管理员可导出所有用户数据，普通用户只能导出自己的数据。
// @Tags 后台管理-导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start_time query string true "开始时间 (YYYY-MM-DD)"
// @Param end_time query string true "结束时间 (YYYY-MM-DD)"
// @Success 200 {file} file "Excel文件"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 401 {object} map[string]interface{} "未登录"
// @Router /admin/export/excel [get]
func (h *AdminHandler) ExportExcel(c *gin.Context) {
	currentUser, err := getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录"})
		return
	}

	startTime := c.Query("start_time")
	endTime := c.Query("end_time")

	if startTime == "" || endTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "请提供开始时间和结束时间"})
		return
	}

	start, err := time.ParseInLocation("2006-01-02", startTime, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "开始时间格式错误"})
		return
	}

	end, err := time.ParseInLocation("2006-01-02", endTime, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "结束时间格式错误"})
		return
	}
	end = end.Add(24*time.Hour - time.Second)

	// 查询消费数据
	type ExpenseWithUser struct {
		models.Expense
		Username string
	}
	var expenses []ExpenseWithUser
	expenseQuery := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.username").
		Joins("LEFT JOIN users ON expenses.user_id = users.id").
		Where("expenses.expense_time >= ? AND expenses.expense_time <= ?", start, end)
	if !currentUser.IsAdmin {
		expenseQuery = expenseQuery.Where("expenses.user_id = ?", currentUser.ID)
	}
	expenseQuery.Order("expenses.expense_time DESC").Scan(&expenses)

	// 查询收入数据
	type IncomeWithUser struct {
		models.Income
		Username string
	}
	var incomes []IncomeWithUser
	incomeQuery := database.DB.Model(&models.Income{}).
		Select("incomes.*, users.username").
		Joins("LEFT JOIN users ON incomes.user_id = users.id").
		Where("incomes.income_date >= ? AND incomes.income_date <= ?", start, end)
	if !currentUser.IsAdmin {
		incomeQuery = incomeQuery.Where("incomes.user_id = ?", currentUser.ID)
	}
	incomeQuery.Order("incomes.income_date DESC").Scan(&incomes)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	// 消费记录表
	expenseSheet := "消费记录"
	f.SetSheetName("Sheet1", expenseSheet)
	f.SetColWidth(expenseSheet, "A", "A", 10)
	f.SetColWidth(expenseSheet, "B", "B", 15)
	f.SetColWidth(expenseSheet, "C", "D", 12)
	f.SetColWidth(expenseSheet, "E", "E", 30)
	f.SetColWidth(expenseSheet, "F", "G", 20)

	expenseHeaders := []string{"ID", "用户名", "金额", "类别", "描述", "消费时间", "创建时间"}
	for i, header := range expenseHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(expenseSheet, cell, header)
		f.SetCellStyle(expenseSheet, cell, cell, headerStyle)
	}

	var totalExpense float64
	for i, expense := range expenses {
		row := i + 2
		f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", row), expense.ID)
		f.SetCellValue(expenseSheet, fmt.Sprintf("B%d", row), expense.Username)
		f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", row), expense.Amount)
		f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", row), expense.Category)
		f.SetCellValue(expenseSheet, fmt.Sprintf("E%d", row), expense.Description)
		f.SetCellValue(expenseSheet, fmt.Sprintf("F%d", row), expense.ExpenseTime.Format("2006-01-02 15:04:05"))
		f.SetCellValue(expenseSheet, fmt.Sprintf("G%d", row), expense.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellStyle(expenseSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)
		totalExpense += expense.Amount
	}

	expSummaryRow := len(expenses) + 2
	f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", expSummaryRow), "合计")
	f.MergeCell(expenseSheet, fmt.Sprintf("A%d", expSummaryRow), fmt.Sprintf("B%d", expSummaryRow))
	f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", expSummaryRow), totalExpense)
	f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", expSummaryRow), fmt.Sprintf("共 %d 条记录", len(expenses)))
	f.MergeCell(expenseSheet, fmt.Sprintf("D%d", expSummaryRow), fmt.Sprintf("G%d", expSummaryRow))
	f.SetCellStyle(expenseSheet, fmt.Sprintf("A%d", expSummaryRow), fmt.Sprintf("G%d", expSummaryRow), summaryStyle)

	// 收入记录表
	incomeSheet := "收入记录"
	f.NewSheet(incomeSheet)
	f.SetColWidth(incomeSheet, "A", "A", 10)
	f.SetColWidth(incomeSheet, "B", "B", 15)
	f.SetColWidth(incomeSheet, "C", "E", 14)
	f.SetColWidth(incomeSheet, "F", "F", 12)
	f.SetColWidth(incomeSheet, "G", "H", 14)

	incomeHeaders := []string{"ID", "用户名", "类型", "标题", "来源", "金额", "收入日期", "重复周期"}
	for i, header := range incomeHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(incomeSheet, cell, header)
		f.SetCellStyle(incomeSheet, cell, cell, headerStyle)
	}

	var totalIncome float64
	for i, income := range incomes {
		row := i + 2
		f.SetCellValue(incomeSheet, fmt.Sprintf("A%d", row), income.ID)
		f.SetCellValue(incomeSheet, fmt.Sprintf("B%d", row), income.Username)
		f.SetCellValue(incomeSheet, fmt.Sprintf("C%d", row), income.Type)
		f.SetCellValue(incomeSheet, fmt.Sprintf("D%d", row), income.Title)
		f.SetCellValue(incomeSheet, fmt.Sprintf("E%d", row), income.Source)
		f.SetCellValue(incomeSheet, fmt.Sprintf("F%d", row), income.Amount)
		f.SetCellValue(incomeSheet, fmt.Sprintf("G%d", row), models.FormatDate(income.IncomeDate))
		f.SetCellValue(incomeSheet, fmt.Sprintf("H%d", row), income.Occurrence)
		f.SetCellStyle(incomeSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("H%d", row), dataStyle)
		totalIncome += income.Amount
	}

	incSummaryRow := len(incomes) + 2
	f.SetCellValue(incomeSheet, fmt.Sprintf("A%d", incSummaryRow), "合计")
	f.MergeCell(incomeSheet, fmt.Sprintf("A%d", incSummaryRow), fmt.Sprintf("E%d", incSummaryRow))
	f.SetCellValue(incomeSheet, fmt.Sprintf("F%d", incSummaryRow), totalIncome)
	f.SetCellValue(incomeSheet, fmt.Sprintf("G%d", incSummaryRow), fmt.Sprintf("共 %d 条记录", len(incomes)))
	f.MergeCell(incomeSheet, fmt.Sprintf("G%d", incSummaryRow), fmt.Sprintf("H%d", incSummaryRow))
	f.SetCellStyle(incomeSheet, fmt.Sprintf("A%d", incSummaryRow), fmt.Sprintf("H%d", incSummaryRow), summaryStyle)

	// 设置响应头
	filename := fmt.Sprintf("收支记录_%s_%s.xlsx", startTime, endTime)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "生成 Excel 失败"})
		return
	}
}
