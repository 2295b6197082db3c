package api

import (
	"strconv"

	"licai/database"
	"licai/middleware"
	"licai/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 预算处理器
type BudgetHandler struct{}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// CreateBudgetRequest 创建预算请求
type CreateBudgetRequest struct {
	Category string  `json:"category" binding:"required,max=50" example:"餐饮"`
	Month    string  `json:"month" binding:"required" example:"2024-01"`
	Amount   float64 `json:"amount" binding:"required,gt=0" example:"1500"`
}

// UpdateBudgetRequest 更新预算请求（仅金额可改）
type UpdateBudgetRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0" example:"2000"`
}

// BudgetStatus 单个类别的预算执行情况
type BudgetStatus struct {
	ID        uint    `json:"id"`
	Category  string  `json:"category"`
	Month     string  `json:"month"`
	Amount    float64 `json:"amount"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	UsagePct  float64 `json:"usage_pct"` // 已用百分比，保留两位
	Exceeded  bool    `json:"exceeded"`
}

// Create 创建预算
// @Summary 创建预算
// @Description 为指定类别创建某个月份的预算，同一类别同一月份只允许一条
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "创建成功"
// @Failure 400 {object} Response "请求参数错误或预算已存在"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if _, _, err := models.MonthRange(req.Month); err != nil {
		BadRequest(c, "月份格式错误，应为: 2024-01")
		return
	}

	// 类别必须已在后台维护
	var cat models.ExpenseCategory
	if err := database.DB.Where("name = ?", req.Category).First(&cat).Error; err != nil {
		BadRequest(c, "无效的消费类别，请先在后台维护类别")
		return
	}

	// 同用户同类别同月份唯一
	var existing models.Budget
	if err := database.DB.Where("user_id = ? AND category = ? AND month = ?",
		userID, req.Category, req.Month).First(&existing).Error; err == nil {
		BadRequest(c, "该类别本月预算已存在，请直接修改")
		return
	}

	budget := models.Budget{
		UserID:   userID,
		Category: req.Category,
		Month:    req.Month,
		Amount:   req.Amount,
	}
	if err := database.DB.Create(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建预算失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", budget)
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 获取当前用户的预算列表，可按月份筛选
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份筛选 (2024-01)"
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Where("user_id = ?", userID)
	if month := c.Query("month"); month != "" {
		if _, _, err := models.MonthRange(month); err != nil {
			BadRequest(c, "月份格式错误，应为: 2024-01")
			return
		}
		query = query.Where("month = ?", month)
	}

	var budgets []models.Budget
	if err := query.Order("month DESC, category ASC").Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, budgets)
}

// Update 更新预算金额
// @Summary 更新预算金额
// @Description 修改指定预算的金额
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body UpdateBudgetRequest true "预算金额"
// @Success 200 {object} Response{data=models.Budget} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if err := database.DB.Model(&budget).Update("amount", req.Amount).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	database.DB.First(&budget, budget.ID)
	SuccessWithMessage(c, "更新成功", budget)
}

// Delete 删除预算
// @Summary 删除预算
// @Description 删除指定的预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	if err := database.DB.Delete(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// Status 获取预算执行情况
// @Summary 获取预算执行情况
// @Description 按月份返回每个预算类别的已用金额、剩余金额和使用百分比
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query string true "月份 (2024-01)"
// @Success 200 {object} Response{data=[]BudgetStatus} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets/status [get]
func (h *BudgetHandler) Status(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	month := c.Query("month")
	start, end, err := models.MonthRange(month)
	if err != nil {
		BadRequest(c, "月份格式错误，应为: 2024-01")
		return
	}

	var budgets []models.Budget
	if err := database.DB.Where("user_id = ? AND month = ?", userID, month).
		Order("category ASC").Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	hundred := decimal.NewFromInt(100)
	for _, b := range budgets {
		var spent float64
		database.DB.Model(&models.Expense{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ? AND category = ? AND expense_time >= ? AND expense_time < ?",
				userID, b.Category, start, end).
			Scan(&spent)

		// 金额比较和百分比用 decimal，避免浮点误差
		amountDec := decimal.NewFromFloat(b.Amount)
		spentDec := decimal.NewFromFloat(spent)
		remaining := amountDec.Sub(spentDec)

		var usage float64
		if amountDec.IsPositive() {
			usage, _ = spentDec.Div(amountDec).Mul(hundred).Round(2).Float64()
		}

		remainingF, _ := remaining.Float64()
		statuses = append(statuses, BudgetStatus{
			ID:        b.ID,
			Category:  b.Category,
			Month:     b.Month,
			Amount:    b.Amount,
			Spent:     spent,
			Remaining: remainingF,
			UsagePct:  usage,
			Exceeded:  spentDec.GreaterThan(amountDec),
		})
	}

	Success(c, statuses)
}
