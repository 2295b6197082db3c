package api

import (
	"strconv"

	"licai/database"
	"licai/middleware"
	"licai/models"
	"licai/service"

	"github.com/gin-gonic/gin"
)

// IncomeHandler 收入处理器（App端）
type IncomeHandler struct {
	store service.IncomeStore
}

func NewIncomeHandler() *IncomeHandler {
	return &IncomeHandler{store: service.NewGormIncomeStore()}
}

type CreateIncomeRequest struct {
	Type       string  `json:"type" binding:"required" example:"工资"`
	Title      string  `json:"title" binding:"required,min=1,max=100" example:"月薪"`
	Source     string  `json:"source" binding:"omitempty,max=100" example:"某公司"`
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"5000.00"`
	IncomeDate string  `json:"income_date" binding:"required" example:"2024-01-01"`
	Occurrence string  `json:"occurrence" binding:"omitempty" example:"monthly"` // once/daily/weekly/monthly/yearly，默认 once
}

type UpdateIncomeRequest struct {
	Type       string   `json:"type"`
	Title      string   `json:"title" binding:"omitempty,min=1,max=100"`
	Source     *string  `json:"source"`
	Amount     *float64 `json:"amount" binding:"omitempty,gt=0"`
	IncomeDate string   `json:"income_date"`
	Occurrence string   `json:"occurrence"`
	ApplyToAll bool     `json:"apply_to_all"` // 同时更新日期晚于本记录的所有子记录（不传播日期）
}

// Create 创建收入
// @Summary 创建收入
// @Description 创建一条收入记录。occurrence 不为 once 时该记录成为周期收入的根记录，后续各期由系统按周期自动生成。
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	var req CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	incomeDate, err := models.ParseDate(req.IncomeDate)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	occurrence := req.Occurrence
	if occurrence == "" {
		occurrence = models.OccurrenceOnce
	}
	if !models.IsValidOccurrence(occurrence) {
		BadRequest(c, "无效的周期类型，可选: once/daily/weekly/monthly/yearly")
		return
	}

	in := models.Income{
		UserID:      userID,
		Type:        req.Type,
		Title:       req.Title,
		Source:      req.Source,
		Amount:      req.Amount,
		IncomeDate:  incomeDate,
		Occurrence:  occurrence,
		IsRecurring: occurrence != models.OccurrenceOnce,
	}
	if err := h.store.Insert(&in); err != nil {
		InternalError(c, SafeErrorMessage(err, "创建收入失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", in)
}

// List 获取收入列表
// @Summary 获取收入列表
// @Description 获取当前用户的全部收入记录，每条附带直接子记录数（recurrence_count），按收入日期倒序。
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.IncomeWithCount} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	list, err := h.store.ListByOwner(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// Get 获取单条收入
// @Summary 获取单条收入
// @Description 根据ID获取收入详情
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Success 200 {object} Response{data=models.Income} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var in models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&in).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	Success(c, in)
}

// Update 更新收入
// @Summary 更新收入
// @Description 更新指定的收入记录。apply_to_all 为 true 时同时把类型/标题/来源/金额/周期传播到日期晚于本记录的所有子记录（日期和ID不传播），整体为一个事务。
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Param request body UpdateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var in models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&in).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}
	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.IncomeDate != "" {
		d, err := models.ParseDate(req.IncomeDate)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		updates["income_date"] = d
	}
	if req.Occurrence != "" {
		if !models.IsValidOccurrence(req.Occurrence) {
			BadRequest(c, "无效的周期类型，可选: once/daily/weekly/monthly/yearly")
			return
		}
		updates["occurrence"] = req.Occurrence
		updates["is_recurring"] = req.Occurrence != models.OccurrenceOnce
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", in)
		return
	}

	if req.ApplyToAll {
		err = h.store.UpdateCascade(&in, updates)
	} else {
		_, err = h.store.UpdateFields(in.ID, updates)
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&in, in.ID)
	SuccessWithMessage(c, "更新成功", in)
}

// Delete 删除收入
// @Summary 删除收入
// @Description 删除指定的收入记录。cascade=true 时在一个事务内先删除全部子记录再删除本记录；不级联时只删除本记录，子记录保留为独立记录。
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入ID"
// @Param cascade query bool false "是否级联删除子记录" default(false)
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	cascade := c.Query("cascade") == "true"

	var affected int64
	if cascade {
		affected, err = h.store.DeleteCascade(uint(id), userID)
	} else {
		affected, err = h.store.DeleteByID(uint(id), userID)
	}
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	if affected == 0 {
		NotFound(c, "记录不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// GetIncomeCategories 获取收入类别列表
// @Summary 获取收入类别列表
// @Description 获取所有收入类别（后台维护），按排序值升序
// @Tags 收入
// @Produce json
// @Success 200 {object} Response{data=[]models.IncomeCategory} "获取成功"
// @Router /api/v1/income-categories [get]
func (h *IncomeHandler) GetIncomeCategories(c *gin.Context) {
	var list []models.IncomeCategory
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}
