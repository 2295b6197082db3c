package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"licai/database"
	"licai/middleware"
	"licai/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// parseExportRange 解析导出时间范围参数，endTime 含当天
func parseExportRange(c *gin.Context) (time.Time, time.Time, string, string, bool) {
	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")

	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return time.Time{}, time.Time{}, "", "", false
	}

	startTime, err := time.ParseInLocation("2006-01-02", startTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, "", "", false
	}

	endTime, err := time.ParseInLocation("2006-01-02", endTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return time.Time{}, time.Time{}, "", "", false
	}
	endTime = endTime.Add(24*time.Hour - time.Second)

	return startTime, endTime, startTimeStr, endTimeStr, true
}

// ExportCSV 导出记录为 CSV
// @Summary 导出记录为 CSV
// @Description 根据时间范围导出消费或收入记录为 CSV 文件。type=expense（默认）导出消费记录，type=income 导出收入记录。
// @Tags 导出
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Param type query string false "记录类型 expense/income，默认 expense"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startTime, endTime, startTimeStr, endTimeStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	kind := c.DefaultQuery("type", "expense")
	if kind != "expense" && kind != "income" {
		BadRequest(c, "type参数值错误，可选值：expense、income")
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	if kind == "income" {
		var incomes []models.Income
		if err := database.DB.Where("user_id = ? AND income_date >= ? AND income_date <= ?", userID, startTime, endTime).
			Order("income_date DESC").
			Find(&incomes).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "查询数据失败"))
			return
		}

		headers := []string{"ID", "类型", "标题", "来源", "金额", "收入日期", "重复周期"}
		if err := writer.Write(headers); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
		for _, income := range incomes {
			row := []string{
				fmt.Sprintf("%d", income.ID),
				income.Type,
				income.Title,
				income.Source,
				fmt.Sprintf("%.2f", income.Amount),
				models.FormatDate(income.IncomeDate),
				income.Occurrence,
			}
			if err := writer.Write(row); err != nil {
				InternalError(c, "生成 CSV 失败")
				return
			}
		}
	} else {
		var expenses []models.Expense
		if err := database.DB.Where("user_id = ? AND expense_time >= ? AND expense_time <= ?", userID, startTime, endTime).
			Order("expense_time DESC").
			Find(&expenses).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "查询数据失败"))
			return
		}

		headers := []string{"ID", "金额", "类别", "描述", "消费时间", "创建时间"}
		if err := writer.Write(headers); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
		for _, expense := range expenses {
			row := []string{
				fmt.Sprintf("%d", expense.ID),
				fmt.Sprintf("%.2f", expense.Amount),
				expense.Category,
				expense.Description,
				expense.ExpenseTime.Format("2006-01-02 15:04:05"),
				expense.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			if err := writer.Write(row); err != nil {
				InternalError(c, "生成 CSV 失败")
				return
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	// 设置响应头
	filename := fmt.Sprintf("%ss_%s_%s.csv", kind, startTimeStr, endTimeStr)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出记录为 JSON
// @Summary 导出记录为 JSON
// @Description 根据时间范围导出消费和收入记录为 JSON 格式，并带汇总信息
// @Tags 导出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startTime, endTime, startTimeStr, endTimeStr, ok := parseExportRange(c)
	if !ok {
		return
	}

	var expenses []models.Expense
	if err := database.DB.Where("user_id = ? AND expense_time >= ? AND expense_time <= ?", userID, startTime, endTime).
		Order("expense_time DESC").
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	var incomes []models.Income
	if err := database.DB.Where("user_id = ? AND income_date >= ? AND income_date <= ?", userID, startTime, endTime).
		Order("income_date DESC").
		Find(&incomes).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	// 汇总用 decimal 累加
	totalExpense := decimal.Zero
	for _, expense := range expenses {
		totalExpense = totalExpense.Add(decimal.NewFromFloat(expense.Amount))
	}
	totalIncome := decimal.Zero
	for _, income := range incomes {
		totalIncome = totalIncome.Add(decimal.NewFromFloat(income.Amount))
	}

	totalExpenseF, _ := totalExpense.Float64()
	totalIncomeF, _ := totalIncome.Float64()

	Success(c, gin.H{
		"start_time":    startTimeStr,
		"end_time":      endTimeStr,
		"expense_count": len(expenses),
		"income_count":  len(incomes),
		"total_expense": totalExpenseF,
		"total_income":  totalIncomeF,
		"expenses":      expenses,
		"incomes":       incomes,
	})
}
