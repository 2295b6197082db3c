package api

import (
	"net/http"
	"strconv"
	"time"

	"licai/database"
	"licai/models"

	"github.com/gin-gonic/gin"
)

// AdvertisementHandler 广告位处理器：公开接口返回投放中的广告，后台接口维护广告位
type AdvertisementHandler struct{}

// NewAdvertisementHandler 创建广告位处理器
func NewAdvertisementHandler() *AdvertisementHandler {
	return &AdvertisementHandler{}
}

// AdRequest 创建/更新广告位请求
type AdRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=100" example:"新春理财节"`
	ImageURL string `json:"image_url" binding:"required,max=255" example:"https://cdn.example.com/ad.png"`
	LinkURL  string `json:"link_url" binding:"omitempty,max=255" example:"https://example.com/campaign"`
	Sort     int    `json:"sort" example:"10"`
	Enabled  *bool  `json:"enabled"`
	StartAt  string `json:"start_at" binding:"required" example:"2024-01-01 00:00:00"`
	EndAt    string `json:"end_at" binding:"required" example:"2024-02-01 00:00:00"`
}

const adTimeLayout = "2006-01-02 15:04:05"

func (r *AdRequest) parseWindow() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(adTimeLayout, r.StartAt, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(adTimeLayout, r.EndAt, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ListActive 获取投放中的广告
// @Summary 获取投放中的广告
// @Description 公开接口，返回当前处于投放窗口内且启用的广告，按排序值升序
// @Tags 广告
// @Produce json
// @Success 200 {object} Response{data=[]models.Advertisement} "获取成功"
// @Router /api/v1/ads [get]
func (h *AdvertisementHandler) ListActive(c *gin.Context) {
	now := time.Now()
	var ads []models.Advertisement
	if err := database.DB.
		Where("enabled = ? AND start_at <= ? AND end_at > ?", true, now, now).
		Order("sort ASC, id ASC").Find(&ads).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, ads)
}

// AdminList 后台广告列表
// @Summary 后台广告列表
// @Description 返回全部广告位（含未启用和过期的）
// @Tags 后台管理-广告
// @Produce json
// @Success 200 {object} map[string]interface{} "获取成功"
// @Router /admin/ads [get]
func (h *AdvertisementHandler) AdminList(c *gin.Context) {
	var ads []models.Advertisement
	if err := database.DB.Order("sort ASC, id ASC").Find(&ads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ads})
}

// AdminCreate 创建广告位
// @Summary 创建广告位
// @Description 创建新的广告位并设置投放窗口
// @Tags 后台管理-广告
// @Accept json
// @Produce json
// @Param request body AdRequest true "广告信息"
// @Success 200 {object} map[string]interface{} "创建成功"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Router /admin/ads [post]
func (h *AdvertisementHandler) AdminCreate(c *gin.Context) {
	var req AdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误: " + err.Error()})
		return
	}

	start, end, err := req.parseWindow()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "时间格式错误，应为: 2006-01-02 15:04:05"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "结束时间必须晚于开始时间"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	ad := models.Advertisement{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Sort:     req.Sort,
		Enabled:  enabled,
		StartAt:  start,
		EndAt:    end,
	}
	if err := database.DB.Create(&ad).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "创建失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "创建成功", "data": ad})
}

// AdminUpdate 更新广告位
// @Summary 更新广告位
// @Description 更新广告位信息和投放窗口
// @Tags 后台管理-广告
// @Accept json
// @Produce json
// @Param id path int true "广告ID"
// @Param request body AdRequest true "广告信息"
// @Success 200 {object} map[string]interface{} "更新成功"
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 404 {object} map[string]interface{} "广告不存在"
// @Router /admin/ads/{id} [put]
func (h *AdvertisementHandler) AdminUpdate(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}

	var ad models.Advertisement
	if err := database.DB.First(&ad, uint(id64)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "广告不存在"})
		return
	}

	var req AdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "参数错误: " + err.Error()})
		return
	}

	start, end, err := req.parseWindow()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "时间格式错误，应为: 2006-01-02 15:04:05"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "结束时间必须晚于开始时间"})
		return
	}

	updates := map[string]interface{}{
		"title":     req.Title,
		"image_url": req.ImageURL,
		"link_url":  req.LinkURL,
		"sort":      req.Sort,
		"start_at":  start,
		"end_at":    end,
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}

	if err := database.DB.Model(&ad).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "更新失败: " + err.Error()})
		return
	}
	database.DB.First(&ad, ad.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "更新成功", "data": ad})
}

// AdminDelete 删除广告位
// @Summary 删除广告位
// @Description 软删除指定的广告位
// @Tags 后台管理-广告
// @Produce json
// @Param id path int true "广告ID"
// @Success 200 {object} map[string]interface{} "删除成功"
// @Failure 404 {object} map[string]interface{} "广告不存在"
// @Router /admin/ads/{id} [delete]
func (h *AdvertisementHandler) AdminDelete(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的ID"})
		return
	}
	var ad models.Advertisement
	if err := database.DB.First(&ad, uint(id64)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "广告不存在"})
		return
	}
	if err := database.DB.Delete(&ad).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "删除失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "删除成功"})
}
