package api

import (
	"strconv"

	"licai/database"
	"licai/middleware"
	"licai/models"

	"github.com/gin-gonic/gin"
)

// PostHandler 社区帖子处理器
type PostHandler struct{}

// NewPostHandler 创建帖子处理器
func NewPostHandler() *PostHandler {
	return &PostHandler{}
}

// CreatePostRequest 发帖请求
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=100" example:"记账一年的心得"`
	Content string `json:"content" binding:"required,min=1" example:"坚持记账之后……"`
}

// PostListRequest 帖子列表请求
type PostListRequest struct {
	Page     int `form:"page" example:"1"`
	PageSize int `form:"page_size" example:"10"`
}

// Create 发布帖子
// @Summary 发布帖子
// @Description 发布一篇社区帖子
// @Tags 社区
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePostRequest true "帖子内容"
// @Success 200 {object} Response{data=models.Post} "发布成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	post := models.Post{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Status:  models.PostStatusVisible,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "发布失败"))
		return
	}

	SuccessWithMessage(c, "发布成功", post)
}

// ListFeed 公共帖子流
// @Summary 公共帖子流
// @Description 分页获取所有可见帖子，按发布时间倒序
// @Tags 社区
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} Response{data=PageResponse{list=[]models.Post}} "获取成功"
// @Router /api/v1/posts/feed [get]
func (h *PostHandler) ListFeed(c *gin.Context) {
	var req PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Post{}).Where("status = ?", models.PostStatusVisible)

	var total int64
	query.Count(&total)

	var posts []models.Post
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&posts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     posts,
	})
}

// ListMine 我的帖子
// @Summary 我的帖子
// @Description 获取当前用户自己的帖子（包含被隐藏的）
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Post} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/posts/mine [get]
func (h *PostHandler) ListMine(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var posts []models.Post
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&posts).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, posts)
}

// Get 获取帖子详情
// @Summary 获取帖子详情
// @Description 获取单篇帖子。被隐藏的帖子仅作者本人可见。
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Success 200 {object} Response{data=models.Post} "获取成功"
// @Failure 404 {object} Response "帖子不存在"
// @Router /api/v1/posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, uint(id)).Error; err != nil {
		NotFound(c, "帖子不存在")
		return
	}

	// 隐藏的帖子对其他用户不可见
	if post.Status == models.PostStatusHidden && post.UserID != userID {
		NotFound(c, "帖子不存在")
		return
	}

	Success(c, post)
}

// Delete 删除自己的帖子
// @Summary 删除帖子
// @Description 删除当前用户自己的帖子
// @Tags 社区
// @Produce json
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "帖子不存在"
// @Router /api/v1/posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var post models.Post
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&post).Error; err != nil {
		NotFound(c, "帖子不存在")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
