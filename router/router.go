package router

import (
	"net/http"
	"time"

	"licai/adminauth"
	"licai/api"
	"licai/config"
	_ "licai/docs"
	"licai/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// 后台管理 API
	adminHandler := api.NewAdminHandler()
	passwordResetHandler := api.NewPasswordResetHandler(cfg)
	loginLimiter := middleware.LoginRateLimit(10, time.Minute)
	admin := r.Group("/admin")
	{
		admin.POST("/login", loginLimiter, adminHandler.AdminLogin)
		admin.POST("/logout", adminHandler.AdminLogout)

		// 密码重置（无需登录）
		admin.POST("/password/request-reset", passwordResetHandler.RequestPasswordReset)
		admin.GET("/password/verify-token", passwordResetHandler.VerifyResetToken)
		admin.POST("/password/reset", passwordResetHandler.ResetPassword)

		// 需要 Cookie 认证的后台接口
		adminAuth := admin.Group("")
		adminAuth.Use(AdminAuthMiddleware())
		{
			adminAuth.GET("/profile", adminHandler.GetAdminProfile)

			// 收支记录查看
			adminAuth.GET("/expenses", adminHandler.GetAllExpenses)
			adminAuth.GET("/incomes", adminHandler.GetAllIncomes)

			// 类别管理（消费 / 收入两套）
			categoryHandler := api.NewCategoryHandler()
			adminAuth.GET("/expense-categories", categoryHandler.List(api.CategoryKindExpense))
			adminAuth.POST("/expense-categories", categoryHandler.Create(api.CategoryKindExpense))
			adminAuth.PUT("/expense-categories/:id", categoryHandler.Update(api.CategoryKindExpense))
			adminAuth.DELETE("/expense-categories/:id", categoryHandler.Delete(api.CategoryKindExpense))
			adminAuth.GET("/income-categories", categoryHandler.List(api.CategoryKindIncome))
			adminAuth.POST("/income-categories", categoryHandler.Create(api.CategoryKindIncome))
			adminAuth.PUT("/income-categories/:id", categoryHandler.Update(api.CategoryKindIncome))
			adminAuth.DELETE("/income-categories/:id", categoryHandler.Delete(api.CategoryKindIncome))

			// 用户管理
			adminAuth.GET("/users", adminHandler.GetAllUsers)
			adminAuth.PUT("/users/:id/password", adminHandler.UpdateUserPassword)
			adminAuth.PUT("/users/:id/admin", adminHandler.SetAdmin)
			adminAuth.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			adminAuth.PUT("/users/:id/email", adminHandler.UpdateUserEmail)
			adminAuth.DELETE("/users/:id", adminHandler.DeleteUser)

			// 统计
			adminAuth.GET("/statistics", adminHandler.GetStatistics)
			adminAuth.GET("/statistics/summary", adminHandler.AdminIncomeExpenseSummary)

			// 帖子审核
			adminAuth.GET("/posts", adminHandler.AdminListPosts)
			adminAuth.PUT("/posts/:id/status", adminHandler.UpdatePostStatus)
			adminAuth.DELETE("/posts/:id", adminHandler.AdminDeletePost)

			// 广告位管理
			adHandler := api.NewAdvertisementHandler()
			adminAuth.GET("/ads", adHandler.AdminList)
			adminAuth.POST("/ads", adHandler.AdminCreate)
			adminAuth.PUT("/ads/:id", adHandler.AdminUpdate)
			adminAuth.DELETE("/ads/:id", adHandler.AdminDelete)

			// 导出
			adminAuth.GET("/export/excel", adminHandler.ExportExcel)

			// 管理员密码重置功能
			adminAuth.POST("/password/admin-reset", passwordResetHandler.AdminResetPassword)
			adminAuth.POST("/password/send-reset-email", passwordResetHandler.SendPasswordResetEmail)
			adminAuth.GET("/email-config", passwordResetHandler.GetEmailConfig)
		}
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组（供安卓 App 使用）
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", loginLimiter, authHandler.Login)

			// 邮箱验证相关
			auth.POST("/send-code", authHandler.SendVerificationCode)
			auth.POST("/verify-code", authHandler.VerifyEmailCode)
			auth.POST("/register-verified", authHandler.RegisterWithVerification)

			// App 端密码重置
			auth.POST("/password/request-reset", authHandler.AppRequestPasswordReset)
			auth.POST("/password/verify-code", authHandler.AppVerifyResetCode)
			auth.POST("/password/reset", authHandler.AppResetPassword)
		}

		// 类别列表（无需登录）
		expenseHandler := api.NewExpenseHandler()
		incomeHandler := api.NewIncomeHandler()
		v1.GET("/categories", expenseHandler.GetCategories)
		v1.GET("/income-categories", incomeHandler.GetIncomeCategories)

		// 广告位（无需登录）
		adHandler := api.NewAdvertisementHandler()
		v1.GET("/ads", adHandler.ListActive)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/profile", authHandler.UpdateProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// 消费记录相关
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/statistics", expenseHandler.GetStatistics)
				expenses.GET("/detailed-statistics", expenseHandler.GetDetailedStatistics)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
			}

			// 收入记录相关（含周期性收入）
			incomes := authorized.Group("/incomes")
			{
				incomes.POST("", incomeHandler.Create)
				incomes.GET("", incomeHandler.List)
				incomes.GET("/:id", incomeHandler.Get)
				incomes.PUT("/:id", incomeHandler.Update)
				incomes.DELETE("/:id", incomeHandler.Delete)
			}

			// 收支汇总
			authorized.GET("/summary", expenseHandler.GetIncomeExpenseSummary)

			// 预算管理
			budgetHandler := api.NewBudgetHandler()
			budgets := authorized.Group("/budgets")
			{
				budgets.POST("", budgetHandler.Create)
				budgets.GET("", budgetHandler.List)
				budgets.GET("/status", budgetHandler.Status)
				budgets.PUT("/:id", budgetHandler.Update)
				budgets.DELETE("/:id", budgetHandler.Delete)
			}

			// 社区帖子
			postHandler := api.NewPostHandler()
			posts := authorized.Group("/posts")
			{
				posts.POST("", postHandler.Create)
				posts.GET("", postHandler.ListFeed)
				posts.GET("/mine", postHandler.ListMine)
				posts.GET("/:id", postHandler.Get)
				posts.DELETE("/:id", postHandler.Delete)
			}

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AdminAuthMiddleware 后台管理 Cookie 认证中间件，校验签名防止伪造
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := adminauth.GetVerifiedAdminUserID(c); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "请先登录",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
