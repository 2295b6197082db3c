package database

import (
	"fmt"
	"log"

	"licai/config"
	"licai/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	// 构建 MySQL DSN 连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)  // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100) // 最大打开连接数

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.Income{},
		&models.ExpenseCategory{},
		&models.IncomeCategory{},
		&models.Budget{},
		&models.Post{},
		&models.Advertisement{},
		&models.PasswordReset{},
		&models.EmailVerification{},
	); err != nil {
		return err
	}

	// 兼容历史数据：老版本没有 status 字段，默认设置为 active，避免升级后无法登录
	_ = DB.Model(&models.User{}).
		Where("status IS NULL OR status = ''").
		Update("status", models.UserStatusActive).Error

	// 初始化默认消费类别（仅当表为空时）
	var catCount int64
	DB.Model(&models.ExpenseCategory{}).Count(&catCount)
	if catCount == 0 {
		defaultCats := []struct {
			Name  string
			Sort  int
			Color string
		}{
			{"餐饮", 10, "#ef4444"},
			{"交通", 20, "#3b82f6"},
			{"购物", 30, "#a855f7"},
			{"娱乐", 40, "#ec4899"},
			{"医疗", 50, "#10b981"},
			{"教育", 60, "#f59e0b"},
			{"住房", 70, "#14b8a6"},
			{"其他", 80, "#64748b"},
		}
		var cats []models.ExpenseCategory
		for _, item := range defaultCats {
			cats = append(cats, models.ExpenseCategory{
				Name:  item.Name,
				Sort:  item.Sort,
				Color: item.Color,
			})
		}
		if len(cats) > 0 {
			_ = DB.Create(&cats).Error
		}
	}

	// 初始化默认收入类别（仅当表为空时）
	var incomeCatCount int64
	DB.Model(&models.IncomeCategory{}).Count(&incomeCatCount)
	if incomeCatCount == 0 {
		defaultIncomeCats := []struct {
			Name  string
			Sort  int
			Color string
		}{
			{"工资", 10, "#10b981"},
			{"奖金", 20, "#3b82f6"},
			{"理财", 30, "#a855f7"},
			{"兼职", 40, "#f59e0b"},
			{"其他", 50, "#64748b"},
		}
		var incomeCats []models.IncomeCategory
		for _, item := range defaultIncomeCats {
			incomeCats = append(incomeCats, models.IncomeCategory{
				Name:  item.Name,
				Sort:  item.Sort,
				Color: item.Color,
			})
		}
		if len(incomeCats) > 0 {
			_ = DB.Create(&incomeCats).Error
		}
	}

	log.Println("数据库初始化成功")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
