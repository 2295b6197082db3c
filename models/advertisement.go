package models

import (
	"time"

	"gorm.io/gorm"
)

// Advertisement 广告位模型（后台维护）。
// 只有处于投放时间窗口内且启用的广告才会出现在公开接口。
type Advertisement struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Title     string         `json:"title" gorm:"size:100;not null"`
	ImageURL  string         `json:"image_url" gorm:"size:255;not null"`
	LinkURL   string         `json:"link_url" gorm:"size:255"`
	Sort      int            `json:"sort" gorm:"default:0;index"`
	Enabled   bool           `json:"enabled" gorm:"default:true;index"`
	StartAt   time.Time      `json:"start_at" gorm:"not null"`
	EndAt     time.Time      `json:"end_at" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Advertisement) TableName() string {
	return "advertisements"
}

// IsActive 当前时刻是否在投放窗口内
func (a *Advertisement) IsActive(now time.Time) bool {
	return a.Enabled && !now.Before(a.StartAt) && now.Before(a.EndAt)
}
