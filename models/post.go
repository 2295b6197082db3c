package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// PostStatusVisible 正常展示
	PostStatusVisible = "visible"
	// PostStatusHidden 被管理员隐藏（仅作者和管理员可见）
	PostStatusHidden = "hidden"
)

// Post 社区帖子模型
type Post struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Title     string         `json:"title" gorm:"size:100;not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Status    string         `json:"status" gorm:"size:20;default:visible;index"` // visible/hidden
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

func (Post) TableName() string {
	return "posts"
}
