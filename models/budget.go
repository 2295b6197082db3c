package models

import (
	"time"
)

// Budget 预算模型：某用户对某消费类别在某个月份的支出上限。
// Month 使用 YYYY-MM 格式，同一用户同一类别同一月份只允许一条预算。
// 与收入记录同理，这里用硬删除：软删除行会继续占用唯一索引，
// 删除后同月同类别无法重建预算。
type Budget struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_budget_user_cat_month"`
	Category  string    `json:"category" gorm:"size:50;not null;uniqueIndex:idx_budget_user_cat_month"`
	Month     string    `json:"month" gorm:"size:7;not null;uniqueIndex:idx_budget_user_cat_month"` // YYYY-MM
	Amount    float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
}

func (Budget) TableName() string {
	return "budgets"
}

// MonthLayout 预算月份格式
const MonthLayout = "2006-01"

// MonthRange 返回某预算月份的起止时间 [start, end)
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(MonthLayout, month, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}
