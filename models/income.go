package models

import (
	"time"
)

// Income 收入记录模型。
// 周期性收入构成一条链：用户创建的原始记录为根（ParentIncomeID 为空），
// 调度器生成的后续记录为子记录，子记录的 ParentIncomeID 始终指向根。
// (parent_income_id, income_date) 唯一索引是防止重复生成的硬约束，
// 应用层的"查重再插入"在并发下只靠它兜底；根记录 parent 为 NULL 不受约束。
type Income struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	Type           string    `json:"type" gorm:"size:50;not null"` // 收入类型（对应收入类别名称）
	Title          string    `json:"title" gorm:"size:100;not null"`
	Source         string    `json:"source" gorm:"size:100"` // 收入来源，可选
	Amount         float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	IncomeDate     time.Time `json:"income_date" gorm:"type:date;not null;uniqueIndex:idx_income_parent_date"`
	Occurrence     string    `json:"occurrence" gorm:"size:20;not null;default:once"`
	IsRecurring    bool      `json:"is_recurring" gorm:"default:false;index"`
	ParentIncomeID *uint     `json:"parent_income_id" gorm:"uniqueIndex:idx_income_parent_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	User           User      `json:"-" gorm:"foreignKey:UserID"`
}

func (Income) TableName() string {
	return "incomes"
}

// IsRoot 是否为原始记录（非调度器生成）
func (i *Income) IsRoot() bool {
	return i.ParentIncomeID == nil
}

// IncomeWithCount 带直接子记录数的收入记录（列表接口返回）
type IncomeWithCount struct {
	Income
	RecurrenceCount int64 `json:"recurrence_count"`
}
