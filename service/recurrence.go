package service

import (
	"errors"
	"fmt"
	"time"

	"licai/database"
	"licai/models"

	"gorm.io/gorm"
)

// ErrStoreUnavailable 数据存储读写失败
var ErrStoreUnavailable = errors.New("数据存储不可用")

// IncomeStore 收入记录存储抽象。
// 周期引擎、调度器和收入接口都通过它访问持久层，便于在测试中替换实现。
type IncomeStore interface {
	// FindDueRoots 查询所有已到期的周期性根记录
	FindDueRoots(today time.Time) ([]models.Income, error)
	// FindChildByDate 查询某根记录在指定日期的子记录，不存在返回 nil
	FindChildByDate(rootID uint, date time.Time) (*models.Income, error)
	// LatestChild 查询某根记录日期最大的子记录，没有子记录返回 nil
	LatestChild(rootID uint) (*models.Income, error)
	// Insert 插入一条收入记录
	Insert(income *models.Income) error
	// UpdateFields 按 ID 更新指定字段，返回影响行数
	UpdateFields(incomeID uint, fields map[string]interface{}) (int64, error)
	// UpdateCascade 更新根记录并把共享字段传播到日期晚于根的子记录（同一事务）
	UpdateCascade(root *models.Income, fields map[string]interface{}) error
	// DeleteByID 按 (ID, 所有者) 删除记录，返回影响行数
	DeleteByID(incomeID, ownerID uint) (int64, error)
	// DeleteCascade 先删子记录再删根记录（同一事务），返回删除总行数
	DeleteCascade(incomeID, ownerID uint) (int64, error)
	// ListByOwner 查询某用户的全部记录，附带直接子记录数，按日期倒序
	ListByOwner(ownerID uint) ([]models.IncomeWithCount, error)
}

// RecurrenceEngine 周期收入推算引擎：
// 对一条到期的根记录，决定是否需要补齐下一期，并构造新记录。
type RecurrenceEngine struct {
	store IncomeStore
}

// NewRecurrenceEngine 创建周期引擎
func NewRecurrenceEngine(store IncomeStore) *RecurrenceEngine {
	return &RecurrenceEngine{store: store}
}

// PlanNextOccurrence 推算根记录的下一期。
// 推算锚点取链上最新一条子记录的日期（没有子记录时取根记录日期），
// 这样每跑一次补一期，多次调用可把停机期间漏掉的各期逐一补齐。
// 下一期尚未到期、或该日期的子记录已存在（重复触发）时返回 nil。
func (e *RecurrenceEngine) PlanNextOccurrence(root *models.Income, today time.Time) (*models.Income, error) {
	if !root.IsRecurring || root.Occurrence == models.OccurrenceOnce {
		return nil, models.ErrInvalidOccurrence
	}

	anchor := root.IncomeDate
	latest, err := e.store.LatestChild(root.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: 查询最新子记录失败: %v", ErrStoreUnavailable, err)
	}
	if latest != nil {
		anchor = latest.IncomeDate
	}

	nextDate, err := models.NextOccurrenceDate(anchor, root.Occurrence)
	if err != nil {
		return nil, err
	}
	if nextDate.After(models.TruncateDate(today)) {
		// 链已追平，下一期还没到
		return nil, nil
	}

	// 幂等保护：该日期的子记录已存在则什么都不做
	// （并发场景最终靠 (parent_income_id, income_date) 唯一索引兜底）
	existing, err := e.store.FindChildByDate(root.ID, nextDate)
	if err != nil {
		return nil, fmt.Errorf("%w: 查重失败: %v", ErrStoreUnavailable, err)
	}
	if existing != nil {
		return nil, nil
	}

	parentID := root.ID
	return &models.Income{
		UserID:         root.UserID,
		Type:           root.Type,
		Title:          root.Title,
		Source:         root.Source,
		Amount:         root.Amount,
		IncomeDate:     nextDate,
		Occurrence:     root.Occurrence,
		IsRecurring:    true,
		ParentIncomeID: &parentID,
	}, nil
}

// GormIncomeStore 基于 gorm 的 IncomeStore 实现，使用全局 database.DB
type GormIncomeStore struct{}

// NewGormIncomeStore 创建 gorm 存储实现
func NewGormIncomeStore() *GormIncomeStore {
	return &GormIncomeStore{}
}

// FindDueRoots 查询所有已到期的周期性根记录。
// 到期条件按各周期类型换算为日期比较，直接下推到 SQL，避免全表拉取。
func (s *GormIncomeStore) FindDueRoots(today time.Time) ([]models.Income, error) {
	day := models.TruncateDate(today)
	var roots []models.Income
	err := database.DB.Model(&models.Income{}).
		Where("is_recurring = ? AND parent_income_id IS NULL AND occurrence <> ?", true, models.OccurrenceOnce).
		Where(
			// 月/年用最短周期长度（28/365天）做宽松下推过滤，精确到期判断在下面二次确认，
			// 否则月末收缩（如 1月31日 +1月 = 2月29日）会被 SQL 端误排除
			database.DB.
				Where("occurrence = ? AND income_date <= ?", models.OccurrenceDaily, day.AddDate(0, 0, -1)).
				Or("occurrence = ? AND income_date <= ?", models.OccurrenceWeekly, day.AddDate(0, 0, -7)).
				Or("occurrence = ? AND income_date <= ?", models.OccurrenceMonthly, day.AddDate(0, 0, -28)).
				Or("occurrence = ? AND income_date <= ?", models.OccurrenceYearly, day.AddDate(0, 0, -365)),
		).
		Order("id ASC").
		Find(&roots).Error
	if err != nil {
		return nil, err
	}
	due := roots[:0]
	for _, r := range roots {
		if models.OccurrenceDue(r.IncomeDate, r.Occurrence, day) {
			due = append(due, r)
		}
	}
	return due, nil
}

// FindChildByDate 查询某根记录在指定日期的子记录
func (s *GormIncomeStore) FindChildByDate(rootID uint, date time.Time) (*models.Income, error) {
	var child models.Income
	err := database.DB.
		Where("parent_income_id = ? AND income_date = ?", rootID, models.TruncateDate(date)).
		First(&child).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &child, nil
}

// LatestChild 查询某根记录日期最大的子记录
func (s *GormIncomeStore) LatestChild(rootID uint) (*models.Income, error) {
	var child models.Income
	err := database.DB.
		Where("parent_income_id = ?", rootID).
		Order("income_date DESC").
		First(&child).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &child, nil
}

// Insert 插入一条收入记录
func (s *GormIncomeStore) Insert(income *models.Income) error {
	return database.DB.Create(income).Error
}

// UpdateFields 按 ID 更新指定字段
func (s *GormIncomeStore) UpdateFields(incomeID uint, fields map[string]interface{}) (int64, error) {
	res := database.DB.Model(&models.Income{}).Where("id = ?", incomeID).Updates(fields)
	return res.RowsAffected, res.Error
}

// UpdateCascade 更新根记录，并把共享字段（类型/标题/来源/金额/周期）传播到
// 日期严格晚于根记录的子记录。日期和 ID 永不传播；整体在一个事务内完成。
func (s *GormIncomeStore) UpdateCascade(root *models.Income, fields map[string]interface{}) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Income{}).Where("id = ?", root.ID).Updates(fields).Error; err != nil {
			return err
		}
		shared := map[string]interface{}{}
		for _, col := range []string{"type", "title", "source", "amount", "occurrence", "is_recurring"} {
			if v, ok := fields[col]; ok {
				shared[col] = v
			}
		}
		if len(shared) == 0 {
			return nil
		}
		return tx.Model(&models.Income{}).
			Where("parent_income_id = ? AND income_date > ?", root.ID, models.TruncateDate(root.IncomeDate)).
			Updates(shared).Error
	})
}

// DeleteByID 按 (ID, 所有者) 删除单条记录，子记录保留（成为孤儿记录，仍可单独操作）
func (s *GormIncomeStore) DeleteByID(incomeID, ownerID uint) (int64, error) {
	res := database.DB.Where("id = ? AND user_id = ?", incomeID, ownerID).Delete(&models.Income{})
	return res.RowsAffected, res.Error
}

// DeleteCascade 在一个事务中先删除全部子记录再删除根记录
func (s *GormIncomeStore) DeleteCascade(incomeID, ownerID uint) (int64, error) {
	var total int64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		children := tx.Where("parent_income_id = ? AND user_id = ?", incomeID, ownerID).Delete(&models.Income{})
		if children.Error != nil {
			return children.Error
		}
		root := tx.Where("id = ? AND user_id = ?", incomeID, ownerID).Delete(&models.Income{})
		if root.Error != nil {
			return root.Error
		}
		total = children.RowsAffected + root.RowsAffected
		return nil
	})
	return total, err
}

// ListByOwner 查询某用户的全部收入记录，附带直接子记录数，按日期倒序
func (s *GormIncomeStore) ListByOwner(ownerID uint) ([]models.IncomeWithCount, error) {
	var list []models.IncomeWithCount
	err := database.DB.Model(&models.Income{}).
		Select("incomes.*, (SELECT COUNT(*) FROM incomes c WHERE c.parent_income_id = incomes.id) AS recurrence_count").
		Where("incomes.user_id = ?", ownerID).
		Order("incomes.income_date DESC, incomes.id DESC").
		Scan(&list).Error
	return list, err
}
