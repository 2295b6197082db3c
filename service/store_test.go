package service

import (
	"testing"
	"time"

	"licai/database"
	"licai/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

var incomeColumns = []string{
	"id", "user_id", "type", "title", "source", "amount", "income_date",
	"occurrence", "is_recurring", "parent_income_id", "created_at", "updated_at",
}

func TestGormIncomeStore_FindChildByDate_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `incomes`").
		WillReturnRows(sqlmock.NewRows(incomeColumns))

	store := NewGormIncomeStore()
	child, err := store.FindChildByDate(1, mustParse("2024-02-01"))
	require.NoError(t, err)
	assert.Nil(t, child)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormIncomeStore_LatestChild(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `incomes`").
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows(incomeColumns).
			AddRow(3, 1, "工资", "月薪", "", 5000.0, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), "monthly", true, 1, now, now))

	store := NewGormIncomeStore()
	child, err := store.LatestChild(1)
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "2024-03-01", models.FormatDate(child.IncomeDate))
	require.NoError(t, mock.ExpectationsWereMet())
}

// 传播更新只命中日期严格晚于根记录的子记录：
// WHERE 条件必须带 income_date > 根日期，早于根的子记录（录入异常数据）不被改写
func TestGormIncomeStore_UpdateCascade_OnlyFutureChildren(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	rootDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	root := &models.Income{
		ID:          1,
		UserID:      1,
		Type:        "工资",
		Title:       "月薪",
		Amount:      5000,
		IncomeDate:  rootDate,
		Occurrence:  models.OccurrenceMonthly,
		IsRecurring: true,
	}

	mock.ExpectBegin()
	// 先更新根记录本身
	mock.ExpectExec("UPDATE `incomes` SET .+ WHERE id = \\?").
		WithArgs(6000.0, sqlmock.AnyArg(), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 再传播到子记录，边界参数为根记录日期，比较为严格大于
	mock.ExpectExec("UPDATE `incomes` SET .+ WHERE parent_income_id = \\? AND income_date > \\?").
		WithArgs(6000.0, sqlmock.AnyArg(), uint(1), rootDate).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewGormIncomeStore()
	err := store.UpdateCascade(root, map[string]interface{}{"amount": 6000.0})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 端到端：创建根记录后跑一轮调度，正好补出一期
func TestScheduler_EndToEnd(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	rootDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	// FindDueRoots：一条到期的月周期根记录
	mock.ExpectQuery("SELECT .* FROM `incomes`").
		WillReturnRows(sqlmock.NewRows(incomeColumns).
			AddRow(1, 1, "工资", "月薪", "某公司", 5000.0, rootDate, "monthly", true, nil, now, now))

	// LatestChild：还没有子记录
	mock.ExpectQuery("SELECT .* FROM `incomes`").
		WillReturnRows(sqlmock.NewRows(incomeColumns))

	// FindChildByDate(2024-02-01)：不存在
	mock.ExpectQuery("SELECT .* FROM `incomes`").
		WillReturnRows(sqlmock.NewRows(incomeColumns))

	// Insert 新的一期
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `incomes`").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	// 补完一期后链已追平：LatestChild 返回 2024-02-01，下一期 2024-03-01 未到
	mock.ExpectQuery("SELECT .* FROM `incomes`").
		WillReturnRows(sqlmock.NewRows(incomeColumns).
			AddRow(2, 1, "工资", "月薪", "某公司", 5000.0, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), "monthly", true, 1, now, now))

	sched := NewIncomeScheduler(NewGormIncomeStore(), time.Hour)
	created := sched.RunPass(time.Date(2024, 2, 5, 0, 0, 0, 0, time.Local))
	assert.Equal(t, 1, created)
	require.NoError(t, mock.ExpectationsWereMet())
}
