package models

import (
	"errors"
	"time"
)

// 周期类型常量
const (
	OccurrenceOnce    = "once"    // 单次
	OccurrenceDaily   = "daily"   // 每日
	OccurrenceWeekly  = "weekly"  // 每周
	OccurrenceMonthly = "monthly" // 每月
	OccurrenceYearly  = "yearly"  // 每年
)

// DateLayout 日期的规范格式，所有日期比较和存储均使用该格式，避免时区漂移
const DateLayout = "2006-01-02"

// ErrInvalidOccurrence 周期类型非法（once 或未知类型不参与推算）
var ErrInvalidOccurrence = errors.New("无效的周期类型")

// GetOccurrences 获取所有周期类型
func GetOccurrences() []string {
	return []string{
		OccurrenceOnce,
		OccurrenceDaily,
		OccurrenceWeekly,
		OccurrenceMonthly,
		OccurrenceYearly,
	}
}

// IsValidOccurrence 判断是否为已知周期类型
func IsValidOccurrence(kind string) bool {
	switch kind {
	case OccurrenceOnce, OccurrenceDaily, OccurrenceWeekly, OccurrenceMonthly, OccurrenceYearly:
		return true
	}
	return false
}

// NextOccurrenceDate 在 base 上前进一个周期。
// monthly 保持"几号"语义，目标月份天数不足时收缩到月末（1月31日 +1月 = 2月28/29日）；
// yearly 同理处理闰年 2月29日。once 和未知类型返回 ErrInvalidOccurrence。
func NextOccurrenceDate(base time.Time, kind string) (time.Time, error) {
	base = TruncateDate(base)
	switch kind {
	case OccurrenceDaily:
		return base.AddDate(0, 0, 1), nil
	case OccurrenceWeekly:
		return base.AddDate(0, 0, 7), nil
	case OccurrenceMonthly:
		return addMonthsClipped(base, 1), nil
	case OccurrenceYearly:
		return addMonthsClipped(base, 12), nil
	default:
		return time.Time{}, ErrInvalidOccurrence
	}
}

// OccurrenceDue 判断 base 的下一个周期日是否已到（<= today）
func OccurrenceDue(base time.Time, kind string, today time.Time) bool {
	next, err := NextOccurrenceDate(base, kind)
	if err != nil {
		return false
	}
	return !next.After(TruncateDate(today))
}

// addMonthsClipped 加 n 个自然月，日期超出目标月份时收缩到目标月最后一天。
// 不能直接用 time.AddDate：它会把 1月31日 +1月 归一化成 3月2/3日。
func addMonthsClipped(base time.Time, months int) time.Time {
	year, month, day := base.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, base.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, base.Location())
}

// daysIn 返回某年某月的天数
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// TruncateDate 去掉时分秒，只保留日期部分
func TruncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate 格式化为规范日期字符串 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate 解析规范日期字符串 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
