package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrInvalidTimeMask 时间区间非法，或时间掩码与区间不一致
var ErrInvalidTimeMask = errors.New("上课时间与时间掩码不一致")

const (
	// DaysPerWeek 一周天数（0=周一 … 6=周日）
	DaysPerWeek = 7
	// SlotsPerDay 每天半小时格数
	SlotsPerDay = 48
)

// TimeInterval 单次上课时间段
type TimeInterval struct {
	Day   int     `json:"day"`   // 0=周一 … 6=周日
	Start float64 `json:"start"` // 开始时刻（小时，0.5 步长）
	Len   float64 `json:"len"`   // 持续时长（小时，0.5 步长）
	Place string  `json:"place"`
}

// End 结束时刻（小时）
func (iv TimeInterval) End() float64 {
	return iv.Start + iv.Len
}

// ── TimeMask ──

// TimeMask 一周 7 天的半小时占用位图。
// 第 d 个元素的第 i 位表示第 d 天第 i 个半小时（第 0 位 = 00:00–00:30）。
type TimeMask [DaysPerWeek]uint64

// ComputeTimeMask 根据上课时间段计算时间掩码，同一天的多个时间段按位或合并。
func ComputeTimeMask(intervals []TimeInterval) (TimeMask, error) {
	var mask TimeMask
	for _, iv := range intervals {
		from, to, err := iv.slotRange()
		if err != nil {
			return TimeMask{}, err
		}
		for slot := from; slot < to; slot++ {
			mask[iv.Day] |= 1 << uint(slot)
		}
	}
	return mask, nil
}

// ValidateTimeMask 校验掩码是否与时间段逐日一致
func ValidateTimeMask(intervals []TimeInterval, mask TimeMask) bool {
	computed, err := ComputeTimeMask(intervals)
	if err != nil {
		return false
	}
	return computed == mask
}

// Overlaps 任意一天存在共同占用的半小时格即视为冲突
func (m TimeMask) Overlaps(other TimeMask) bool {
	for d := 0; d < DaysPerWeek; d++ {
		if m[d]&other[d] != 0 {
			return true
		}
	}
	return false
}

// IsEmpty 无任何时间占用
func (m TimeMask) IsEmpty() bool {
	return m == TimeMask{}
}

// slotRange 将时间段换算为 [from, to) 半小时格区间
func (iv TimeInterval) slotRange() (int, int, error) {
	if iv.Day < 0 || iv.Day >= DaysPerWeek {
		return 0, 0, fmt.Errorf("%w: day=%d 超出范围", ErrInvalidTimeMask, iv.Day)
	}
	if iv.Start < 0 || iv.Len <= 0 {
		return 0, 0, fmt.Errorf("%w: start=%v len=%v", ErrInvalidTimeMask, iv.Start, iv.Len)
	}
	from, to := iv.Start*2, iv.End()*2
	if from != math.Trunc(from) || to != math.Trunc(to) {
		return 0, 0, fmt.Errorf("%w: 时间须为半小时整数倍", ErrInvalidTimeMask)
	}
	if to > SlotsPerDay {
		return 0, 0, fmt.Errorf("%w: 结束时刻超过 24:00", ErrInvalidTimeMask)
	}
	return int(from), int(to), nil
}

// ── GORM Scanner/Valuer ──
//
// PostgreSQL 中存为 BIGINT[]，其他方言存为同格式文本 {1,2,3,4,5,6,7}。

// Scan 将 {a,b,c,d,e,f,g} 文本解析为 TimeMask
func (m *TimeMask) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("TimeMask.Scan: unsupported type %T", src)
	}
	parts := strings.Split(strings.Trim(s, "{}"), ",")
	if len(parts) != DaysPerWeek {
		return fmt.Errorf("TimeMask.Scan: 期望 %d 个元素，实际 %d", DaysPerWeek, len(parts))
	}
	var out TimeMask
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return fmt.Errorf("TimeMask.Scan: invalid element %q: %w", p, err)
		}
		out[i] = n
	}
	*m = out
	return nil
}

// Value 将 TimeMask 序列化为 {a,b,c,d,e,f,g} 文本
func (m TimeMask) Value() (driver.Value, error) {
	parts := make([]string, DaysPerWeek)
	for i, n := range m {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// GormDBDataType 按方言选择列类型
func (TimeMask) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "BIGINT[]"
	}
	return "TEXT"
}

// ── 展示 ──

var dayNames = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayName 星期缩写，越界返回 "?"
func DayName(day int) string {
	if day < 0 || day >= DaysPerWeek {
		return "?"
	}
	return dayNames[day]
}

// ClockLabel 将小时数格式化为 HH:MM
func ClockLabel(hours float64) string {
	minutes := int(math.Round(hours * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatClassTime 生成上课时间展示串，如 "Mon 13:00-14:00, Wed 13:00-14:00"
func FormatClassTime(intervals []TimeInterval) string {
	parts := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		parts = append(parts, fmt.Sprintf("%s %s-%s", DayName(iv.Day), ClockLabel(iv.Start), ClockLabel(iv.End())))
	}
	return strings.Join(parts, ", ")
}
