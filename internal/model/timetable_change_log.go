package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 条目变更类型
const (
	ChangeKindAdded   = "added"
	ChangeKindUpdated = "updated"
	ChangeKindRemoved = "removed"
)

// TimetableChangeLog 时间表条目变更记录 — 对应 timetable_change_logs（纯审计日志）
type TimetableChangeLog struct {
	ChangeLogID string    `gorm:"type:uuid;primaryKey"                   json:"change_log_id"`
	TimetableID string    `gorm:"type:uuid;not null;index"               json:"timetable_id"`
	UserID      string    `gorm:"type:varchar(64);not null"              json:"user_id"`
	EntryID     string    `gorm:"type:varchar(64);not null"              json:"entry_id"`
	Kind        string    `gorm:"type:varchar(20);not null"              json:"kind"` // added | updated | removed
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"     json:"created_at"`
}

// TableName 指定表名
func (TimetableChangeLog) TableName() string { return "timetable_change_logs" }

// BeforeCreate 补全主键
func (l *TimetableChangeLog) BeforeCreate(_ *gorm.DB) error {
	if l.ChangeLogID == "" {
		l.ChangeLogID = uuid.NewString()
	}
	return nil
}
