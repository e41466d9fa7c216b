package repository

import (
	"context"

	"gorm.io/gorm"

	"course-planner/internal/model"
)

// TimetableChangeLogRepository 时间表变更日志数据访问接口
type TimetableChangeLogRepository interface {
	Create(ctx context.Context, log *model.TimetableChangeLog) error
	ListByTimetable(ctx context.Context, timetableID string, offset, limit int) ([]model.TimetableChangeLog, int64, error)
}

type timetableChangeLogRepo struct {
	db *gorm.DB
}

// NewTimetableChangeLogRepo 创建 TimetableChangeLogRepository 实例
func NewTimetableChangeLogRepo(db *gorm.DB) TimetableChangeLogRepository {
	return &timetableChangeLogRepo{db: db}
}

func (r *timetableChangeLogRepo) Create(ctx context.Context, log *model.TimetableChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *timetableChangeLogRepo) ListByTimetable(ctx context.Context, timetableID string, offset, limit int) ([]model.TimetableChangeLog, int64, error) {
	var logs []model.TimetableChangeLog
	var total int64

	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&model.TimetableChangeLog{}).
			Where("timetable_id = ?", timetableID)
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
