package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Timetable          TimetableRepository
	CatalogLecture     CatalogLectureRepository
	CourseBook         CourseBookRepository
	TimetableChangeLog TimetableChangeLogRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Timetable:          NewTimetableRepo(db),
		CatalogLecture:     NewCatalogLectureRepo(db),
		CourseBook:         NewCourseBookRepo(db),
		TimetableChangeLog: NewTimetableChangeLogRepo(db),
		db:                 db,
	}
}

// Transaction 在同一事务内执行 fn，fn 返回错误或 panic 时回滚
// 未绑定数据库的聚合（测试中手工组装）直接以自身执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
