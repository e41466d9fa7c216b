package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"course-planner/internal/model"
	pkgerrors "course-planner/pkg/errors"
)

// TimetableRepository 时间表数据访问接口
//
// 写入只有两种形态：整体新建（Create）与按版本号条件替换（ConditionalReplace）。
// 条件替换失败返回 pkgerrors.ErrOptimisticLock，由业务层决定是否重试。
type TimetableRepository interface {
	Create(ctx context.Context, timetable *model.Timetable) error
	GetByID(ctx context.Context, userID, id string) (*model.Timetable, error)
	GetByTitle(ctx context.Context, userID string, year, semester int, title string) (*model.Timetable, error)
	ListByUser(ctx context.Context, userID string) ([]model.Timetable, error)
	ListByUserAndSemester(ctx context.Context, userID string, year, semester int) ([]model.Timetable, error)
	GetRecent(ctx context.Context, userID string) (*model.Timetable, error)
	ConditionalReplace(ctx context.Context, timetable *model.Timetable) error
	Delete(ctx context.Context, userID, id string) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

// 摘要列表不加载 lecture_list
var timetableAbstractColumns = []string{
	"timetable_id", "user_id", "year", "semester", "title", "version", "created_at", "updated_at",
}

func (r *timetableRepo) Create(ctx context.Context, timetable *model.Timetable) error {
	if timetable.Version == 0 {
		timetable.Version = 1
	}
	return r.db.WithContext(ctx).Create(timetable).Error
}

func (r *timetableRepo) GetByID(ctx context.Context, userID, id string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Where("timetable_id = ? AND user_id = ?", id, userID).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) GetByTitle(ctx context.Context, userID string, year, semester int, title string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Select(timetableAbstractColumns).
		Where("user_id = ? AND year = ? AND semester = ? AND title = ?", userID, year, semester, title).
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

func (r *timetableRepo) ListByUser(ctx context.Context, userID string) ([]model.Timetable, error) {
	var timetables []model.Timetable
	err := r.db.WithContext(ctx).
		Select(timetableAbstractColumns).
		Where("user_id = ?", userID).
		Order("year DESC, semester DESC, title ASC").
		Find(&timetables).Error
	return timetables, err
}

func (r *timetableRepo) ListByUserAndSemester(ctx context.Context, userID string, year, semester int) ([]model.Timetable, error) {
	var timetables []model.Timetable
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND semester = ?", userID, year, semester).
		Order("updated_at DESC").
		Find(&timetables).Error
	return timetables, err
}

func (r *timetableRepo) GetRecent(ctx context.Context, userID string) (*model.Timetable, error) {
	var timetable model.Timetable
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&timetable).Error
	if err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ConditionalReplace 仅当库中版本号与 timetable.Version 一致时整体替换可变字段，
// 成功后 timetable.Version 自增。
func (r *timetableRepo) ConditionalReplace(ctx context.Context, timetable *model.Timetable) error {
	oldVersion := timetable.Version
	if timetable.UpdatedAt.IsZero() {
		timetable.UpdatedAt = time.Now()
	}
	result := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ? AND version = ?", timetable.TimetableID, oldVersion).
		Updates(map[string]interface{}{
			"title":        timetable.Title,
			"lecture_list": timetable.LectureList,
			"updated_at":   timetable.UpdatedAt,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	timetable.Version = oldVersion + 1
	return nil
}

func (r *timetableRepo) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("timetable_id = ? AND user_id = ?", id, userID).
		Delete(&model.Timetable{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
