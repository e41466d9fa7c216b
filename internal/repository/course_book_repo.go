package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-planner/internal/model"
)

// CourseBookRepository 课程手册数据访问接口
type CourseBookRepository interface {
	GetRecent(ctx context.Context) (*model.CourseBook, error)
	List(ctx context.Context) ([]model.CourseBook, error)
	Upsert(ctx context.Context, book *model.CourseBook) error
}

type courseBookRepo struct {
	db *gorm.DB
}

// NewCourseBookRepo 创建 CourseBookRepository 实例
func NewCourseBookRepo(db *gorm.DB) CourseBookRepository {
	return &courseBookRepo{db: db}
}

func (r *courseBookRepo) GetRecent(ctx context.Context) (*model.CourseBook, error) {
	var book model.CourseBook
	err := r.db.WithContext(ctx).
		Order("year DESC, semester DESC").
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *courseBookRepo) List(ctx context.Context) ([]model.CourseBook, error) {
	var books []model.CourseBook
	err := r.db.WithContext(ctx).
		Order("year DESC, semester DESC").
		Find(&books).Error
	return books, err
}

// Upsert 同一学期重复写入时只刷新 updated_at
func (r *courseBookRepo) Upsert(ctx context.Context, book *model.CourseBook) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "semester"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).
		Create(book).Error
}
