package repository

import (
	"context"

	"gorm.io/gorm"

	"course-planner/internal/model"
)

// CatalogLectureRepository 课程目录数据访问接口（引擎只读；BatchCreate 供目录导入与测试使用）
type CatalogLectureRepository interface {
	GetByID(ctx context.Context, id string) (*model.CatalogLecture, error)
	GetByIdentity(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error)
	ListBySemester(ctx context.Context, year, semester int) ([]model.CatalogLecture, error)
	BatchCreate(ctx context.Context, lectures []model.CatalogLecture) error
}

type catalogLectureRepo struct {
	db *gorm.DB
}

// NewCatalogLectureRepo 创建 CatalogLectureRepository 实例
func NewCatalogLectureRepo(db *gorm.DB) CatalogLectureRepository {
	return &catalogLectureRepo{db: db}
}

func (r *catalogLectureRepo) GetByID(ctx context.Context, id string) (*model.CatalogLecture, error) {
	var lecture model.CatalogLecture
	err := r.db.WithContext(ctx).
		Where("lecture_id = ?", id).
		First(&lecture).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *catalogLectureRepo) GetByIdentity(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error) {
	var lecture model.CatalogLecture
	err := r.db.WithContext(ctx).
		Where("year = ? AND semester = ? AND course_number = ? AND lecture_number = ?",
			year, semester, courseNumber, lectureNumber).
		First(&lecture).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *catalogLectureRepo) ListBySemester(ctx context.Context, year, semester int) ([]model.CatalogLecture, error) {
	var lectures []model.CatalogLecture
	err := r.db.WithContext(ctx).
		Where("year = ? AND semester = ?", year, semester).
		Order("course_number ASC, lecture_number ASC").
		Find(&lectures).Error
	return lectures, err
}

func (r *catalogLectureRepo) BatchCreate(ctx context.Context, lectures []model.CatalogLecture) error {
	if len(lectures) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lectures).Error
}
