package service

import (
	"context"

	"go.uber.org/zap"

	"course-planner/internal/dto"
	"course-planner/internal/model"
)

// CatalogService 目录浏览（课程手册、学期课程）
type CatalogService interface {
	ListCourseBooks(ctx context.Context) ([]dto.CourseBookResponse, error)
	ListLectures(ctx context.Context, year, semester int) ([]dto.CatalogLectureResponse, error)
}

type catalogService struct {
	catalog CatalogGateway
	logger  *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(catalog CatalogGateway, logger *zap.Logger) CatalogService {
	return &catalogService{catalog: catalog, logger: logger}
}

func (s *catalogService) ListCourseBooks(ctx context.Context) ([]dto.CourseBookResponse, error) {
	books, err := s.catalog.ListCourseBooks(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CourseBookResponse, 0, len(books))
	for i := range books {
		items = append(items, dto.NewCourseBookResponse(&books[i]))
	}
	return items, nil
}

func (s *catalogService) ListLectures(ctx context.Context, year, semester int) ([]dto.CatalogLectureResponse, error) {
	if year <= 0 || !model.ValidSemester(semester) {
		return nil, ErrTimetableParamsMissing
	}
	lectures, err := s.catalog.ListEntries(ctx, year, semester)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CatalogLectureResponse, 0, len(lectures))
	for i := range lectures {
		items = append(items, dto.NewCatalogLectureResponse(&lectures[i]))
	}
	return items, nil
}
