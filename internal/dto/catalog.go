package dto

import (
	"time"

	"course-planner/internal/model"
)

// CourseBookResponse 课程手册
type CourseBookResponse struct {
	Year      int       `json:"year"`
	Semester  int       `json:"semester"`
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCourseBookResponse 模型 → 响应
func NewCourseBookResponse(b *model.CourseBook) CourseBookResponse {
	return CourseBookResponse{
		Year:      b.Year,
		Semester:  b.Semester,
		Label:     model.SemesterLabel(b.Semester),
		UpdatedAt: b.UpdatedAt,
	}
}

// CatalogLectureResponse 目录课程
type CatalogLectureResponse struct {
	ID       string `json:"id"`
	Year     int    `json:"year"`
	Semester int    `json:"semester"`
	model.Lecture
}

// NewCatalogLectureResponse 模型 → 响应
func NewCatalogLectureResponse(l *model.CatalogLecture) CatalogLectureResponse {
	return CatalogLectureResponse{
		ID:       l.LectureID,
		Year:     l.Year,
		Semester: l.Semester,
		Lecture:  l.Lecture,
	}
}

// CatalogImportError 导入失败行
type CatalogImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// CatalogImportResponse 目录导入结果
type CatalogImportResponse struct {
	Total   int                  `json:"total"`
	Created int                  `json:"created"`
	Skipped int                  `json:"skipped"` // 同学期已存在的课程
	Failed  int                  `json:"failed"`
	Errors  []CatalogImportError `json:"errors,omitempty"`
}
