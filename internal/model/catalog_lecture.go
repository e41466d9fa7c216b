package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogLecture 课程目录表 — 对应 catalog_lectures
//
// 由外部目录同步写入，时间表引擎只读。
// (year, semester, course_number, lecture_number) 唯一。
type CatalogLecture struct {
	LectureID string `gorm:"type:uuid;primaryKey"               json:"id"`
	Year      int    `gorm:"not null;index:idx_catalog_semester" json:"year"`
	Semester  int    `gorm:"not null;index:idx_catalog_semester" json:"semester"`
	Lecture
	BaseModel
}

// TableName 指定表名
func (CatalogLecture) TableName() string { return "catalog_lectures" }

// BeforeCreate 补全主键
func (c *CatalogLecture) BeforeCreate(_ *gorm.DB) error {
	if c.LectureID == "" {
		c.LectureID = uuid.NewString()
	}
	return nil
}

// LectureIdentity 目录课程身份包含学年学期
func (c *CatalogLecture) LectureIdentity() LectureIdentity {
	return LectureIdentity{
		Year:          c.Year,
		Semester:      c.Semester,
		CourseNumber:  c.CourseNumber,
		LectureNumber: c.LectureNumber,
	}
}
