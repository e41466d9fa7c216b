package model

import "time"

// 学期编号
const (
	SemesterSpring = 1
	SemesterSummer = 2
	SemesterFall   = 3
	SemesterWinter = 4
)

var semesterLabels = map[int]string{
	SemesterSpring: "1",
	SemesterSummer: "S",
	SemesterFall:   "2",
	SemesterWinter: "W",
}

// SemesterLabel 学期短标签：1 / S / 2 / W
func SemesterLabel(semester int) string {
	if label, ok := semesterLabels[semester]; ok {
		return label
	}
	return "?"
}

// ValidSemester 学期编号是否在 1..4
func ValidSemester(semester int) bool {
	_, ok := semesterLabels[semester]
	return ok
}

// CourseBook 课程手册表 — 对应 course_books（每个开课学期一行）
type CourseBook struct {
	Year      int       `gorm:"primaryKey;autoIncrement:false"     json:"year"`
	Semester  int       `gorm:"primaryKey;autoIncrement:false"     json:"semester"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (CourseBook) TableName() string { return "course_books" }
