package dto

import (
	"time"

	"course-planner/internal/model"
)

// ── 时间表 ──

// CreateTimetableRequest 创建时间表请求
type CreateTimetableRequest struct {
	Year     int    `json:"year"     binding:"required,min=1"`
	Semester int    `json:"semester" binding:"required,min=1,max=4"`
	Title    string `json:"title"    binding:"required,max=100"`
}

// RenameTimetableRequest 修改标题请求
type RenameTimetableRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

// TimetableResponse 时间表完整响应
type TimetableResponse struct {
	ID          string                 `json:"id"`
	Year        int                    `json:"year"`
	Semester    int                    `json:"semester"`
	Title       string                 `json:"title"`
	LectureList []model.TimetableEntry `json:"lecture_list"`
	Version     int                    `json:"version"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TimetableSummaryResponse 时间表摘要（列表用，不含课程）
type TimetableSummaryResponse struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Semester  int       `json:"semester"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTimetableResponse 模型 → 响应
func NewTimetableResponse(t *model.Timetable) *TimetableResponse {
	list := []model.TimetableEntry(t.LectureList)
	if list == nil {
		list = []model.TimetableEntry{}
	}
	return &TimetableResponse{
		ID:          t.TimetableID,
		Year:        t.Year,
		Semester:    t.Semester,
		Title:       t.Title,
		LectureList: list,
		Version:     t.Version,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTimetableSummaryResponse 模型 → 摘要响应
func NewTimetableSummaryResponse(t *model.Timetable) TimetableSummaryResponse {
	return TimetableSummaryResponse{
		ID:        t.TimetableID,
		Year:      t.Year,
		Semester:  t.Semester,
		Title:     t.Title,
		UpdatedAt: t.UpdatedAt,
	}
}

// ── 课程条目 ──

// CreateCustomLectureRequest 添加自定义课程请求
//
// 课程号/分班号若出现则拒绝（自定义课程不能携带目录身份）。
type CreateCustomLectureRequest struct {
	Classification string               `json:"classification"`
	Department     string               `json:"department"`
	AcademicYear   string               `json:"academic_year"`
	CourseTitle    string               `json:"course_title"  binding:"max=200"`
	Credit         model.Credit         `json:"credit"`
	ClassTime      string               `json:"class_time"`
	ClassTimeJSON  []model.TimeInterval `json:"class_time_json"`
	ClassTimeMask  *model.TimeMask      `json:"class_time_mask"`
	Instructor     string               `json:"instructor"`
	Remark         string               `json:"remark"`
	Category       string               `json:"category"`
	CourseNumber   string               `json:"course_number"`
	LectureNumber  string               `json:"lecture_number"`
	Color          *model.LectureColor  `json:"color"`
	ColorIndex     int                  `json:"color_index"`
}

// ToEntry 请求 → 条目（未分配 ID 与时间戳）
func (r *CreateCustomLectureRequest) ToEntry() model.TimetableEntry {
	entry := model.TimetableEntry{
		Lecture: model.Lecture{
			Classification: r.Classification,
			Department:     r.Department,
			AcademicYear:   r.AcademicYear,
			CourseTitle:    r.CourseTitle,
			Credit:         r.Credit,
			ClassTime:      r.ClassTime,
			ClassTimeJSON:  append([]model.TimeInterval(nil), r.ClassTimeJSON...),
			Instructor:     r.Instructor,
			Remark:         r.Remark,
			Category:       r.Category,
			CourseNumber:   r.CourseNumber,
			LectureNumber:  r.LectureNumber,
		},
		ColorIndex: r.ColorIndex,
	}
	if r.ClassTimeMask != nil {
		mask := *r.ClassTimeMask
		entry.ClassTimeMask = &mask
	}
	if r.Color != nil {
		color := *r.Color
		entry.Color = &color
	}
	return entry
}

// UpdateLectureRequest 更新课程条目请求（字段缺省即不修改）
type UpdateLectureRequest struct {
	Classification *string               `json:"classification"`
	Department     *string               `json:"department"`
	AcademicYear   *string               `json:"academic_year"`
	CourseTitle    *string               `json:"course_title"`
	Credit         *model.Credit         `json:"credit"`
	ClassTime      *string               `json:"class_time"`
	ClassTimeJSON  *[]model.TimeInterval `json:"class_time_json"`
	Instructor     *string               `json:"instructor"`
	Remark         *string               `json:"remark"`
	Category       *string               `json:"category"`
	Color          *model.LectureColor   `json:"color"`
	ColorIndex     *int                  `json:"color_index"`
	CourseNumber   *string               `json:"course_number"`
	LectureNumber  *string               `json:"lecture_number"`
}

// ToPatch 请求 → 补丁
func (r *UpdateLectureRequest) ToPatch() model.LecturePatch {
	return model.LecturePatch{
		Classification: r.Classification,
		Department:     r.Department,
		AcademicYear:   r.AcademicYear,
		CourseTitle:    r.CourseTitle,
		Credit:         r.Credit,
		ClassTime:      r.ClassTime,
		ClassTimeJSON:  r.ClassTimeJSON,
		Instructor:     r.Instructor,
		Remark:         r.Remark,
		Category:       r.Category,
		Color:          r.Color,
		ColorIndex:     r.ColorIndex,
		CourseNumber:   r.CourseNumber,
		LectureNumber:  r.LectureNumber,
	}
}

// FindEntryRequest 按目录身份查找条目
type FindEntryRequest struct {
	CourseNumber  string `form:"course_number"  binding:"required"`
	LectureNumber string `form:"lecture_number" binding:"required"`
}

// EntryIDResponse 条目 ID 响应
type EntryIDResponse struct {
	EntryID string `json:"entry_id"`
}

// ── 变更记录 ──

// ChangeLogResponse 条目变更记录
type ChangeLogResponse struct {
	ID          string    `json:"id"`
	TimetableID string    `json:"timetable_id"`
	EntryID     string    `json:"entry_id"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
}

// ── 导入 ──

// ImportICSRequest 通过 URL 导入 ICS
type ImportICSRequest struct {
	URL string `json:"url" form:"url" binding:"required,url"`
}

// ImportICSResponse 导入结果
type ImportICSResponse struct {
	Imported  int                `json:"imported"`
	Timetable *TimetableResponse `json:"timetable"`
}

// ── 导出 ──

// ExportICSRequest 导出 iCalendar 参数
type ExportICSRequest struct {
	SemesterStart string `form:"semester_start" binding:"required"` // YYYY-MM-DD，学期第一周的任意一天
	Weeks         int    `form:"weeks"          binding:"omitempty,min=1,max=30"`
}

// GetWeeks 周数（默认 16）
func (r *ExportICSRequest) GetWeeks() int {
	if r.Weeks <= 0 {
		return 16
	}
	return r.Weeks
}
