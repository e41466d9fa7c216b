package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TimetableEntry 时间表中的一条课程（JSON 存储于 timetables.lecture_list）
//
// ColorIndex 取值 [0, numColors]，0 表示使用 Color 中的自定义颜色。
type TimetableEntry struct {
	EntryID string `json:"id"`
	Lecture
	Color      *LectureColor `json:"color,omitempty"`
	ColorIndex int           `json:"color_index"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewEntryFromCatalog 复制目录课程的课程字段（不含学年学期）生成新条目
func NewEntryFromCatalog(ref *CatalogLecture) TimetableEntry {
	return TimetableEntry{Lecture: ref.Lecture.Clone()}
}

// ColorValid 颜色索引在 [0, numColors] 内且自定义颜色为十六进制
func (e *TimetableEntry) ColorValid(numColors int) bool {
	if e.ColorIndex < 0 || e.ColorIndex > numColors {
		return false
	}
	return e.Color.Valid()
}

// Clone 深拷贝
func (e *TimetableEntry) Clone() TimetableEntry {
	out := *e
	out.Lecture = e.Lecture.Clone()
	if e.Color != nil {
		color := *e.Color
		out.Color = &color
	}
	return out
}

// MaxTitleLength 时间表标题上限（字符数，与 title 列宽一致）
const MaxTitleLength = 100

// Timetable 用户时间表 — 对应 timetables
//
// 同一用户同一学期内标题唯一；LectureList 中任意两条目时间掩码互不重叠。
type Timetable struct {
	TimetableID string                              `gorm:"type:uuid;primaryKey"                                             json:"id"`
	UserID      string                              `gorm:"type:varchar(64);not null;uniqueIndex:uk_timetable_title,priority:1" json:"user_id"`
	Year        int                                 `gorm:"not null;uniqueIndex:uk_timetable_title,priority:2"                 json:"year"`
	Semester    int                                 `gorm:"not null;uniqueIndex:uk_timetable_title,priority:3"                 json:"semester"`
	Title       string                              `gorm:"type:varchar(100);not null;uniqueIndex:uk_timetable_title,priority:4" json:"title"`
	LectureList datatypes.JSONSlice[TimetableEntry] `gorm:"column:lecture_list;not null"                                     json:"lecture_list"`
	VersionedModel
}

// TableName 指定表名
func (Timetable) TableName() string { return "timetables" }

// BeforeCreate 补全主键
func (t *Timetable) BeforeCreate(_ *gorm.DB) error {
	if t.TimetableID == "" {
		t.TimetableID = uuid.NewString()
	}
	if t.LectureList == nil {
		t.LectureList = datatypes.JSONSlice[TimetableEntry]{}
	}
	return nil
}

// Clone 深拷贝，返回值与原值不共享任何可变状态
func (t *Timetable) Clone() *Timetable {
	out := *t
	out.LectureList = make(datatypes.JSONSlice[TimetableEntry], len(t.LectureList))
	for i := range t.LectureList {
		out.LectureList[i] = t.LectureList[i].Clone()
	}
	return &out
}

// IndexOfEntry 按 entry id 查找条目下标，不存在返回 -1
func (t *Timetable) IndexOfEntry(entryID string) int {
	for i := range t.LectureList {
		if t.LectureList[i].EntryID == entryID {
			return i
		}
	}
	return -1
}

// FindEntryByIdentity 按课程号 + 分班号查找条目
func (t *Timetable) FindEntryByIdentity(courseNumber, lectureNumber string) *TimetableEntry {
	target := LectureIdentity{CourseNumber: courseNumber, LectureNumber: lectureNumber}
	for i := range t.LectureList {
		if SameLecture(target, t.LectureList[i].LectureIdentity()) {
			return &t.LectureList[i]
		}
	}
	return nil
}

// HasDuplicate 是否已有同一身份的目录课程
func (t *Timetable) HasDuplicate(entry *TimetableEntry) bool {
	for i := range t.LectureList {
		if t.LectureList[i].EntryID == entry.EntryID {
			continue
		}
		if EqualsIdentity(entry, &t.LectureList[i]) {
			return true
		}
	}
	return false
}

// Conflicts 掩码是否与除 exceptEntryID 外的任一条目重叠
func (t *Timetable) Conflicts(mask TimeMask, exceptEntryID string) bool {
	if mask.IsEmpty() {
		return false
	}
	for i := range t.LectureList {
		if t.LectureList[i].EntryID == exceptEntryID {
			continue
		}
		if t.LectureList[i].Mask().Overlaps(mask) {
			return true
		}
	}
	return false
}
