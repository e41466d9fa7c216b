package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// ── 学分 ──

// Credit 学分。目录数据中学分偶尔以字符串形式出现，反序列化时统一转为数值。
type Credit float64

// UnmarshalJSON 兼容 3 与 "3" 两种写法
func (c *Credit) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*c = 0
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("学分格式无效: %q", raw)
		}
		*c = Credit(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = Credit(f)
	return nil
}

// ── 课程公共字段 ──

// Lecture 目录课程与时间表条目共享的课程字段。
// CourseNumber 与 LectureNumber 同时为空表示用户自定义课程。
type Lecture struct {
	Classification string                            `gorm:"type:varchar(50)"                json:"classification"`
	Department     string                            `gorm:"type:varchar(100)"               json:"department"`
	AcademicYear   string                            `gorm:"type:varchar(20)"                json:"academic_year"`
	CourseTitle    string                            `gorm:"type:varchar(200);not null"      json:"course_title"`
	Credit         Credit                            `gorm:"not null;default:0"              json:"credit"`
	ClassTime      string                            `gorm:"type:varchar(200)"               json:"class_time"`
	ClassTimeJSON  datatypes.JSONSlice[TimeInterval] `gorm:"column:class_time_json"          json:"class_time_json"`
	ClassTimeMask  *TimeMask                         `gorm:"column:class_time_mask"          json:"class_time_mask"`
	Instructor     string                            `gorm:"type:varchar(100)"               json:"instructor"`
	Remark         string                            `gorm:"type:text"                       json:"remark"`
	Category       string                            `gorm:"type:varchar(50)"                json:"category"`
	CourseNumber   string                            `gorm:"type:varchar(20);column:course_number"  json:"course_number,omitempty"`
	LectureNumber  string                            `gorm:"type:varchar(10);column:lecture_number" json:"lecture_number,omitempty"`
}

// IsCustom 课程号与分班号均为空即为自定义课程
func (l *Lecture) IsCustom() bool {
	return l.CourseNumber == "" && l.LectureNumber == ""
}

// LectureIdentity 课程身份（不含学年学期）
func (l *Lecture) LectureIdentity() LectureIdentity {
	return LectureIdentity{CourseNumber: l.CourseNumber, LectureNumber: l.LectureNumber}
}

// Mask 返回时间掩码，未设置时为空掩码
func (l *Lecture) Mask() TimeMask {
	if l.ClassTimeMask == nil {
		return TimeMask{}
	}
	return *l.ClassTimeMask
}

// SetTimeMask 按上课时间段补全或校验时间掩码
//
//   - 有时间段、无掩码：计算并填入
//   - 两者都有：必须一致
//   - 只有掩码：视为非法
//   - 都没有：无时间占用，填入空掩码
func (l *Lecture) SetTimeMask() error {
	if len(l.ClassTimeJSON) == 0 {
		if l.ClassTimeMask != nil && !l.ClassTimeMask.IsEmpty() {
			return fmt.Errorf("%w: 缺少上课时间段", ErrInvalidTimeMask)
		}
		l.ClassTimeMask = &TimeMask{}
		return nil
	}
	computed, err := ComputeTimeMask(l.ClassTimeJSON)
	if err != nil {
		return err
	}
	if l.ClassTimeMask != nil && *l.ClassTimeMask != computed {
		return ErrInvalidTimeMask
	}
	l.ClassTimeMask = &computed
	return nil
}

// SetSubmittedTimeMask 客户端提交的课程：携带掩码（包括全零掩码）就必须携带时间段。
// 已入库的记录仍走 SetTimeMask，空掩码可照常往返。
func (l *Lecture) SetSubmittedTimeMask() error {
	if len(l.ClassTimeJSON) == 0 && l.ClassTimeMask != nil {
		return fmt.Errorf("%w: 缺少上课时间段", ErrInvalidTimeMask)
	}
	return l.SetTimeMask()
}

// Clone 深拷贝（时间段切片与掩码指针独立）
func (l *Lecture) Clone() Lecture {
	out := *l
	if l.ClassTimeJSON != nil {
		out.ClassTimeJSON = append(datatypes.JSONSlice[TimeInterval](nil), l.ClassTimeJSON...)
	}
	if l.ClassTimeMask != nil {
		mask := *l.ClassTimeMask
		out.ClassTimeMask = &mask
	}
	return out
}

// ── 课程身份 ──

// LectureIdentity 目录课程的身份四元组，Year/Semester 为 0 表示未指定
type LectureIdentity struct {
	Year          int
	Semester      int
	CourseNumber  string
	LectureNumber string
}

// IsCustom 无身份即自定义课程
func (id LectureIdentity) IsCustom() bool {
	return id.CourseNumber == "" && id.LectureNumber == ""
}

// IdentityHolder 可提供课程身份的对象
type IdentityHolder interface {
	LectureIdentity() LectureIdentity
}

// SameLecture 判断两个身份是否指向同一门目录课程。
// 自定义课程与任何课程都不相等；学年、学期仅在双方都指定时参与比较。
func SameLecture(a, b LectureIdentity) bool {
	if a.IsCustom() {
		return false
	}
	if a.Year != 0 && b.Year != 0 && a.Year != b.Year {
		return false
	}
	if a.Semester != 0 && b.Semester != 0 && a.Semester != b.Semester {
		return false
	}
	return a.CourseNumber == b.CourseNumber && a.LectureNumber == b.LectureNumber
}

// EqualsIdentity SameLecture 的便捷形式
func EqualsIdentity(a, b IdentityHolder) bool {
	return SameLecture(a.LectureIdentity(), b.LectureIdentity())
}

// ── 颜色 ──

// LectureColor 自定义前景/背景色
type LectureColor struct {
	FG string `json:"fg,omitempty"`
	BG string `json:"bg,omitempty"`
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor 是否为 #RGB 或 #RRGGBB
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// Valid 已设置的颜色分量必须是十六进制颜色
func (c *LectureColor) Valid() bool {
	if c == nil {
		return true
	}
	if c.FG != "" && !IsHexColor(c.FG) {
		return false
	}
	if c.BG != "" && !IsHexColor(c.BG) {
		return false
	}
	return true
}
