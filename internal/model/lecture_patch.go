package model

import (
	"slices"

	"gorm.io/datatypes"
)

// LecturePatch 条目的部分更新，nil 字段表示不修改。
//
// CourseNumber / LectureNumber 仅用于检测调用方是否试图修改身份，
// 永远不会被写入条目。
type LecturePatch struct {
	Classification *string
	Department     *string
	AcademicYear   *string
	CourseTitle    *string
	Credit         *Credit
	ClassTime      *string
	ClassTimeJSON  *[]TimeInterval
	Instructor     *string
	Remark         *string
	Category       *string
	Color          *LectureColor
	ColorIndex     *int
	CourseNumber   *string
	LectureNumber  *string
}

// TouchesIdentity 补丁中是否出现身份字段
func (p *LecturePatch) TouchesIdentity() bool {
	return p.CourseNumber != nil || p.LectureNumber != nil
}

// TouchesColor 补丁中是否出现颜色字段
func (p *LecturePatch) TouchesColor() bool {
	return p.Color != nil || p.ColorIndex != nil
}

// PatchFromCatalog 以目录课程的当前值构造补丁（不含身份与颜色）
func PatchFromCatalog(ref *CatalogLecture) LecturePatch {
	src := ref.Lecture.Clone()
	intervals := []TimeInterval(src.ClassTimeJSON)
	if intervals == nil {
		intervals = []TimeInterval{}
	}
	return LecturePatch{
		Classification: &src.Classification,
		Department:     &src.Department,
		AcademicYear:   &src.AcademicYear,
		CourseTitle:    &src.CourseTitle,
		Credit:         &src.Credit,
		ClassTime:      &src.ClassTime,
		ClassTimeJSON:  &intervals,
		Instructor:     &src.Instructor,
		Remark:         &src.Remark,
		Category:       &src.Category,
	}
}

// Apply 合并补丁，返回条目是否发生变化。
// 调用前须已校验身份、时间与颜色；时间段变更时掩码同步重算。
func (e *TimetableEntry) Apply(p LecturePatch) (bool, error) {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	setString(&e.Classification, p.Classification)
	setString(&e.Department, p.Department)
	setString(&e.AcademicYear, p.AcademicYear)
	setString(&e.CourseTitle, p.CourseTitle)
	setString(&e.ClassTime, p.ClassTime)
	setString(&e.Instructor, p.Instructor)
	setString(&e.Remark, p.Remark)
	setString(&e.Category, p.Category)

	if p.Credit != nil && e.Credit != *p.Credit {
		e.Credit = *p.Credit
		changed = true
	}

	if p.ClassTimeJSON != nil {
		mask, err := ComputeTimeMask(*p.ClassTimeJSON)
		if err != nil {
			return false, err
		}
		if !slices.Equal([]TimeInterval(e.ClassTimeJSON), *p.ClassTimeJSON) || e.Mask() != mask {
			e.ClassTimeJSON = append(datatypes.JSONSlice[TimeInterval]{}, (*p.ClassTimeJSON)...)
			e.ClassTimeMask = &mask
			changed = true
		}
	}

	if p.Color != nil && (e.Color == nil || *e.Color != *p.Color) {
		color := *p.Color
		e.Color = &color
		changed = true
	}
	if p.ColorIndex != nil && e.ColorIndex != *p.ColorIndex {
		e.ColorIndex = *p.ColorIndex
		changed = true
	}

	return changed, nil
}
