package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCredit_UnmarshalJSON(t *testing.T) {
	var l Lecture
	if err := json.Unmarshal([]byte(`{"course_title":"A","credit":"3"}`), &l); err != nil {
		t.Fatalf("字符串学分应可解析: %v", err)
	}
	if l.Credit != 3 {
		t.Errorf("期望 Credit=3，实际=%v", l.Credit)
	}
	if err := json.Unmarshal([]byte(`{"credit":2.5}`), &l); err != nil {
		t.Fatalf("数值学分应可解析: %v", err)
	}
	if l.Credit != 2.5 {
		t.Errorf("期望 Credit=2.5，实际=%v", l.Credit)
	}
	if err := json.Unmarshal([]byte(`{"credit":"abc"}`), &l); err == nil {
		t.Error("非法学分应报错")
	}
}

func TestLecture_SetTimeMask(t *testing.T) {
	intervals := []TimeInterval{{Day: 1, Start: 10, Len: 1}}
	good, _ := ComputeTimeMask(intervals)
	bad := good
	bad[1] <<= 1

	t.Run("仅时间段时计算掩码", func(t *testing.T) {
		l := Lecture{ClassTimeJSON: intervals}
		if err := l.SetTimeMask(); err != nil {
			t.Fatalf("应成功: %v", err)
		}
		if l.Mask() != good {
			t.Errorf("期望 %v，实际 %v", good, l.Mask())
		}
	})
	t.Run("一致时通过", func(t *testing.T) {
		mask := good
		l := Lecture{ClassTimeJSON: intervals, ClassTimeMask: &mask}
		if err := l.SetTimeMask(); err != nil {
			t.Errorf("应成功: %v", err)
		}
	})
	t.Run("不一致时拒绝", func(t *testing.T) {
		l := Lecture{ClassTimeJSON: intervals, ClassTimeMask: &bad}
		if err := l.SetTimeMask(); !errors.Is(err, ErrInvalidTimeMask) {
			t.Errorf("期望 ErrInvalidTimeMask，实际: %v", err)
		}
	})
	t.Run("仅掩码时拒绝", func(t *testing.T) {
		mask := good
		l := Lecture{ClassTimeMask: &mask}
		if err := l.SetTimeMask(); !errors.Is(err, ErrInvalidTimeMask) {
			t.Errorf("期望 ErrInvalidTimeMask，实际: %v", err)
		}
	})
	t.Run("提交的全零掩码无时间段时拒绝", func(t *testing.T) {
		l := Lecture{ClassTimeMask: &TimeMask{}}
		if err := l.SetSubmittedTimeMask(); !errors.Is(err, ErrInvalidTimeMask) {
			t.Errorf("期望 ErrInvalidTimeMask，实际: %v", err)
		}
		stored := Lecture{ClassTimeMask: &TimeMask{}}
		if err := stored.SetTimeMask(); err != nil {
			t.Errorf("已入库的空掩码应可往返: %v", err)
		}
	})
	t.Run("都没有时为空掩码", func(t *testing.T) {
		l := Lecture{}
		if err := l.SetTimeMask(); err != nil {
			t.Fatalf("应成功: %v", err)
		}
		if l.ClassTimeMask == nil || !l.ClassTimeMask.IsEmpty() {
			t.Error("应填入空掩码")
		}
	})
}

func TestSameLecture(t *testing.T) {
	base := LectureIdentity{Year: 2024, Semester: 3, CourseNumber: "M1522.002400", LectureNumber: "001"}

	if !SameLecture(base, LectureIdentity{CourseNumber: "M1522.002400", LectureNumber: "001"}) {
		t.Error("未指定学年学期时应只比较课程号与分班号")
	}
	if SameLecture(base, LectureIdentity{Year: 2023, Semester: 3, CourseNumber: "M1522.002400", LectureNumber: "001"}) {
		t.Error("学年不同不应相等")
	}
	if SameLecture(base, LectureIdentity{Year: 2024, Semester: 1, CourseNumber: "M1522.002400", LectureNumber: "001"}) {
		t.Error("学期不同不应相等")
	}
	if SameLecture(base, LectureIdentity{CourseNumber: "M1522.002400", LectureNumber: "002"}) {
		t.Error("分班号不同不应相等")
	}
	if SameLecture(LectureIdentity{}, LectureIdentity{}) {
		t.Error("自定义课程不应与任何课程相等")
	}
}

func TestLectureColor_Valid(t *testing.T) {
	cases := map[string]bool{
		"#fff":    true,
		"#A1B2C3": true,
		"fff":     false,
		"#ffff":   false,
		"#gggggg": false,
	}
	for in, want := range cases {
		c := &LectureColor{FG: in}
		if got := c.Valid(); got != want {
			t.Errorf("%q: 期望 %v，实际 %v", in, want, got)
		}
	}
	var nilColor *LectureColor
	if !nilColor.Valid() {
		t.Error("未设置颜色应视为合法")
	}
}

func TestTimetable_Conflicts(t *testing.T) {
	monWed, _ := ComputeTimeMask([]TimeInterval{{Day: 0, Start: 13, Len: 1}, {Day: 2, Start: 13, Len: 1}})
	tt := &Timetable{LectureList: []TimetableEntry{{EntryID: "e1", Lecture: Lecture{ClassTimeMask: &monWed}}}}

	monLate, _ := ComputeTimeMask([]TimeInterval{{Day: 0, Start: 13.5, Len: 1}})
	if !tt.Conflicts(monLate, "") {
		t.Error("应检测到冲突")
	}
	if tt.Conflicts(monLate, "e1") {
		t.Error("排除自身后不应冲突")
	}
}

func TestTimetable_CloneIsIndependent(t *testing.T) {
	mask := TimeMask{1}
	tt := &Timetable{
		Title: "Fall",
		LectureList: []TimetableEntry{{
			EntryID: "e1",
			Lecture: Lecture{CourseTitle: "A", ClassTimeJSON: []TimeInterval{{Day: 0, Start: 0, Len: 0.5}}, ClassTimeMask: &mask},
			Color:   &LectureColor{FG: "#000"},
		}},
	}
	cp := tt.Clone()
	cp.LectureList[0].CourseTitle = "B"
	cp.LectureList[0].ClassTimeJSON[0].Place = "302"
	cp.LectureList[0].ClassTimeMask[0] = 2
	cp.LectureList[0].Color.FG = "#fff"

	orig := tt.LectureList[0]
	if orig.CourseTitle != "A" || orig.ClassTimeJSON[0].Place != "" || orig.Mask()[0] != 1 || orig.Color.FG != "#000" {
		t.Error("修改副本不应影响原时间表")
	}
}

func TestTimetableEntry_Apply(t *testing.T) {
	e := TimetableEntry{EntryID: "e1", Lecture: Lecture{CourseTitle: "A", Instructor: "X"}}
	title := "A"
	changed, err := e.Apply(LecturePatch{CourseTitle: &title})
	if err != nil || changed {
		t.Errorf("相同值不应视为变更，changed=%v err=%v", changed, err)
	}

	instructor := "Y"
	intervals := []TimeInterval{{Day: 1, Start: 9, Len: 1}}
	changed, err = e.Apply(LecturePatch{Instructor: &instructor, ClassTimeJSON: &intervals})
	if err != nil || !changed {
		t.Fatalf("应发生变更，changed=%v err=%v", changed, err)
	}
	if e.Instructor != "Y" || e.Mask().IsEmpty() {
		t.Error("讲师与时间掩码应已更新")
	}
}
