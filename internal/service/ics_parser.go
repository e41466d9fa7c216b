package service

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"gorm.io/datatypes"

	"course-planner/internal/model"
)

var (
	ErrICSParseFailed = errors.New("ICS 文件解析失败")
	ErrICSEmpty       = errors.New("ICS 文件中未发现有效课程事件")
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将 iCalendar (RFC 5545) 中的课程事件转为自定义课程条目。
//
// 设计决策：
//   - DTSTART/DTEND 确定星期与时段，按半小时格向外取整
//   - 时间表按周循环，RRULE/EXDATE 只影响日期不影响星期与时段，忽略
//   - 同名（SUMMARY）事件合并为一门课程的多个时间段
//   - 跨天事件、全天事件跳过
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
)

// parsedCourseEvent ICS 解析中间结构
type parsedCourseEvent struct {
	Name     string
	Interval model.TimeInterval
	Remark   string
}

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICSLectures 解析 ICS 内容为自定义课程条目（未分配 ID 与颜色）
func ParseICSLectures(reader io.Reader, loc *time.Location) ([]model.TimetableEntry, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParseFailed, err)
	}

	// 阶段 1: 解析所有 VEVENT
	var events []parsedCourseEvent
	for _, comp := range cal.Events() {
		evt, ok := parseVEvent(comp, loc)
		if !ok {
			continue
		}
		events = append(events, evt)
	}
	if len(events) == 0 {
		return nil, ErrICSEmpty
	}

	// 阶段 2: 同名事件合并为一门课程
	merged := mergeEvents(events)

	// 阶段 3: 转为条目
	entries := make([]model.TimetableEntry, 0, len(merged))
	for _, m := range merged {
		entries = append(entries, model.TimetableEntry{
			Lecture: model.Lecture{
				CourseTitle:   m.name,
				ClassTime:     model.FormatClassTime(m.intervals),
				ClassTimeJSON: datatypes.JSONSlice[model.TimeInterval](m.intervals),
				Remark:        m.remark,
			},
		})
	}
	return entries, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, loc *time.Location) (parsedCourseEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedCourseEvent{}, false
	}
	name := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return parsedCourseEvent{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		return parsedCourseEvent{}, false
	}

	interval, ok := toInterval(dtStart, dtEnd)
	if !ok {
		return parsedCourseEvent{}, false
	}
	if place := evt.GetProperty(ics.ComponentPropertyLocation); place != nil {
		interval.Place = strings.TrimSpace(place.Value)
	}

	remark := ""
	if desc := evt.GetProperty(ics.ComponentPropertyDescription); desc != nil {
		remark = strings.TrimSpace(desc.Value)
	}

	return parsedCourseEvent{Name: name, Interval: interval, Remark: remark}, true
}

// toInterval 起止时间 → 半小时对齐的周内时间段，跨天或零时长返回 false
func toInterval(start, end time.Time) (model.TimeInterval, bool) {
	if !end.After(start) {
		return model.TimeInterval{}, false
	}
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	endHours := clockHours(end)
	sameDay := sy == ey && sm == em && sd == ed
	// 24:00 结束的事件以次日 00:00 表示
	if !sameDay {
		ny, nm, nd := start.AddDate(0, 0, 1).Date()
		if endHours != 0 || ny != ey || nm != em || nd != ed {
			return model.TimeInterval{}, false
		}
		endHours = 24
	}

	from := math.Floor(clockHours(start)*2) / 2
	to := math.Ceil(endHours*2) / 2
	if to <= from {
		return model.TimeInterval{}, false
	}
	return model.TimeInterval{
		Day:   isoDayIndex(start.Weekday()),
		Start: from,
		Len:   to - from,
	}, true
}

type mergedCourse struct {
	name      string
	intervals []model.TimeInterval
	remark    string
}

// mergeEvents 合并同名事件的时间段（去重，保持首次出现顺序）
func mergeEvents(events []parsedCourseEvent) []*mergedCourse {
	byName := make(map[string]*mergedCourse)
	var order []*mergedCourse

	for _, e := range events {
		course, ok := byName[e.Name]
		if !ok {
			course = &mergedCourse{name: e.Name, remark: e.Remark}
			byName[e.Name] = course
			order = append(order, course)
		}
		duplicate := false
		for _, iv := range course.intervals {
			if iv.Day == e.Interval.Day && iv.Start == e.Interval.Start && iv.Len == e.Interval.Len {
				duplicate = true
				break
			}
		}
		if !duplicate {
			course.intervals = append(course.intervals, e.Interval)
		}
	}
	return order
}

// ── 辅助函数 ──

// isoDayIndex 将 Go 的 time.Weekday (0=Sunday) 转为 0=周一 … 6=周日
func isoDayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// clockHours 当日时刻（小时）
func clockHours(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性（全天事件视为失败）
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
