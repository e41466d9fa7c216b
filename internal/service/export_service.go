package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-planner/internal/dto"
	"course-planner/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInvalidStart = errors.New("学期开始日期格式无效，应为 YYYY-MM-DD")
	ErrExportGenerateFail = errors.New("导出文件生成失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - ICS：每个上课时间段一个按周重复的 VEVENT，首次发生在学期第一周
//   - Excel：半小时为行、周一至周日为列，课程所占格合并并着色
type ExportService interface {
	// ExportICS 导出时间表为 iCalendar
	ExportICS(ctx context.Context, userID, timetableID string, req *dto.ExportICSRequest) (*bytes.Buffer, string, error)
	// ExportExcel 导出时间表为 Excel
	ExportExcel(ctx context.Context, userID, timetableID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	timetables TimetableService
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(timetables TimetableService, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{timetables: timetables, loc: loc, now: time.Now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, userID, timetableID string, req *dto.ExportICSRequest) (*bytes.Buffer, string, error) {
	tt, err := s.timetables.Get(ctx, userID, timetableID)
	if err != nil {
		return nil, "", err
	}
	start, err := time.ParseInLocation("2006-01-02", req.SemesterStart, s.loc)
	if err != nil {
		return nil, "", ErrExportInvalidStart
	}
	// 回退到该周周一
	monday := start.AddDate(0, 0, -isoDayIndex(start.Weekday()))
	weeks := req.GetWeeks()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-planner//timetable//EN")

	stamp := s.now()
	for _, entry := range tt.LectureList {
		for i, iv := range entry.ClassTimeJSON {
			day := monday.AddDate(0, 0, iv.Day)
			begin := day.Add(time.Duration(iv.Start * float64(time.Hour)))
			end := day.Add(time.Duration(iv.End() * float64(time.Hour)))

			event := cal.AddEvent(fmt.Sprintf("%s-%d@course-planner", entry.EntryID, i))
			event.SetDtStampTime(stamp)
			event.SetStartAt(begin)
			event.SetEndAt(end)
			event.SetSummary(entry.CourseTitle)
			if iv.Place != "" {
				event.SetLocation(iv.Place)
			}
			if desc := entryDescription(&entry); desc != "" {
				event.SetDescription(desc)
			}
			event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("%s.ics", exportBaseName(tt))
	return buf, filename, nil
}

func entryDescription(entry *model.TimetableEntry) string {
	var parts []string
	if entry.Instructor != "" {
		parts = append(parts, entry.Instructor)
	}
	if !entry.IsCustom() {
		parts = append(parts, entry.CourseNumber+"-"+entry.LectureNumber)
	}
	if entry.Remark != "" {
		parts = append(parts, entry.Remark)
	}
	return strings.Join(parts, "\n")
}

// ═══════════════════════════════════════════════════════════
// ExportExcel — 导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：时间表标题
//   - 表头：时间 | Mon … Sun
//   - 行：默认 09:00–18:00，按课程实际时段向外扩展
//   - 单元格：课程名（地点），同一时间段的多个半小时格纵向合并

const (
	excelDefaultFirstSlot = 18 // 09:00
	excelDefaultLastSlot  = 36 // 18:00
)

var excelFallbackFills = []string{
	"#F8CECC", "#DAE8FC", "#D5E8D4", "#FFE6CC", "#E1D5E7",
	"#FFF2CC", "#F5F5F5", "#D0CEE2", "#B1DDF0",
}

func (s *exportService) ExportExcel(ctx context.Context, userID, timetableID string) (*bytes.Buffer, string, error) {
	tt, err := s.timetables.Get(ctx, userID, timetableID)
	if err != nil {
		return nil, "", err
	}

	// 1. 行范围
	first, last := excelDefaultFirstSlot, excelDefaultLastSlot
	for _, entry := range tt.LectureList {
		for _, iv := range entry.ClassTimeJSON {
			if from := int(iv.Start * 2); from < first {
				first = from
			}
			if to := int(iv.End() * 2); to > last {
				last = to
			}
		}
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Timetable"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", colName(model.DaysPerWeek), 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", tt.Title)
	f.MergeCell(sheetName, "A1", cell(colName(model.DaysPerWeek), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheetName, "A2", "Time")
	for d := 0; d < model.DaysPerWeek; d++ {
		f.SetCellValue(sheetName, cell(colName(d+1), 2), model.DayName(d))
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(model.DaysPerWeek), 2), headerStyle)

	// 时间列
	rowOf := func(slot int) int { return 3 + slot - first }
	for slot := first; slot < last; slot++ {
		f.SetCellValue(sheetName, cell("A", rowOf(slot)), model.ClockLabel(float64(slot)/2))
	}

	// 课程
	for i := range tt.LectureList {
		entry := &tt.LectureList[i]
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{entryFill(entry)}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		})
		if err != nil {
			s.logger.Error("创建 Excel 样式失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		for _, iv := range entry.ClassTimeJSON {
			col := colName(iv.Day + 1)
			top := cell(col, rowOf(int(iv.Start*2)))
			bottom := cell(col, rowOf(int(iv.End()*2))-1)

			text := entry.CourseTitle
			if iv.Place != "" {
				text += " (" + iv.Place + ")"
			}
			f.SetCellValue(sheetName, top, text)
			if top != bottom {
				f.MergeCell(sheetName, top, bottom)
			}
			f.SetCellStyle(sheetName, top, bottom, style)
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s.xlsx", exportBaseName(tt))
	return buf, filename, nil
}

// entryFill 自定义背景色优先，否则按颜色索引取默认色
func entryFill(entry *model.TimetableEntry) string {
	if entry.Color != nil && entry.Color.BG != "" {
		return expandHex(entry.Color.BG)
	}
	if entry.ColorIndex > 0 {
		return excelFallbackFills[(entry.ColorIndex-1)%len(excelFallbackFills)]
	}
	return excelFallbackFills[len(excelFallbackFills)-1]
}

// expandHex #abc → #AABBCC
func expandHex(hex string) string {
	if len(hex) == 4 {
		return strings.ToUpper("#" + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2) + strings.Repeat(hex[3:4], 2))
	}
	return strings.ToUpper(hex)
}

// exportBaseName 文件名：年-学期_标题
func exportBaseName(tt *dto.TimetableResponse) string {
	title := strings.NewReplacer("/", "_", "\\", "_", "\"", "").Replace(tt.Title)
	return fmt.Sprintf("%d-%s_%s", tt.Year, model.SemesterLabel(tt.Semester), title)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
