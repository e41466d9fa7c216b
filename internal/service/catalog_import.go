package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
)

// ────────────────────── 目录导入 ──────────────────────
//
// 课程手册 Excel → catalog_lectures + course_books。
// 第一行为表头（列序不限），每行一门课程；class_time_json 列为
// [{"day":0,"start":9,"len":1.5,"place":"301"}] 形式的 JSON。

const maxCatalogImportRows = 20000

var (
	ErrCatalogImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrCatalogImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxCatalogImportRows)
	ErrCatalogImportBadHeader   = errors.New("Excel表头缺少必要列（课程号/分班号/课程名）")
)

// CatalogImportRow 解析后的一行
type CatalogImportRow struct {
	Row     int
	Lecture model.Lecture
	// ParseErr 单元格格式错误，导入时计为失败行
	ParseErr string
}

// CatalogImporter 课程目录导入
type CatalogImporter interface {
	ParseCatalogFile(reader io.Reader) ([]CatalogImportRow, error)
	Import(ctx context.Context, year, semester int, rows []CatalogImportRow) (*dto.CatalogImportResponse, error)
}

type catalogImporter struct {
	repo   *repository.Repository
	cache  JSONCache
	logger *zap.Logger
}

// NewCatalogImporter 创建 CatalogImporter 实例
// cache 非 nil 时，导入提交后失效课程手册与该学期目录列表的缓存
func NewCatalogImporter(repo *repository.Repository, cache JSONCache, logger *zap.Logger) CatalogImporter {
	return &catalogImporter{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── ParseCatalogFile ──────────────────────

// catalogHeaderKey 表头单元格 → 列键，未识别返回空串
func catalogHeaderKey(header string) string {
	lower := strings.ToLower(strings.TrimSpace(header))
	switch lower {
	case "课程号":
		return "course_number"
	case "分班号":
		return "lecture_number"
	case "课程名":
		return "course_title"
	case "学分":
		return "credit"
	case "教师":
		return "instructor"
	case "开课院系":
		return "department"
	case "课程类别":
		return "classification"
	case "年级":
		return "academic_year"
	case "上课时间":
		return "class_time"
	case "备注":
		return "remark"
	case "course_number", "lecture_number", "course_title", "credit", "instructor", "department",
		"classification", "academic_year", "category", "class_time", "class_time_json", "remark":
		return lower
	}
	return ""
}

func (s *catalogImporter) ParseCatalogFile(reader io.Reader) ([]CatalogImportRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrCatalogImportNoData
	}

	colIndex := make(map[string]int)
	for i, h := range excelRows[0] {
		if key := catalogHeaderKey(h); key != "" {
			colIndex[key] = i
		}
	}
	for _, required := range []string{"course_number", "lecture_number", "course_title"} {
		if _, ok := colIndex[required]; !ok {
			return nil, ErrCatalogImportBadHeader
		}
	}

	var rows []CatalogImportRow
	for i := 1; i < len(excelRows); i++ {
		raw := excelRows[i]
		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(raw) {
				return strings.TrimSpace(raw[idx])
			}
			return ""
		}

		item := CatalogImportRow{Row: i + 1}
		item.Lecture = model.Lecture{
			Classification: get("classification"),
			Department:     get("department"),
			AcademicYear:   get("academic_year"),
			CourseTitle:    get("course_title"),
			ClassTime:      get("class_time"),
			Instructor:     get("instructor"),
			Remark:         get("remark"),
			Category:       get("category"),
			CourseNumber:   get("course_number"),
			LectureNumber:  get("lecture_number"),
		}
		if item.Lecture.CourseNumber == "" && item.Lecture.LectureNumber == "" && item.Lecture.CourseTitle == "" {
			continue
		}

		if credit := get("credit"); credit != "" {
			v, err := strconv.ParseFloat(credit, 64)
			if err != nil {
				item.ParseErr = fmt.Sprintf("学分格式错误: %s", credit)
			}
			item.Lecture.Credit = model.Credit(v)
		}
		if times := get("class_time_json"); times != "" && item.ParseErr == "" {
			var intervals []model.TimeInterval
			if err := json.Unmarshal([]byte(times), &intervals); err != nil {
				item.ParseErr = "class_time_json 格式错误"
			}
			item.Lecture.ClassTimeJSON = intervals
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrCatalogImportNoData
	}
	if len(rows) > maxCatalogImportRows {
		return nil, ErrCatalogImportTooManyRows
	}
	return rows, nil
}

// ────────────────────── Import ──────────────────────

func (s *catalogImporter) Import(ctx context.Context, year, semester int, rows []CatalogImportRow) (*dto.CatalogImportResponse, error) {
	if year <= 0 || !model.ValidSemester(semester) {
		return nil, ErrTimetableParamsMissing
	}
	resp := &dto.CatalogImportResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.CatalogImportError{Row: row, Reason: reason})
	}

	// 第一阶段：逐行校验（不写库）
	seen := make(map[string]bool, len(rows))
	var valid []model.CatalogLecture
	for _, row := range rows {
		if row.ParseErr != "" {
			fail(row.Row, row.ParseErr)
			continue
		}
		lecture := row.Lecture
		if lecture.CourseNumber == "" || lecture.LectureNumber == "" {
			fail(row.Row, "课程号与分班号不能为空")
			continue
		}
		if lecture.CourseTitle == "" {
			fail(row.Row, ErrNoLectureTitle.Error())
			continue
		}
		if err := lecture.SetTimeMask(); err != nil {
			fail(row.Row, err.Error())
			continue
		}
		if lecture.ClassTime == "" {
			lecture.ClassTime = model.FormatClassTime(lecture.ClassTimeJSON)
		}

		key := lecture.CourseNumber + "/" + lecture.LectureNumber
		if seen[key] {
			fail(row.Row, fmt.Sprintf("文件内重复: %s", key))
			continue
		}
		seen[key] = true

		_, err := s.repo.CatalogLecture.GetByIdentity(ctx, year, semester, lecture.CourseNumber, lecture.LectureNumber)
		switch {
		case err == nil:
			resp.Skipped++
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Error("查询目录课程失败", zap.String("identity", key), zap.Error(err))
			return nil, err
		}

		valid = append(valid, model.CatalogLecture{Year: year, Semester: semester, Lecture: lecture})
	}

	// 第二阶段：事务内批量写入并登记课程手册
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CatalogLecture.BatchCreate(ctx, valid); err != nil {
			return err
		}
		return tx.CourseBook.Upsert(ctx, &model.CourseBook{Year: year, Semester: semester, UpdatedAt: time.Now()})
	})
	if err != nil {
		s.logger.Error("目录导入写入失败，事务回滚", zap.Int("year", year), zap.Int("semester", semester), zap.Error(err))
		return nil, fmt.Errorf("目录导入写入失败，已回滚: %w", err)
	}
	resp.Created = len(valid)

	if s.cache != nil {
		if err := s.cache.DeleteJSON(ctx, catalogImportKeys(year, semester)...); err != nil {
			s.logger.Warn("目录缓存失效失败，将在 TTL 到期后刷新", zap.Int("year", year), zap.Int("semester", semester), zap.Error(err))
		}
	}

	s.logger.Info("目录导入完成",
		zap.Int("year", year),
		zap.Int("semester", semester),
		zap.Int("created", resp.Created),
		zap.Int("skipped", resp.Skipped),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}
