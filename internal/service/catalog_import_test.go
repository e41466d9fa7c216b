package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-planner/internal/model"
)

// buildCatalogXLSX 按行生成内存中的 Excel 文件
func buildCatalogXLSX(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("写入测试行失败: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试 Excel 失败: %v", err)
	}
	return buf
}

func TestParseCatalogFile(t *testing.T) {
	importer := NewCatalogImporter(nil, nil, zap.NewNop())
	buf := buildCatalogXLSX(t, [][]interface{}{
		{"备注", "课程号", "分班号", "课程名", "学分", "class_time_json"},
		{"", "CS101", "001", "Algorithms", "3", `[{"day":0,"start":9,"len":1.5,"place":"301"}]`},
		{"", "", "", "", "", ""},
		{"online", "CS102", "001", "Networks", "abc", ""},
		{"", "CS103", "001", "Compilers", "2", `not json`},
	})

	rows, err := importer.ParseCatalogFile(buf)
	if err != nil {
		t.Fatalf("期望解析成功，实际: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望 3 行（跳过空行），实际: %d", len(rows))
	}
	first := rows[0]
	if first.Row != 2 || first.Lecture.CourseNumber != "CS101" || first.Lecture.Credit != 3 {
		t.Errorf("第一行解析错误: %+v", first)
	}
	if len(first.Lecture.ClassTimeJSON) != 1 || first.Lecture.ClassTimeJSON[0].Place != "301" {
		t.Errorf("上课时间解析错误: %+v", first.Lecture.ClassTimeJSON)
	}
	if rows[1].ParseErr == "" || rows[1].Lecture.Remark != "online" {
		t.Errorf("学分格式错误应被记录: %+v", rows[1])
	}
	if rows[2].ParseErr == "" {
		t.Error("非法 class_time_json 应被记录")
	}
}

func TestParseCatalogFile_BadInput(t *testing.T) {
	importer := NewCatalogImporter(nil, nil, zap.NewNop())

	_, err := importer.ParseCatalogFile(buildCatalogXLSX(t, [][]interface{}{
		{"课程号", "课程名"},
		{"CS101", "Algorithms"},
	}))
	if !errors.Is(err, ErrCatalogImportBadHeader) {
		t.Errorf("期望 ErrCatalogImportBadHeader，实际: %v", err)
	}

	_, err = importer.ParseCatalogFile(buildCatalogXLSX(t, [][]interface{}{
		{"course_number", "lecture_number", "course_title"},
	}))
	if !errors.Is(err, ErrCatalogImportNoData) {
		t.Errorf("期望 ErrCatalogImportNoData，实际: %v", err)
	}

	if _, err := importer.ParseCatalogFile(bytes.NewBufferString("not an xlsx")); err == nil {
		t.Error("非 Excel 内容应返回错误")
	}
}

func TestCatalogImport(t *testing.T) {
	repo, repos := newTestRepos()
	seedCatalogLecture(repos, "cat-existing", "CS100")
	importer := NewCatalogImporter(repo, nil, zap.NewNop())

	row := func(n int, cn, ln, title string, intervals ...model.TimeInterval) CatalogImportRow {
		return CatalogImportRow{Row: n, Lecture: model.Lecture{
			CourseNumber: cn, LectureNumber: ln, CourseTitle: title, ClassTimeJSON: intervals,
		}}
	}
	rows := []CatalogImportRow{
		row(2, "CS101", "001", "Algorithms", iv(0, 9, 1.5)),
		row(3, "CS100", "001", "Existing"),
		row(4, "CS101", "001", "Duplicate in file"),
		row(5, "CS102", "", "No lecture number"),
		row(6, "CS103", "001", ""),
		row(7, "CS104", "001", "Bad time", iv(9, 9, 1)),
		{Row: 8, ParseErr: "学分格式错误: abc"},
	}

	resp, err := importer.Import(context.Background(), 2024, model.SemesterFall, rows)
	if err != nil {
		t.Fatalf("期望导入成功，实际: %v", err)
	}
	if resp.Total != 7 || resp.Created != 1 || resp.Skipped != 1 || resp.Failed != 5 {
		t.Errorf("统计错误: %+v", resp)
	}

	created, err := repos.catalog.GetByIdentity(context.Background(), 2024, model.SemesterFall, "CS101", "001")
	if err != nil {
		t.Fatalf("导入的课程应可查询，实际: %v", err)
	}
	if created.ClassTimeMask == nil || created.ClassTimeMask.IsEmpty() {
		t.Error("导入时应计算时间掩码")
	}
	if created.ClassTime == "" {
		t.Error("缺省的上课时间文本应由时间段生成")
	}

	books, _ := repos.books.List(context.Background())
	if len(books) != 1 || books[0].Year != 2024 || books[0].Semester != model.SemesterFall {
		t.Errorf("应登记课程手册，实际: %+v", books)
	}
}

func TestCatalogImport_InvalidSemester(t *testing.T) {
	repo, _ := newTestRepos()
	importer := NewCatalogImporter(repo, nil, zap.NewNop())

	if _, err := importer.Import(context.Background(), 2024, 9, nil); !errors.Is(err, ErrTimetableParamsMissing) {
		t.Errorf("期望 ErrTimetableParamsMissing，实际: %v", err)
	}
}

func TestCatalogImport_InvalidatesCache(t *testing.T) {
	repo, repos := newTestRepos()
	cache := newMemoryCache()
	gw := NewCatalogGateway(repo, cache, time.Minute, zap.NewNop())
	ctx := context.Background()

	repos.books.books = []model.CourseBook{{Year: 2024, Semester: model.SemesterSummer}}
	if book, err := gw.RecentCourseBook(ctx); err != nil || book.Semester != model.SemesterSummer {
		t.Fatalf("预热缓存失败: %+v, err=%v", book, err)
	}
	if _, err := gw.ListEntries(ctx, 2024, model.SemesterFall); err != nil {
		t.Fatalf("预热学期列表失败: %v", err)
	}

	importer := NewCatalogImporter(repo, cache, zap.NewNop())
	rows := []CatalogImportRow{{Row: 2, Lecture: model.Lecture{
		CourseNumber: "CS101", LectureNumber: "001", CourseTitle: "Algorithms", ClassTimeJSON: []model.TimeInterval{iv(0, 9, 1)},
	}}}
	if _, err := importer.Import(ctx, 2024, model.SemesterFall, rows); err != nil {
		t.Fatalf("导入失败: %v", err)
	}

	book, err := gw.RecentCourseBook(ctx)
	if err != nil || book.Semester != model.SemesterFall {
		t.Errorf("导入后应读到新学期课程手册，实际: %+v, err=%v", book, err)
	}
	lectures, err := gw.ListEntries(ctx, 2024, model.SemesterFall)
	if err != nil || len(lectures) != 1 {
		t.Errorf("导入后学期列表应包含新课程，实际: %d, err=%v", len(lectures), err)
	}
}
