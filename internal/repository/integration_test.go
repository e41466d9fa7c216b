//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"course-planner/internal/model"
	"course-planner/internal/repository"
	pkgerrors "course-planner/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup（PostgreSQL，验证 BIGINT[] / JSONB 列与条件写入）
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=planner password=planner_password dbname=course_planner_test sslmode=disable TimeZone=Asia/Seoul"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	err = testDB.AutoMigrate(
		&model.CatalogLecture{},
		&model.CourseBook{},
		&model.Timetable{},
		&model.TimetableChangeLog{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func createTestTimetable(t *testing.T, repo *repository.Repository) *model.Timetable {
	t.Helper()
	tt := &model.Timetable{
		UserID:   fmt.Sprintf("it-user-%d", time.Now().UnixNano()),
		Year:     2024,
		Semester: model.SemesterFall,
		Title:    "Integration",
	}
	if err := repo.Timetable.Create(context.Background(), tt); err != nil {
		t.Fatalf("创建时间表失败: %v", err)
	}
	t.Cleanup(func() {
		testDB.Where("timetable_id = ?", tt.TimetableID).Delete(&model.Timetable{})
	})
	return tt
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Timetable_ConflictDetected(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	tt := createTestTimetable(t, repo)

	// 模拟并发：获取两份副本
	copy1, _ := repo.Timetable.GetByID(ctx, tt.UserID, tt.TimetableID)
	copy2, _ := repo.Timetable.GetByID(ctx, tt.UserID, tt.TimetableID)

	copy1.LectureList = append(copy1.LectureList, sampleEntry("e1", 0, 13))
	if err := repo.Timetable.ConditionalReplace(ctx, copy1); err != nil {
		t.Fatalf("第一次写入应成功: %v", err)
	}

	copy2.LectureList = append(copy2.LectureList, sampleEntry("e2", 0, 13))
	err := repo.Timetable.ConditionalReplace(ctx, copy2)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}

	got, _ := repo.Timetable.GetByID(ctx, tt.UserID, tt.TimetableID)
	if len(got.LectureList) != 1 || got.LectureList[0].EntryID != "e1" {
		t.Errorf("落库内容应只含第一次写入，实际: %+v", got.LectureList)
	}
}

func TestOptimisticLock_Timetable_VersionIncrement(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	tt := createTestTimetable(t, repo)

	for i := 0; i < 3; i++ {
		tt.Title = fmt.Sprintf("Integration-%d", i)
		if err := repo.Timetable.ConditionalReplace(ctx, tt); err != nil {
			t.Fatalf("第 %d 次写入失败: %v", i+1, err)
		}
	}
	if tt.Version != 4 {
		t.Errorf("3 次写入后 version 应为 4，得到: %d", tt.Version)
	}
}

func TestDuplicateTitle_TranslatedError(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	tt := createTestTimetable(t, repo)

	dup := &model.Timetable{UserID: tt.UserID, Year: tt.Year, Semester: tt.Semester, Title: tt.Title}
	err := repo.Timetable.Create(ctx, dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("期望 gorm.ErrDuplicatedKey，得到: %v", err)
	}
}

func TestCatalogLecture_MaskColumn(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	lec := model.CatalogLecture{
		Year: 2099, Semester: model.SemesterSpring,
		Lecture: model.Lecture{
			CourseTitle:   "Integration",
			CourseNumber:  fmt.Sprintf("IT%d", time.Now().UnixNano()%1e6),
			LectureNumber: "001",
			ClassTimeJSON: []model.TimeInterval{{Day: 4, Start: 18, Len: 3}},
		},
	}
	if err := lec.SetTimeMask(); err != nil {
		t.Fatalf("SetTimeMask 失败: %v", err)
	}
	if err := repo.CatalogLecture.BatchCreate(ctx, []model.CatalogLecture{lec}); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}
	defer testDB.Where("year = ?", 2099).Delete(&model.CatalogLecture{})

	got, err := repo.CatalogLecture.GetByIdentity(ctx, 2099, model.SemesterSpring, lec.CourseNumber, "001")
	if err != nil {
		t.Fatalf("GetByIdentity 失败: %v", err)
	}
	if got.Mask() != lec.Mask() {
		t.Errorf("BIGINT[] 掩码往返不一致: 期望 %v，得到 %v", lec.Mask(), got.Mask())
	}
}
