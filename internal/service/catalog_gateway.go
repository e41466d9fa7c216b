package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-planner/internal/model"
	"course-planner/internal/repository"
)

var (
	ErrCatalogLectureNotFound = errors.New("目录中不存在该课程")
	ErrCourseBookNotFound     = errors.New("暂无课程手册")
)

// CatalogGateway 只读课程目录
type CatalogGateway interface {
	GetEntry(ctx context.Context, id string) (*model.CatalogLecture, error)
	FindEntry(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error)
	// FindEntryFresh 同 FindEntry，但始终读库并回填缓存（重置条目时使用）
	FindEntryFresh(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error)
	ListEntries(ctx context.Context, year, semester int) ([]model.CatalogLecture, error)
	RecentCourseBook(ctx context.Context) (*model.CourseBook, error)
	ListCourseBooks(ctx context.Context) ([]model.CourseBook, error)
}

// JSONCache 读穿缓存（pkg/redis.Client 实现）
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteJSON(ctx context.Context, keys ...string) error
}

// ── 缓存键 ──

const (
	catalogRecentBookKey = "catalog:course_book:recent"
	catalogBookListKey   = "catalog:course_books"
)

func catalogLectureKey(id string) string { return "catalog:lecture:" + id }

func catalogIdentityKey(year, semester int, courseNumber, lectureNumber string) string {
	return fmt.Sprintf("catalog:identity:%d:%d:%s:%s", year, semester, courseNumber, lectureNumber)
}

func catalogSemesterKey(year, semester int) string {
	return fmt.Sprintf("catalog:semester:%d:%d", year, semester)
}

// catalogImportKeys 导入某学期目录后失效的键（课程手册与该学期列表）
func catalogImportKeys(year, semester int) []string {
	return []string{catalogRecentBookKey, catalogBookListKey, catalogSemesterKey(year, semester)}
}

// NewCatalogGateway 创建目录网关；cache 为 nil 或 ttl 为 0 时直接读库
func NewCatalogGateway(repo *repository.Repository, cache JSONCache, ttl time.Duration, logger *zap.Logger) CatalogGateway {
	var gw CatalogGateway = &repoCatalogGateway{repo: repo}
	if cache != nil && ttl > 0 {
		gw = &cachedCatalogGateway{next: gw, cache: cache, ttl: ttl, logger: logger}
	}
	return gw
}

// ════════════════════════════════════════════════════════════
// 数据库实现
// ════════════════════════════════════════════════════════════

type repoCatalogGateway struct {
	repo *repository.Repository
}

func (g *repoCatalogGateway) GetEntry(ctx context.Context, id string) (*model.CatalogLecture, error) {
	lecture, err := g.repo.CatalogLecture.GetByID(ctx, id)
	if err != nil {
		return nil, mapCatalogErr(err)
	}
	return lecture, nil
}

func (g *repoCatalogGateway) FindEntry(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error) {
	lecture, err := g.repo.CatalogLecture.GetByIdentity(ctx, year, semester, courseNumber, lectureNumber)
	if err != nil {
		return nil, mapCatalogErr(err)
	}
	return lecture, nil
}

func (g *repoCatalogGateway) FindEntryFresh(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error) {
	return g.FindEntry(ctx, year, semester, courseNumber, lectureNumber)
}

func (g *repoCatalogGateway) ListEntries(ctx context.Context, year, semester int) ([]model.CatalogLecture, error) {
	lectures, err := g.repo.CatalogLecture.ListBySemester(ctx, year, semester)
	if err != nil {
		return nil, fmt.Errorf("查询目录课程失败: %w", err)
	}
	return lectures, nil
}

func (g *repoCatalogGateway) RecentCourseBook(ctx context.Context) (*model.CourseBook, error) {
	book, err := g.repo.CourseBook.GetRecent(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询课程手册失败: %w", err)
	}
	return book, nil
}

func (g *repoCatalogGateway) ListCourseBooks(ctx context.Context) ([]model.CourseBook, error) {
	books, err := g.repo.CourseBook.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询课程手册失败: %w", err)
	}
	return books, nil
}

func mapCatalogErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCatalogLectureNotFound
	}
	return fmt.Errorf("查询目录课程失败: %w", err)
}

// ════════════════════════════════════════════════════════════
// Redis 读穿缓存（不缓存未命中；缓存故障降级为直接读库）
// ════════════════════════════════════════════════════════════

type cachedCatalogGateway struct {
	next   CatalogGateway
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

func (g *cachedCatalogGateway) GetEntry(ctx context.Context, id string) (*model.CatalogLecture, error) {
	return readThrough(ctx, g, catalogLectureKey(id), func() (*model.CatalogLecture, error) {
		return g.next.GetEntry(ctx, id)
	})
}

func (g *cachedCatalogGateway) FindEntry(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error) {
	key := catalogIdentityKey(year, semester, courseNumber, lectureNumber)
	return readThrough(ctx, g, key, func() (*model.CatalogLecture, error) {
		return g.next.FindEntry(ctx, year, semester, courseNumber, lectureNumber)
	})
}

func (g *cachedCatalogGateway) FindEntryFresh(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.CatalogLecture, error) {
	lecture, err := g.next.FindEntryFresh(ctx, year, semester, courseNumber, lectureNumber)
	if err != nil {
		return nil, err
	}
	g.store(ctx, catalogIdentityKey(year, semester, courseNumber, lectureNumber), lecture)
	return lecture, nil
}

func (g *cachedCatalogGateway) ListEntries(ctx context.Context, year, semester int) ([]model.CatalogLecture, error) {
	return readThrough(ctx, g, catalogSemesterKey(year, semester), func() ([]model.CatalogLecture, error) {
		return g.next.ListEntries(ctx, year, semester)
	})
}

func (g *cachedCatalogGateway) RecentCourseBook(ctx context.Context) (*model.CourseBook, error) {
	return readThrough(ctx, g, catalogRecentBookKey, func() (*model.CourseBook, error) {
		return g.next.RecentCourseBook(ctx)
	})
}

func (g *cachedCatalogGateway) ListCourseBooks(ctx context.Context) ([]model.CourseBook, error) {
	return readThrough(ctx, g, catalogBookListKey, func() ([]model.CourseBook, error) {
		return g.next.ListCourseBooks(ctx)
	})
}

func readThrough[T any](ctx context.Context, g *cachedCatalogGateway, key string, load func() (T, error)) (T, error) {
	var cached T
	hit, err := g.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		g.logger.Warn("读取目录缓存失败，降级为直接查询", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	g.store(ctx, key, value)
	return value, nil
}

func (g *cachedCatalogGateway) store(ctx context.Context, key string, value interface{}) {
	if err := g.cache.SetJSON(ctx, key, value, g.ttl); err != nil {
		g.logger.Warn("写入目录缓存失败", zap.String("key", key), zap.Error(err))
	}
}
