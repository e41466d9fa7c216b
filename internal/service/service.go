package service

import (
	"time"

	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/internal/repository"
	"course-planner/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Timetable TimetableService
	Catalog   CatalogService
	Export    ExportService
}

// NewService 创建 Service 聚合
//
// rdb 为 nil 时：写锁退化为进程内锁，目录不走缓存。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	loc, err := time.LoadLocation(cfg.Database.Timezone)
	if err != nil {
		logger.Warn("时区加载失败，使用 UTC", zap.String("timezone", cfg.Database.Timezone), zap.Error(err))
		loc = time.UTC
	}

	var (
		locker Locker
		cache  JSONCache
	)
	if rdb != nil {
		locker = NewRedisLocker(rdb, cfg.Redis.LockTTL, cfg.Redis.LockWait, logger)
		cache = rdb
	} else {
		locker = NewLocalLocker()
	}

	catalog := NewCatalogGateway(repo, cache, cfg.Redis.CatalogCacheTTL, logger)
	timetables := NewTimetableService(
		repo,
		catalog,
		NewColorAllocator(cfg.Engine.NumColors, nil),
		locker,
		NewChangeLogNotifier(repo, logger),
		cfg.Engine,
		loc,
		logger,
	)

	return &Service{
		Timetable: timetables,
		Catalog:   NewCatalogService(catalog, logger),
		Export:    NewExportService(timetables, loc, logger),
	}
}
