package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/internal/api/handler"
	"course-planner/internal/api/middleware"
	"course-planner/pkg/jwt"
)

// HealthCheck 单个依赖的存活探测
type HealthCheck func(ctx context.Context) error

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流；checks 按名称列出 /health 需要探测的依赖
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, checks map[string]HealthCheck, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(checks))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	v1.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit, cfg.Server.RateWindow))
	{
		// 时间表模块
		timetables := v1.Group("/timetables")
		{
			timetables.GET("", h.Timetable.List)
			timetables.GET("/recent", h.Timetable.GetRecent)
			timetables.GET("/semester/:year/:semester", h.Timetable.ListBySemester)
			timetables.POST("", h.Timetable.Create)
			timetables.POST("/default", h.Timetable.CreateDefault)
			timetables.GET("/:id", h.Timetable.Get)
			timetables.DELETE("/:id", h.Timetable.Delete)
			timetables.PUT("/:id/title", h.Timetable.Rename)
			timetables.POST("/:id/copy", h.Timetable.Copy)
			timetables.GET("/:id/changes", h.Timetable.ListChanges)

			// 课程条目
			timetables.POST("/:id/lectures", h.Timetable.AddCustom)
			timetables.POST("/:id/lectures/catalog/:lectureId", h.Timetable.AddFromCatalog)
			timetables.POST("/:id/lectures/import", h.Timetable.ImportICS)
			timetables.GET("/:id/lectures/find", h.Timetable.FindEntryID)
			timetables.PUT("/:id/lectures/:entryId", h.Timetable.UpdateEntry)
			timetables.DELETE("/:id/lectures/:entryId", h.Timetable.DeleteEntry)
			timetables.PUT("/:id/lectures/:entryId/reset", h.Timetable.ResetEntry)

			// 导出
			timetables.GET("/:id/export/ics", h.Export.ExportICS)
			timetables.GET("/:id/export/xlsx", h.Export.ExportExcel)
		}

		// 课程目录模块（只读）
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/course-books", h.Catalog.ListCourseBooks)
			catalog.GET("/:year/:semester/lectures", h.Catalog.ListLectures)
		}
	}

	return r
}

// healthHandler 逐项探测依赖，全部可达返回 200，否则 503
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		components := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = "unreachable"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}
		c.JSON(code, gin.H{"status": status, "components": components})
	}
}
