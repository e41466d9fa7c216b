package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/internal/api/handler"
	"course-planner/pkg/jwt"
)

func newTestEngine(checks map[string]HealthCheck) http.Handler {
	cfg := &config.Config{
		Server: config.ServerConfig{BodyLimit: 1 << 20, RateLimit: 10, RateWindow: time.Minute},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret"},
	}
	h := &handler.Handler{
		Timetable: handler.NewTimetableHandler(nil),
		Catalog:   handler.NewCatalogHandler(nil),
		Export:    handler.NewExportHandler(nil),
	}
	return Setup(cfg, h, jwt.NewManager(&cfg.Auth), nil, checks, zap.NewNop())
}

func TestSetup_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestEngine(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}).ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("响应应携带 X-Request-ID")
	}
}

func TestSetup_HealthDegraded(t *testing.T) {
	engine := newTestEngine(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("期望 503，实际: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"redis":"unreachable"`) {
		t.Errorf("响应应标明不可达的依赖: %s", w.Body.String())
	}
}

func TestSetup_RequiresAuth(t *testing.T) {
	engine := newTestEngine(nil)
	paths := []struct{ method, path string }{
		{"GET", "/api/v1/timetables"},
		{"GET", "/api/v1/timetables/recent"},
		{"POST", "/api/v1/timetables/tt-1/lectures"},
		{"PUT", "/api/v1/timetables/tt-1/lectures/e-1/reset"},
		{"GET", "/api/v1/timetables/tt-1/export/xlsx"},
		{"GET", "/api/v1/catalog/course-books"},
		{"GET", "/api/v1/catalog/2024/3/lectures"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: 期望 401，实际: %d", p.method, p.path, w.Code)
		}
	}
}

func TestSetup_UnknownRoute(t *testing.T) {
	w := httptest.NewRecorder()
	newTestEngine(nil).ServeHTTP(w, httptest.NewRequest("GET", "/api/v2/timetables", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际: %d", w.Code)
	}
}
