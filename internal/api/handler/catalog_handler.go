package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-planner/internal/service"
	"course-planner/pkg/response"
)

// CatalogHandler 课程目录 Handler
type CatalogHandler struct {
	svc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler 实例
func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListCourseBooks 课程手册列表
// GET /api/v1/catalog/course-books
func (h *CatalogHandler) ListCourseBooks(c *gin.Context) {
	resp, err := h.svc.ListCourseBooks(c.Request.Context())
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListLectures 某学期的目录课程
// GET /api/v1/catalog/:year/:semester/lectures
func (h *CatalogHandler) ListLectures(c *gin.Context) {
	year, semester, ok := parseYearSemester(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListLectures(c.Request.Context(), year, semester)
	if err != nil {
		handleCatalogError(c, err)
		return
	}
	response.OK(c, resp)
}

func handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableParamsMissing):
		response.ErrorWithDetails(c, http.StatusBadRequest, 17001, "学年或学期无效", err.Error())
	case errors.Is(err, service.ErrCourseBookNotFound):
		response.NotFound(c, 17002, err.Error())
	default:
		response.InternalError(c)
	}
}
