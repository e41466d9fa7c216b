package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-planner/internal/dto"
	"course-planner/internal/service"
	"course-planner/pkg/response"
)

// TimetableHandler 时间表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// ═══════════════════════════════════════════════════════════
// 时间表
// ═══════════════════════════════════════════════════════════

// List 我的全部时间表（摘要）
// GET /api/v1/timetables
func (h *TimetableHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetRecent 最近修改的时间表
// GET /api/v1/timetables/recent
func (h *TimetableHandler) GetRecent(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetRecent(c.Request.Context(), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListBySemester 某学期的时间表
// GET /api/v1/timetables/semester/:year/:semester
func (h *TimetableHandler) ListBySemester(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	year, semester, ok := parseYearSemester(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListBySemester(c.Request.Context(), userID, year, semester)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Create 创建时间表
// POST /api/v1/timetables
func (h *TimetableHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15000, err.Error())
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// CreateDefault 按最新课程手册创建默认时间表
// POST /api/v1/timetables/default
func (h *TimetableHandler) CreateDefault(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.CreateDefault(c.Request.Context(), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// Get 获取时间表
// GET /api/v1/timetables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Rename 修改标题
// PUT /api/v1/timetables/:id/title
func (h *TimetableHandler) Rename(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.RenameTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15000, err.Error())
		return
	}
	resp, err := h.svc.Rename(c.Request.Context(), userID, c.Param("id"), req.Title)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// Copy 复制时间表
// POST /api/v1/timetables/:id/copy
func (h *TimetableHandler) Copy(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Copy(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// Delete 删除时间表
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// ═══════════════════════════════════════════════════════════
// 课程条目
// ═══════════════════════════════════════════════════════════

// AddFromCatalog 从目录添加课程
// POST /api/v1/timetables/:id/lectures/catalog/:lectureId
func (h *TimetableHandler) AddFromCatalog(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.AddFromCatalog(c.Request.Context(), userID, c.Param("id"), c.Param("lectureId"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// AddCustom 添加自定义课程
// POST /api/v1/timetables/:id/lectures
func (h *TimetableHandler) AddCustom(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateCustomLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15000, err.Error())
		return
	}
	resp, err := h.svc.AddCustom(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// ImportICS 从 ICS 导入自定义课程
// POST /api/v1/timetables/:id/lectures/import
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"
//   - URL 导入: application/json, body={"url": "..."}
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	timetableID := c.Param("id")

	// 尝试文件上传方式
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		resp, err := h.svc.ImportICS(c.Request.Context(), userID, timetableID, file)
		if err != nil {
			handleTimetableError(c, err)
			return
		}
		response.Created(c, resp)
		return
	}

	// 尝试 URL 方式
	var req dto.ImportICSRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 15000, "请上传 ICS 文件或提供 ICS URL")
		return
	}

	body, err := service.FetchICSContent(req.URL)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 15020, "ICS URL 获取失败", err.Error())
		return
	}
	defer body.Close()

	resp, err := h.svc.ImportICS(c.Request.Context(), userID, timetableID, body)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.Created(c, resp)
}

// UpdateEntry 部分更新课程条目
// PUT /api/v1/timetables/:id/lectures/:entryId
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15000, err.Error())
		return
	}
	resp, err := h.svc.UpdateEntry(c.Request.Context(), userID, c.Param("id"), c.Param("entryId"), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// ResetEntry 同步为目录当前值
// PUT /api/v1/timetables/:id/lectures/:entryId/reset
func (h *TimetableHandler) ResetEntry(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ResetEntry(c.Request.Context(), userID, c.Param("id"), c.Param("entryId"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// DeleteEntry 删除课程条目
// DELETE /api/v1/timetables/:id/lectures/:entryId
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.DeleteEntry(c.Request.Context(), userID, c.Param("id"), c.Param("entryId"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, resp)
}

// FindEntryID 按课程号 + 分班号查找条目
// GET /api/v1/timetables/:id/lectures/find?course_number=&lecture_number=
func (h *TimetableHandler) FindEntryID(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.FindEntryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15000, err.Error())
		return
	}
	entryID, err := h.svc.FindEntryID(c.Request.Context(), userID, c.Param("id"), req.CourseNumber, req.LectureNumber)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, dto.EntryIDResponse{EntryID: entryID})
}

// ListChanges 条目变更记录
// GET /api/v1/timetables/:id/changes?page=&page_size=
func (h *TimetableHandler) ListChanges(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 15000, err.Error())
		return
	}
	items, total, err := h.svc.ListChanges(c.Request.Context(), userID, c.Param("id"), &page)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OKPage(c, items, total, page.GetPage(), page.GetPageSize())
}

// handleTimetableError 统一时间表模块错误映射
func handleTimetableError(c *gin.Context, err error) {
	switch {
	// 校验
	case errors.Is(err, service.ErrTimetableParamsMissing):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15001, "时间表参数缺失", err.Error())
	case errors.Is(err, service.ErrNoLectureTitle):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15002, "课程名称不能为空", err.Error())
	case errors.Is(err, service.ErrNotCustomLecture):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15003, "自定义课程不能携带课程号", err.Error())
	case errors.Is(err, service.ErrAttemptToModifyIdentity):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15004, "不允许修改课程身份", err.Error())
	case errors.Is(err, service.ErrInvalidColor):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15005, "课程颜色无效", err.Error())
	case errors.Is(err, service.ErrInvalidTimeMask):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15006, "上课时间无效", err.Error())
	case errors.Is(err, service.ErrICSParseFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15018, "ICS 文件解析失败", err.Error())
	case errors.Is(err, service.ErrICSEmpty):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15019, "ICS 文件中无有效课程", err.Error())

	// 冲突
	case errors.Is(err, service.ErrLectureTimeOverlap):
		response.ErrorWithDetails(c, http.StatusConflict, 15007, "上课时间冲突", err.Error())
	case errors.Is(err, service.ErrDuplicateLecture):
		response.ErrorWithDetails(c, http.StatusConflict, 15008, "课程已存在", err.Error())
	case errors.Is(err, service.ErrDuplicateTimetableTitle):
		response.ErrorWithDetails(c, http.StatusConflict, 15009, "时间表标题重复", err.Error())
	case errors.Is(err, service.ErrWrongSemester):
		response.ErrorWithDetails(c, http.StatusConflict, 15010, "学期不匹配", err.Error())
	case errors.Is(err, service.ErrIsCustomLecture):
		response.ErrorWithDetails(c, http.StatusConflict, 15011, "自定义课程无法同步", err.Error())
	case errors.Is(err, service.ErrConcurrentModification):
		response.ErrorWithDetails(c, http.StatusConflict, 15016, "时间表正在被修改", err.Error())
	case errors.Is(err, service.ErrTitleGenerationExhausted):
		response.ErrorWithDetails(c, http.StatusConflict, 15017, "无法生成副本标题", err.Error())

	// 不存在
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 15012, err.Error())
	case errors.Is(err, service.ErrLectureNotFound):
		response.NotFound(c, 15013, err.Error())
	case errors.Is(err, service.ErrCatalogLectureNotFound):
		response.NotFound(c, 15014, err.Error())
	case errors.Is(err, service.ErrCourseBookNotFound):
		response.NotFound(c, 15015, err.Error())

	default:
		response.InternalError(c)
	}
}
