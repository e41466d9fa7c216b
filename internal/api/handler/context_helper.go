package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"course-planner/pkg/response"
)

// ctxUserID JWTAuth 注入的用户 ID 键
const ctxUserID = "user_id"

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ctxUserID)
	if userID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return userID, true
}

// parseYearSemester 解析路径参数 :year/:semester
// 仅做数字解析，取值范围由 Service 层校验；失败时写入 400
func parseYearSemester(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		response.BadRequest(c, 15000, "year 参数无效")
		return 0, 0, false
	}
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.BadRequest(c, 15000, "semester 参数无效")
		return 0, 0, false
	}
	return year, semester, true
}
