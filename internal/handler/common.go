package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/logger"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallerProfiles 根据账号解析调用者的资料ID，由 service.ProfileService 实现
type CallerProfiles interface {
	ProfileIDForUser(ctx context.Context, userID uint) (string, error)
}

// writeError 将业务错误映射为HTTP状态码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "邮箱或密码错误")
	case errors.Is(err, service.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, err.Error())
	default:
		logger.Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.ErrorWithDetails(c, http.StatusInternalServerError, "服务器内部错误", err)
	}
}

// callerProfileID 当前登录账号的资料ID，失败时已写回响应
func callerProfileID(c *gin.Context, profiles CallerProfiles) (string, bool) {
	userID := jwt.GetUserIDUint(c)
	if userID == 0 {
		response.Unauthorized(c, "用户未认证")
		return "", false
	}
	pid, err := profiles.ProfileIDForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return pid, true
}

// currentActor 当前操作者
func currentActor(c *gin.Context) service.Actor {
	return service.Actor{UserID: jwt.GetUserIDUint(c), Role: jwt.GetRole(c)}
}

func isAdmin(c *gin.Context) bool {
	return jwt.GetRole(c) == model.RoleAdmin
}

// uintParam 解析路径中的数字ID
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的"+name)
		return 0, false
	}
	return uint(id), true
}

// pageQuery 解析 page / limit 查询参数
func pageQuery(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return repository.Page{Page: page, Limit: limit}.Normalize()
}

// paged 写回分页结果
func paged(c *gin.Context, items interface{}, total int64, page repository.Page) {
	response.Success(c, response.NewPaged(items, total, page.Page, page.Limit))
}

// parseStatus 解析意向状态，兼容单字母写法
func parseStatus(raw string) (model.InterestStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case "p", string(model.InterestPending):
		return model.InterestPending, true
	case "a", string(model.InterestAccepted):
		return model.InterestAccepted, true
	case "d", string(model.InterestDeclined):
		return model.InterestDeclined, true
	}
	return "", false
}
