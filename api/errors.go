package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cashflow/middleware"
	"cashflow/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CascadeDetail 删除会级联归档依赖记录时返回，带 confirm=true 重试即可执行
type CascadeDetail struct {
	Warning string                `json:"warning" example:"integrity_cascade"`
	Entity  string                `json:"entity"`
	ID      uint                  `json:"id"`
	Impact  service.CascadeImpact `json:"impact"`
	Confirm string                `json:"confirm" example:"confirm=true"`
}

// respondError 把业务错误翻译为 HTTP 响应；未知错误记录日志后返回 500
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	var (
		verr     *service.ValidationError
		nf       *service.NotFoundError
		conflict *service.ConflictError
		warn     *service.CascadeWarning
	)
	switch {
	case errors.As(err, &verr):
		ErrorWithData(c, http.StatusBadRequest, verr.Message, RejectDetail{Reason: string(verr.Reason), Field: verr.Field})
	case errors.As(err, &nf):
		if nf.Reference {
			ErrorWithData(c, http.StatusBadRequest, nf.Error(), RejectDetail{Reason: string(service.ReasonInvalidInput)})
			return
		}
		NotFound(c, nf.Error())
	case errors.As(err, &conflict):
		Conflict(c, conflict.Message)
	case errors.As(err, &warn):
		ErrorWithData(c, http.StatusConflict, warn.Error(), CascadeDetail{
			Warning: "integrity_cascade",
			Entity:  warn.Entity,
			ID:      warn.ID,
			Impact:  warn.Impact,
			Confirm: "confirm=true",
		})
	default:
		log.Error(fallback,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", middleware.GetRequestID(c)))
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}

// parseID 解析路径参数 id，失败时已写入 400 响应
func parseID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id64 == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id64), true
}

// optionalID 可选的正整数查询参数
func optionalID(c *gin.Context, key string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	id64, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id64 == 0 {
		BadRequest(c, key+" 必须为正整数")
		return nil, false
	}
	id := uint(id64)
	return &id, true
}

// confirmed 删除时是否已确认级联
func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

// bindError 请求体解析失败
func bindError(c *gin.Context, err error) {
	BadRequest(c, "参数错误: "+err.Error())
}
