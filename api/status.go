package api

import (
	"cashflow/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReferenceRequest 状态 / 流水类型创建与整体更新
type ReferenceRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"经营"`
	Description string `json:"description" example:"经营相关收支"`
}

// ReferencePatchRequest 状态 / 流水类型部分更新
type ReferencePatchRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

func (r ReferenceRequest) patch() service.ReferencePatch {
	return service.ReferencePatch{Name: &r.Name, Description: &r.Description}
}

func (r ReferencePatchRequest) patch() service.ReferencePatch {
	return service.ReferencePatch{Name: r.Name, Description: r.Description}
}

// StatusHandler 状态管理
type StatusHandler struct {
	refs *service.ReferenceService
	log  *zap.Logger
}

func NewStatusHandler(refs *service.ReferenceService, log *zap.Logger) *StatusHandler {
	return &StatusHandler{refs: refs, log: log}
}

// List 状态列表
// @Summary 获取状态列表
// @Description 按名称排序返回全部状态
// @Tags 状态
// @Produce json
// @Success 200 {object} Response{data=[]models.Status} "获取成功"
// @Router /api/v1/statuses [get]
func (h *StatusHandler) List(c *gin.Context) {
	list, err := h.refs.ListStatuses(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "查询状态失败")
		return
	}
	Success(c, list)
}

// Get 状态详情
// @Summary 获取状态详情
// @Tags 状态
// @Produce json
// @Param id path int true "状态ID"
// @Success 200 {object} Response{data=models.Status} "获取成功"
// @Failure 404 {object} Response "状态不存在"
// @Router /api/v1/statuses/{id} [get]
func (h *StatusHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	st, err := h.refs.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "查询状态失败")
		return
	}
	Success(c, st)
}

// Create 创建状态
// @Summary 创建状态
// @Tags 状态
// @Accept json
// @Produce json
// @Param request body ReferenceRequest true "状态信息"
// @Success 200 {object} Response{data=models.Status} "创建成功"
// @Failure 400 {object} Response{data=RejectDetail} "参数错误"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/statuses [post]
func (h *StatusHandler) Create(c *gin.Context) {
	var req ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	st, err := h.refs.CreateStatus(c.Request.Context(), service.ReferenceInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(c, h.log, err, "创建状态失败")
		return
	}
	SuccessWithMessage(c, "创建成功", st)
}

// Update 整体更新状态
// @Summary 更新状态
// @Tags 状态
// @Accept json
// @Produce json
// @Param id path int true "状态ID"
// @Param request body ReferenceRequest true "状态信息"
// @Success 200 {object} Response{data=models.Status} "更新成功"
// @Failure 404 {object} Response "状态不存在"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/statuses/{id} [put]
func (h *StatusHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.update(c, id, req.patch())
}

// Patch 部分更新状态
// @Summary 部分更新状态
// @Tags 状态
// @Accept json
// @Produce json
// @Param id path int true "状态ID"
// @Param request body ReferencePatchRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.Status} "更新成功"
// @Router /api/v1/statuses/{id} [patch]
func (h *StatusHandler) Patch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ReferencePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.update(c, id, req.patch())
}

func (h *StatusHandler) update(c *gin.Context, id uint, p service.ReferencePatch) {
	st, err := h.refs.UpdateStatus(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, h.log, err, "更新状态失败")
		return
	}
	SuccessWithMessage(c, "更新成功", st)
}

// Delete 删除（归档）状态
// @Summary 删除状态
// @Description 同时归档引用该状态的流水；存在依赖时需带 confirm=true
// @Tags 状态
// @Produce json
// @Param id path int true "状态ID"
// @Param confirm query bool false "确认级联归档"
// @Success 200 {object} Response{data=service.CascadeImpact} "删除成功"
// @Failure 409 {object} Response{data=CascadeDetail} "需要确认"
// @Router /api/v1/statuses/{id} [delete]
func (h *StatusHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	impact, err := h.refs.DeleteStatus(c.Request.Context(), id, confirmed(c))
	if err != nil {
		respondError(c, h.log, err, "删除状态失败")
		return
	}
	SuccessWithMessage(c, "删除成功", impact)
}
