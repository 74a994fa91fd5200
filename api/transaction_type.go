package api

import (
	"cashflow/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TransactionTypeHandler 流水类型管理
type TransactionTypeHandler struct {
	refs *service.ReferenceService
	log  *zap.Logger
}

func NewTransactionTypeHandler(refs *service.ReferenceService, log *zap.Logger) *TransactionTypeHandler {
	return &TransactionTypeHandler{refs: refs, log: log}
}

// List 流水类型列表
// @Summary 获取流水类型列表
// @Description 按名称排序返回全部流水类型
// @Tags 流水类型
// @Produce json
// @Success 200 {object} Response{data=[]models.TransactionType} "获取成功"
// @Router /api/v1/transaction-types [get]
func (h *TransactionTypeHandler) List(c *gin.Context) {
	list, err := h.refs.ListTransactionTypes(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "查询流水类型失败")
		return
	}
	Success(c, list)
}

// Get 流水类型详情
// @Summary 获取流水类型详情
// @Tags 流水类型
// @Produce json
// @Param id path int true "流水类型ID"
// @Success 200 {object} Response{data=models.TransactionType} "获取成功"
// @Failure 404 {object} Response "流水类型不存在"
// @Router /api/v1/transaction-types/{id} [get]
func (h *TransactionTypeHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tt, err := h.refs.GetTransactionType(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "查询流水类型失败")
		return
	}
	Success(c, tt)
}

// Create 创建流水类型
// @Summary 创建流水类型
// @Tags 流水类型
// @Accept json
// @Produce json
// @Param request body ReferenceRequest true "流水类型信息"
// @Success 200 {object} Response{data=models.TransactionType} "创建成功"
// @Failure 400 {object} Response{data=RejectDetail} "参数错误"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/transaction-types [post]
func (h *TransactionTypeHandler) Create(c *gin.Context) {
	var req ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	tt, err := h.refs.CreateTransactionType(c.Request.Context(), service.ReferenceInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(c, h.log, err, "创建流水类型失败")
		return
	}
	SuccessWithMessage(c, "创建成功", tt)
}

// Update 整体更新流水类型
// @Summary 更新流水类型
// @Tags 流水类型
// @Accept json
// @Produce json
// @Param id path int true "流水类型ID"
// @Param request body ReferenceRequest true "流水类型信息"
// @Success 200 {object} Response{data=models.TransactionType} "更新成功"
// @Failure 404 {object} Response "流水类型不存在"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/transaction-types/{id} [put]
func (h *TransactionTypeHandler) Update(c *gin.Context) {
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

// Patch 部分更新流水类型
// @Summary 部分更新流水类型
// @Tags 流水类型
// @Accept json
// @Produce json
// @Param id path int true "流水类型ID"
// @Param request body ReferencePatchRequest true "需要修改的字段"
// @Success 200 {object} Response{data=models.TransactionType} "更新成功"
// @Router /api/v1/transaction-types/{id} [patch]
func (h *TransactionTypeHandler) Patch(c *gin.Context) {
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

func (h *TransactionTypeHandler) update(c *gin.Context, id uint, p service.ReferencePatch) {
	tt, err := h.refs.UpdateTransactionType(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, h.log, err, "更新流水类型失败")
		return
	}
	SuccessWithMessage(c, "更新成功", tt)
}

// Delete 删除（归档）流水类型
// @Summary 删除流水类型
// @Description 同时归档该类型下的全部分类及相关流水；存在依赖时需带 confirm=true
// @Tags 流水类型
// @Produce json
// @Param id path int true "流水类型ID"
// @Param confirm query bool false "确认级联归档"
// @Success 200 {object} Response{data=service.CascadeImpact} "删除成功"
// @Failure 409 {object} Response{data=CascadeDetail} "需要确认"
// @Router /api/v1/transaction-types/{id} [delete]
func (h *TransactionTypeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	impact, err := h.refs.DeleteTransactionType(c.Request.Context(), id, confirmed(c))
	if err != nil {
		respondError(c, h.log, err, "删除流水类型失败")
		return
	}
	SuccessWithMessage(c, "删除成功", impact)
}
