package api

import (
	"encoding/json"

	"cashflow/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CategoryHandler 分类树管理
type CategoryHandler struct {
	cats *service.CategoryService
	log  *zap.Logger
}

func NewCategoryHandler(cats *service.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{cats: cats, log: log}
}

type CategoryRequest struct {
	Name            string `json:"name" binding:"required,max=100" example:"VPS"`
	Description     string `json:"description"`
	TransactionType uint   `json:"transaction_type" binding:"required" example:"2"`
	Parent          *uint  `json:"parent" example:"5"` // 为空表示根分类
}

type CategoryPatchRequest struct {
	Name            *string    `json:"name" binding:"omitempty,max=100"`
	Description     *string    `json:"description"`
	TransactionType *uint      `json:"transaction_type"`
	Parent          NullableID `json:"parent" swaggertype:"integer"` // null 表示移到根
}

// NullableID 区分字段缺省与显式 null
type NullableID struct {
	Set bool
	ID  *uint
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.ID = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	n.ID = &id
	return nil
}

// List 全部分类
// @Summary 获取分类列表
// @Description 平铺返回全部分类，每项带完整子树
// @Tags 分类
// @Produce json
// @Success 200 {object} Response{data=[]service.CategoryNode} "获取成功"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.cats.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "查询分类失败")
		return
	}
	Success(c, list)
}

// Get 分类详情（含全部后代）
// @Summary 获取分类详情
// @Tags 分类
// @Produce json
// @Param id path int true "分类ID"
// @Success 200 {object} Response{data=service.CategoryNode} "获取成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.respondNode(c, id, "success")
}

func (h *CategoryHandler) respondNode(c *gin.Context, id uint, message string) {
	node, err := h.cats.SubtreeOf(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "查询分类失败")
		return
	}
	SuccessWithMessage(c, message, node)
}

// Children 直接子分类
// @Summary 获取子分类
// @Tags 分类
// @Produce json
// @Param id path int true "分类ID"
// @Success 200 {object} Response{data=[]service.CategoryNode} "获取成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id}/children [get]
func (h *CategoryHandler) Children(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	list, err := h.cats.ChildrenOf(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "查询子分类失败")
		return
	}
	Success(c, list)
}

// Tree 根分类精简树
// @Summary 获取分类树
// @Description 返回根分类及其后代，只含 id / name / children
// @Tags 分类
// @Produce json
// @Param transaction_type query int false "流水类型ID"
// @Success 200 {object} Response{data=[]service.CategoryTreeNode} "获取成功"
// @Router /api/v1/categories/tree [get]
func (h *CategoryHandler) Tree(c *gin.Context) {
	typeID, ok := optionalID(c, "transaction_type")
	if !ok {
		return
	}
	tree, err := h.cats.RootsOf(c.Request.Context(), typeID)
	if err != nil {
		respondError(c, h.log, err, "查询分类树失败")
		return
	}
	Success(c, tree)
}

// ByType 某流水类型下的全部分类
// @Summary 按流水类型获取分类
// @Description 未传 transaction_type 时返回空列表
// @Tags 分类
// @Produce json
// @Param transaction_type query int false "流水类型ID"
// @Success 200 {object} Response{data=[]service.CategoryNode} "获取成功"
// @Router /api/v1/categories/by_type [get]
func (h *CategoryHandler) ByType(c *gin.Context) {
	typeID, ok := optionalID(c, "transaction_type")
	if !ok {
		return
	}
	if typeID == nil {
		Success(c, []service.CategoryNode{})
		return
	}
	list, err := h.cats.ByType(c.Request.Context(), *typeID)
	if err != nil {
		respondError(c, h.log, err, "查询分类失败")
		return
	}
	Success(c, list)
}

// Create 创建分类
// @Summary 创建分类
// @Description 子分类的流水类型必须与父分类一致，已有流水的分类不能再添加子分类
// @Tags 分类
// @Accept json
// @Produce json
// @Param request body CategoryRequest true "分类信息"
// @Success 200 {object} Response{data=service.CategoryNode} "创建成功"
// @Failure 400 {object} Response{data=RejectDetail} "参数错误"
// @Failure 409 {object} Response "同级重名或树结构冲突"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cat, err := h.cats.Create(c.Request.Context(), service.CategoryInput{
		Name:              req.Name,
		Description:       req.Description,
		TransactionTypeID: req.TransactionType,
		ParentID:          req.Parent,
	})
	if err != nil {
		respondError(c, h.log, err, "创建分类失败")
		return
	}
	h.respondNode(c, cat.ID, "创建成功")
}

// Update 整体更新分类
// @Summary 更新分类
// @Description parent 为空表示移到根；流水类型创建后不可修改
// @Tags 分类
// @Accept json
// @Produce json
// @Param id path int true "分类ID"
// @Param request body CategoryRequest true "分类信息"
// @Success 200 {object} Response{data=service.CategoryNode} "更新成功"
// @Failure 409 {object} Response "同级重名或形成环"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.update(c, id, service.CategoryPatch{
		Name:              &req.Name,
		Description:       &req.Description,
		TransactionTypeID: &req.TransactionType,
		Parent:            &service.ParentChange{ID: req.Parent},
	})
}

// Patch 部分更新分类
// @Summary 部分更新分类
// @Tags 分类
// @Accept json
// @Produce json
// @Param id path int true "分类ID"
// @Param request body CategoryPatchRequest true "需要修改的字段"
// @Success 200 {object} Response{data=service.CategoryNode} "更新成功"
// @Router /api/v1/categories/{id} [patch]
func (h *CategoryHandler) Patch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CategoryPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p := service.CategoryPatch{
		Name:              req.Name,
		Description:       req.Description,
		TransactionTypeID: req.TransactionType,
	}
	if req.Parent.Set {
		p.Parent = &service.ParentChange{ID: req.Parent.ID}
	}
	h.update(c, id, p)
}

func (h *CategoryHandler) update(c *gin.Context, id uint, p service.CategoryPatch) {
	if _, err := h.cats.Update(c.Request.Context(), id, p); err != nil {
		respondError(c, h.log, err, "更新分类失败")
		return
	}
	h.respondNode(c, id, "更新成功")
}

// Delete 删除（归档）分类
// @Summary 删除分类
// @Description 同时归档全部后代分类及引用它们的流水；存在依赖时需带 confirm=true
// @Tags 分类
// @Produce json
// @Param id path int true "分类ID"
// @Param confirm query bool false "确认级联归档"
// @Success 200 {object} Response{data=service.CascadeImpact} "删除成功"
// @Failure 409 {object} Response{data=CascadeDetail} "需要确认"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	impact, err := h.cats.Delete(c.Request.Context(), id, confirmed(c))
	if err != nil {
		respondError(c, h.log, err, "删除分类失败")
		return
	}
	SuccessWithMessage(c, "删除成功", impact)
}
