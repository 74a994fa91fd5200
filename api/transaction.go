package api

import (
	"cashflow/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionHandler 资金流水
type TransactionHandler struct {
	txs      *service.TransactionService
	exporter service.Exporter
	log      *zap.Logger
}

func NewTransactionHandler(txs *service.TransactionService, exporter service.Exporter, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{txs: txs, exporter: exporter, log: log}
}

// TransactionRequest 创建与整体更新；date 为空时新建取当前时间，更新保持原值
type TransactionRequest struct {
	Date            string           `json:"date" example:"2024-01-01 09:30"`
	Status          uint             `json:"status" example:"1"`
	TransactionType uint             `json:"transaction_type" example:"1"`
	Category        uint             `json:"category" example:"3"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"string" example:"50000.00"`
	Comment         string           `json:"comment" example:"一月工资"`
}

// TransactionPatchRequest 部分更新
type TransactionPatchRequest struct {
	Date            *string          `json:"date"`
	Status          *uint            `json:"status"`
	TransactionType *uint            `json:"transaction_type"`
	Category        *uint            `json:"category"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"string"`
	Comment         *string          `json:"comment"`
}

func (r TransactionRequest) patch() (service.TransactionPatch, error) {
	date, err := service.ParseDateTime(r.Date)
	if err != nil {
		return service.TransactionPatch{}, err
	}
	if r.Amount == nil {
		return service.TransactionPatch{}, &service.ValidationError{
			Reason:  service.ReasonInvalidInput,
			Field:   "amount",
			Message: "请填写金额",
		}
	}
	return service.TransactionPatch{
		Date:              date,
		StatusID:          &r.Status,
		TransactionTypeID: &r.TransactionType,
		CategoryID:        &r.Category,
		Amount:            r.Amount,
		Comment:           &r.Comment,
	}, nil
}

func (r TransactionPatchRequest) patch() (service.TransactionPatch, error) {
	p := service.TransactionPatch{
		StatusID:          r.Status,
		TransactionTypeID: r.TransactionType,
		CategoryID:        r.Category,
		Amount:            r.Amount,
		Comment:           r.Comment,
	}
	if r.Date != nil {
		date, err := service.ParseDateTime(*r.Date)
		if err != nil {
			return p, err
		}
		p.Date = date
	}
	return p, nil
}

// criteria 解析筛选参数，失败时已写入 400 响应
func (h *TransactionHandler) criteria(c *gin.Context) (service.Criteria, bool) {
	crit, err := service.ParseCriteria(c.Query)
	if err != nil {
		respondError(c, h.log, err, "筛选参数错误")
		return crit, false
	}
	return crit, true
}

// List 流水列表
// @Summary 获取流水列表
// @Description 最新的在前；所有筛选条件取交集。传 page 时按每页 20 条分页，越界页码取最后一页
// @Tags 流水
// @Produce json
// @Param date_from query string false "开始日期 (2006-01-02)，含当天"
// @Param date_to query string false "结束日期 (2006-01-02)，含当天"
// @Param status query int false "状态ID"
// @Param transaction_type query int false "流水类型ID"
// @Param category query int false "分类ID"
// @Param page query int false "页码"
// @Success 200 {object} Response{data=[]service.TransactionView} "获取成功"
// @Failure 400 {object} Response{data=RejectDetail} "筛选参数错误"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	crit, ok := h.criteria(c)
	if !ok {
		return
	}
	if pageParam, paged := c.GetQuery("page"); paged {
		list, page, err := h.txs.Page(c.Request.Context(), crit, pageParam)
		if err != nil {
			respondError(c, h.log, err, "查询流水失败")
			return
		}
		Success(c, PageResponse{
			Total:      page.Total,
			Page:       page.Number,
			PageSize:   page.Size,
			TotalPages: page.TotalPages,
			List:       service.NewTransactionViews(list),
		})
		return
	}
	list, err := h.txs.List(c.Request.Context(), crit)
	if err != nil {
		respondError(c, h.log, err, "查询流水失败")
		return
	}
	Success(c, service.NewTransactionViews(list))
}

// Get 流水详情
// @Summary 获取流水详情
// @Tags 流水
// @Produce json
// @Param id path int true "流水ID"
// @Success 200 {object} Response{data=service.TransactionView} "获取成功"
// @Failure 404 {object} Response "流水不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.txs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "查询流水失败")
		return
	}
	Success(c, service.NewTransactionView(*t))
}

// Create 创建流水
// @Summary 创建流水
// @Description 分类必须属于所选流水类型且为叶子分类，金额不小于 0.01
// @Tags 流水
// @Accept json
// @Produce json
// @Param request body TransactionRequest true "流水信息"
// @Success 200 {object} Response{data=service.TransactionView} "创建成功"
// @Failure 400 {object} Response{data=RejectDetail} "校验失败：type_mismatch / non_leaf_category / non_positive_amount / invalid_input"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		respondError(c, h.log, err, "创建流水失败")
		return
	}
	t, err := h.txs.Create(c.Request.Context(), service.TransactionInput{
		Date:              p.Date,
		StatusID:          req.Status,
		TransactionTypeID: req.TransactionType,
		CategoryID:        req.Category,
		Amount:            *p.Amount,
		Comment:           req.Comment,
	})
	if err != nil {
		respondError(c, h.log, err, "创建流水失败")
		return
	}
	SuccessWithMessage(c, "创建成功", service.NewTransactionView(*t))
}

// Update 整体更新流水
// @Summary 更新流水
// @Tags 流水
// @Accept json
// @Produce json
// @Param id path int true "流水ID"
// @Param request body TransactionRequest true "流水信息"
// @Success 200 {object} Response{data=service.TransactionView} "更新成功"
// @Failure 400 {object} Response{data=RejectDetail} "校验失败"
// @Failure 404 {object} Response "流水不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		respondError(c, h.log, err, "更新流水失败")
		return
	}
	h.update(c, id, p)
}

// Patch 部分更新流水
// @Summary 部分更新流水
// @Description 合并后按创建规则重新校验
// @Tags 流水
// @Accept json
// @Produce json
// @Param id path int true "流水ID"
// @Param request body TransactionPatchRequest true "需要修改的字段"
// @Success 200 {object} Response{data=service.TransactionView} "更新成功"
// @Router /api/v1/transactions/{id} [patch]
func (h *TransactionHandler) Patch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TransactionPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		respondError(c, h.log, err, "更新流水失败")
		return
	}
	h.update(c, id, p)
}

func (h *TransactionHandler) update(c *gin.Context, id uint, p service.TransactionPatch) {
	t, err := h.txs.Update(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, h.log, err, "更新流水失败")
		return
	}
	SuccessWithMessage(c, "更新成功", service.NewTransactionView(*t))
}

// Delete 删除流水
// @Summary 删除流水
// @Tags 流水
// @Produce json
// @Param id path int true "流水ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "流水不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.txs.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "删除流水失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Stats 收支汇总
// @Summary 收支汇总
// @Description 对当前筛选结果求总收入、总支出、结余和笔数，空结果全部为 0
// @Tags 流水
// @Produce json
// @Param date_from query string false "开始日期 (2006-01-02)"
// @Param date_to query string false "结束日期 (2006-01-02)"
// @Param status query int false "状态ID"
// @Param transaction_type query int false "流水类型ID"
// @Param category query int false "分类ID"
// @Success 200 {object} Response{data=service.SummaryView} "获取成功"
// @Router /api/v1/transactions/stats [get]
func (h *TransactionHandler) Stats(c *gin.Context) {
	crit, ok := h.criteria(c)
	if !ok {
		return
	}
	sum, err := h.txs.Stats(c.Request.Context(), crit)
	if err != nil {
		respondError(c, h.log, err, "统计失败")
		return
	}
	Success(c, sum.View())
}
