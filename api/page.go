package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"cashflow/models"
	"cashflow/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// formDateLayout datetime-local 输入框格式
const formDateLayout = "2006-01-02T15:04"

// PageHandler 浏览器页面
type PageHandler struct {
	refs *service.ReferenceService
	cats *service.CategoryService
	txs  *service.TransactionService
	log  *zap.Logger
}

func NewPageHandler(refs *service.ReferenceService, cats *service.CategoryService, txs *service.TransactionService, log *zap.Logger) *PageHandler {
	return &PageHandler{refs: refs, cats: cats, txs: txs, log: log}
}

// TransactionForm 表单回显值
type TransactionForm struct {
	Date            string
	Status          string
	TransactionType string
	Category        string
	Amount          string
	Comment         string
}

func formFromTransaction(t *models.Transaction) TransactionForm {
	return TransactionForm{
		Date:            t.Date.Format(formDateLayout),
		Status:          strconv.FormatUint(uint64(t.StatusID), 10),
		TransactionType: strconv.FormatUint(uint64(t.TransactionTypeID), 10),
		Category:        strconv.FormatUint(uint64(t.CategoryID), 10),
		Amount:          t.Amount.StringFixed(2),
		Comment:         t.Comment,
	}
}

func formFromRequest(c *gin.Context) TransactionForm {
	return TransactionForm{
		Date:            c.PostForm("date"),
		Status:          c.PostForm("status"),
		TransactionType: c.PostForm("transaction_type"),
		Category:        c.PostForm("category"),
		Amount:          strings.TrimSpace(c.PostForm("amount")),
		Comment:         c.PostForm("comment"),
	}
}

// patch 表单值转为更新参数，与 API 走同一套校验
func (f TransactionForm) patch() (service.TransactionPatch, error) {
	var p service.TransactionPatch
	date, err := service.ParseDateTime(f.Date)
	if err != nil {
		return p, err
	}
	p.Date = date

	fields := []struct {
		raw, field, label string
		dst               **uint
	}{
		{f.Status, "status", "状态", &p.StatusID},
		{f.TransactionType, "transaction_type", "流水类型", &p.TransactionTypeID},
		{f.Category, "category", "分类", &p.CategoryID},
	}
	for _, fd := range fields {
		id, err := strconv.ParseUint(strings.TrimSpace(fd.raw), 10, 32)
		if err != nil || id == 0 {
			return p, &service.ValidationError{Reason: service.ReasonInvalidInput, Field: fd.field, Message: "请选择" + fd.label}
		}
		v := uint(id)
		*fd.dst = &v
	}

	amount, err := decimal.NewFromString(f.Amount)
	if err != nil {
		return p, &service.ValidationError{Reason: service.ReasonInvalidInput, Field: "amount", Message: "金额格式错误"}
	}
	p.Amount = &amount
	comment := f.Comment
	p.Comment = &comment
	return p, nil
}

// Home 流水列表页
func (h *PageHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Title": "资金流水", "Flash": popFlash(c)}

	crit, err := service.ParseCriteria(c.Query)
	if err != nil {
		data["Error"] = err.Error()
		crit = service.Criteria{}
	}
	filters := map[string]string{}
	for k, v := range crit.Query() {
		filters[k] = v[0]
	}

	list, page, err := h.txs.Page(ctx, crit, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	sum, err := h.txs.Stats(ctx, crit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.loadChoices(c, data); err != nil {
		h.fail(c, err)
		return
	}

	data["Filters"] = filters
	data["Query"] = crit.Query()
	data["Transactions"] = service.NewTransactionViews(list)
	data["Page"] = page
	data["Summary"] = sum.View()
	c.HTML(http.StatusOK, "home.html", data)
}

// loadChoices 下拉框数据：状态、流水类型、分类
func (h *PageHandler) loadChoices(c *gin.Context, data gin.H) error {
	ctx := c.Request.Context()
	statuses, err := h.refs.ListStatuses(ctx)
	if err != nil {
		return err
	}
	types, err := h.refs.ListTransactionTypes(ctx)
	if err != nil {
		return err
	}
	cats, err := h.cats.Options(ctx, nil)
	if err != nil {
		return err
	}
	data["Statuses"] = statuses
	data["Types"] = types
	data["Categories"] = cats
	return nil
}

func (h *PageHandler) renderForm(c *gin.Context, code int, title, action string, form TransactionForm, formErr string) {
	data := gin.H{"Title": title, "Action": action, "Form": form, "Error": formErr}
	if err := h.loadChoices(c, data); err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(code, "transaction_form.html", data)
}

// NewForm 新建流水表单
func (h *PageHandler) NewForm(c *gin.Context) {
	form := TransactionForm{TransactionType: c.Query("transaction_type")}
	h.renderForm(c, http.StatusOK, "新建流水", "/transaction/create", form, "")
}

// Create 提交新建
func (h *PageHandler) Create(c *gin.Context) {
	form := formFromRequest(c)
	p, err := form.patch()
	if err == nil {
		_, err = h.txs.Create(c.Request.Context(), service.TransactionInput{
			Date:              p.Date,
			StatusID:          *p.StatusID,
			TransactionTypeID: *p.TransactionTypeID,
			CategoryID:        *p.CategoryID,
			Amount:            *p.Amount,
			Comment:           *p.Comment,
		})
	}
	if err != nil {
		h.formError(c, err, "新建流水", "/transaction/create", form)
		return
	}
	setFlash(c, "流水已创建")
	c.Redirect(http.StatusSeeOther, "/")
}

// EditForm 编辑流水表单
func (h *PageHandler) EditForm(c *gin.Context) {
	t, ok := h.loadTransaction(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, "编辑流水", editAction(t.ID), formFromTransaction(t), "")
}

// Update 提交编辑
func (h *PageHandler) Update(c *gin.Context) {
	t, ok := h.loadTransaction(c)
	if !ok {
		return
	}
	form := formFromRequest(c)
	p, err := form.patch()
	if err == nil {
		if p.Date == nil {
			p.Date = &t.Date
		}
		_, err = h.txs.Update(c.Request.Context(), t.ID, p)
	}
	if err != nil {
		h.formError(c, err, "编辑流水", editAction(t.ID), form)
		return
	}
	setFlash(c, "流水已更新")
	c.Redirect(http.StatusSeeOther, "/")
}

func editAction(id uint) string {
	return "/transaction/" + strconv.FormatUint(uint64(id), 10) + "/edit"
}

// formError 业务错误在表单内提示，其余错误返回错误页
func (h *PageHandler) formError(c *gin.Context, err error, title, action string, form TransactionForm) {
	var verr *service.ValidationError
	var nf *service.NotFoundError
	switch {
	case errors.As(err, &verr):
		h.renderForm(c, http.StatusBadRequest, title, action, form, verr.Message)
	case errors.As(err, &nf) && nf.Reference:
		h.renderForm(c, http.StatusBadRequest, title, action, form, nf.Error())
	default:
		h.fail(c, err)
	}
}

// DeleteConfirm 删除确认页
func (h *PageHandler) DeleteConfirm(c *gin.Context) {
	t, ok := h.loadTransaction(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "transaction_confirm_delete.html", gin.H{
		"Title":       "删除流水",
		"Transaction": service.NewTransactionView(*t),
	})
}

// Delete 确认删除
func (h *PageHandler) Delete(c *gin.Context) {
	t, ok := h.loadTransaction(c)
	if !ok {
		return
	}
	if err := h.txs.Delete(c.Request.Context(), t.ID); err != nil {
		h.fail(c, err)
		return
	}
	setFlash(c, "流水已删除")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) loadTransaction(c *gin.Context) (*models.Transaction, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.notFound(c)
		return nil, false
	}
	t, err := h.txs.Get(c.Request.Context(), uint(id64))
	if err != nil {
		if service.IsNotFound(err) {
			h.notFound(c)
		} else {
			h.fail(c, err)
		}
		return nil, false
	}
	return t, true
}

// typeTree 参考数据页中某流水类型的分类树
type typeTree struct {
	TypeName string
	Roots    []service.CategoryNode
}

// References 基础数据管理页
func (h *PageHandler) References(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Title": "基础数据", "Flash": popFlash(c)}
	if err := h.loadChoices(c, data); err != nil {
		h.fail(c, err)
		return
	}

	forest, err := h.cats.Forest(ctx, nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	var trees []typeTree
	for _, tt := range data["Types"].([]models.TransactionType) {
		id := tt.ID
		trees = append(trees, typeTree{TypeName: tt.Name, Roots: forest.FullList(forest.Roots(&id))})
	}
	data["Trees"] = trees
	c.HTML(http.StatusOK, "reference_management.html", data)
}

// CategoryChoice AJAX 返回的分类项
type CategoryChoice struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Leaf bool   `json:"leaf"`
}

// CategoriesByType 表单联动：某流水类型下的分类，未传类型时返回空列表
func (h *PageHandler) CategoriesByType(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("transaction_type"))
	id64, err := strconv.ParseUint(raw, 10, 32)
	if raw == "" || err != nil || id64 == 0 {
		c.JSON(http.StatusOK, []CategoryChoice{})
		return
	}
	typeID := uint(id64)
	opts, err := h.cats.Options(c.Request.Context(), &typeID)
	if err != nil {
		h.log.Error("查询分类失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, []CategoryChoice{})
		return
	}
	out := make([]CategoryChoice, 0, len(opts))
	for _, o := range opts {
		out = append(out, CategoryChoice{ID: o.ID, Name: o.Name, Path: o.Path, Leaf: o.Leaf})
	}
	c.JSON(http.StatusOK, out)
}

func (h *PageHandler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "error.html", gin.H{"Title": "流水不存在"})
}

func (h *PageHandler) fail(c *gin.Context, err error) {
	h.log.Error("页面处理失败",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path))
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Title": SafeErrorMessage(err, "服务器内部错误")})
}
