package service

import (
	"context"
	"time"

	"cashflow/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionInput 新建流水参数；Date 为空时取当前时间
type TransactionInput struct {
	Date              *time.Time
	StatusID          uint
	TransactionTypeID uint
	CategoryID        uint
	Amount            decimal.Decimal
	Comment           string
}

// TransactionPatch 部分更新，nil 表示不修改
type TransactionPatch struct {
	Date              *time.Time
	StatusID          *uint
	TransactionTypeID *uint
	CategoryID        *uint
	Amount            *decimal.Decimal
	Comment           *string
}

// TransactionView 流水对外展示结构，带引用数据名称
type TransactionView struct {
	ID                  uint      `json:"id"`
	Date                time.Time `json:"date"`
	DateDisplay         string    `json:"date_display"`
	Status              uint      `json:"status"`
	StatusName          string    `json:"status_name"`
	TransactionType     uint      `json:"transaction_type"`
	TransactionTypeName string    `json:"transaction_type_name"`
	Category            uint      `json:"category"`
	CategoryName        string    `json:"category_name"`
	Amount              string    `json:"amount"`
	Comment             string    `json:"comment"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewTransactionView 需要预加载 Status、TransactionType、Category
func NewTransactionView(t models.Transaction) TransactionView {
	return TransactionView{
		ID:                  t.ID,
		Date:                t.Date,
		DateDisplay:         t.DateDisplay(),
		Status:              t.StatusID,
		StatusName:          t.Status.Name,
		TransactionType:     t.TransactionTypeID,
		TransactionTypeName: t.TransactionType.Name,
		Category:            t.CategoryID,
		CategoryName:        t.Category.Name,
		Amount:              t.Amount.StringFixed(2),
		Comment:             t.Comment,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

// NewTransactionViews 批量转换
func NewTransactionViews(list []models.Transaction) []TransactionView {
	out := make([]TransactionView, 0, len(list))
	for _, t := range list {
		out = append(out, NewTransactionView(t))
	}
	return out
}

// TransactionService 流水的写入、查询与统计
type TransactionService struct {
	db         *gorm.DB
	validator  TransactionValidator
	classifier Classifier
	pageSize   int
	events     Publisher
}

func NewTransactionService(db *gorm.DB, cls Classifier, pageSize int, events Publisher) *TransactionService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &TransactionService{db: db, classifier: cls, pageSize: pageSize, events: events}
}

// PageSize 每页条数
func (s *TransactionService) PageSize() int {
	return s.pageSize
}

func withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Status").Preload("TransactionType").Preload("Category")
}

// storedDate 统一换算为本地时间再写入。
// SQLite 以带偏移的文本保存时间，筛选与排序按字符串比较，偏移必须一致。
func storedDate(d time.Time) time.Time {
	return d.In(time.Local)
}

// Create 校验通过后写入；任一规则不满足时不写入
func (s *TransactionService) Create(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	t := models.Transaction{
		StatusID:          in.StatusID,
		TransactionTypeID: in.TransactionTypeID,
		CategoryID:        in.CategoryID,
		Amount:            in.Amount,
		Comment:           in.Comment,
	}
	if in.Date != nil {
		t.Date = storedDate(*in.Date)
	} else {
		t.Date = time.Now()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validator.Check(ctx, tx, &t); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&t).Error
	})
	if err != nil {
		return nil, err
	}

	e := newEvent(EventTransactionCreated, t.ID)
	e.Amount = t.Amount.StringFixed(2)
	s.events.Publish(ctx, e)
	return s.Get(ctx, t.ID)
}

// Update 合并后按新建规则重新校验
func (s *TransactionService) Update(ctx context.Context, id uint, p TransactionPatch) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&t, id).Error; err != nil {
			return notFound(err, "流水", id)
		}
		if p.Date != nil {
			t.Date = storedDate(*p.Date)
		}
		if p.StatusID != nil {
			t.StatusID = *p.StatusID
		}
		if p.TransactionTypeID != nil {
			t.TransactionTypeID = *p.TransactionTypeID
		}
		if p.CategoryID != nil {
			t.CategoryID = *p.CategoryID
		}
		if p.Amount != nil {
			t.Amount = *p.Amount
		}
		if p.Comment != nil {
			t.Comment = *p.Comment
		}
		if err := s.validator.Check(ctx, tx, &t); err != nil {
			return err
		}
		return tx.Model(&t).Omit(clause.Associations).Updates(map[string]interface{}{
			"date":                t.Date,
			"status_id":           t.StatusID,
			"transaction_type_id": t.TransactionTypeID,
			"category_id":         t.CategoryID,
			"amount":              t.Amount,
			"comment":             t.Comment,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	e := newEvent(EventTransactionUpdated, id)
	e.Amount = t.Amount.StringFixed(2)
	s.events.Publish(ctx, e)
	return s.Get(ctx, id)
}

// Delete 软删除
func (s *TransactionService) Delete(ctx context.Context, id uint) error {
	var t models.Transaction
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return notFound(err, "流水", id)
	}
	if err := s.db.WithContext(ctx).Delete(&t).Error; err != nil {
		return err
	}
	e := newEvent(EventTransactionDeleted, id)
	e.Amount = t.Amount.StringFixed(2)
	s.events.Publish(ctx, e)
	return nil
}

// Get 按 id 查询，预加载引用数据
func (s *TransactionService) Get(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := withRefs(s.db.WithContext(ctx)).First(&t, id).Error; err != nil {
		return nil, notFound(err, "流水", id)
	}
	return &t, nil
}

// List 全部符合条件的流水，最新的在前
func (s *TransactionService) List(ctx context.Context, crit Criteria) ([]models.Transaction, error) {
	var list []models.Transaction
	err := withRefs(s.db.WithContext(ctx)).
		Scopes(crit.Scope).
		Order(defaultOrder).
		Find(&list).Error
	return list, err
}

// Page 分页查询；页码越界时取最后一页
func (s *TransactionService) Page(ctx context.Context, crit Criteria, pageParam string) ([]models.Transaction, Page, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Scopes(crit.Scope).Count(&total).Error; err != nil {
		return nil, Page{}, err
	}
	page := NewPage(total, s.pageSize, pageParam)

	var list []models.Transaction
	err := withRefs(s.db.WithContext(ctx)).
		Scopes(crit.Scope).
		Order(defaultOrder).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&list).Error
	if err != nil {
		return nil, Page{}, err
	}
	return list, page, nil
}

// Stats 按流水类型分组求和后汇总
func (s *TransactionService) Stats(ctx context.Context, crit Criteria) (Summary, error) {
	var rows []TypeTotal
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("transaction_types.name AS type_name, COALESCE(SUM(transactions.amount), 0) AS total, COUNT(transactions.id) AS count").
		Joins("JOIN transaction_types ON transaction_types.id = transactions.transaction_type_id").
		Scopes(crit.Scope).
		Group("transaction_types.name").
		Scan(&rows).Error
	if err != nil {
		return Summary{}, err
	}
	// SQLite 的 SUM 返回浮点数
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return Summarize(rows, s.classifier), nil
}
