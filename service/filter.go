package service

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"cashflow/models"

	"gorm.io/gorm"
)

// DateLayout 筛选参数的日期格式
const DateLayout = "2006-01-02"

// Criteria 流水筛选条件，所有条件取交集，未设置的条件不做限制。
// 日期区间按天计算，两端都包含。
type Criteria struct {
	DateFrom          *time.Time
	DateTo            *time.Time
	StatusID          *uint
	TransactionTypeID *uint
	CategoryID        *uint
}

// ParseCriteria 从查询参数解析筛选条件：date_from, date_to, status, transaction_type, category。
// 空值视为未设置；格式错误返回 *ValidationError。
func ParseCriteria(get func(string) string) (Criteria, error) {
	var c Criteria
	var err error
	if c.DateFrom, err = parseDateParam(get, "date_from"); err != nil {
		return Criteria{}, err
	}
	if c.DateTo, err = parseDateParam(get, "date_to"); err != nil {
		return Criteria{}, err
	}
	if c.StatusID, err = parseIDParam(get, "status"); err != nil {
		return Criteria{}, err
	}
	if c.TransactionTypeID, err = parseIDParam(get, "transaction_type"); err != nil {
		return Criteria{}, err
	}
	if c.CategoryID, err = parseIDParam(get, "category"); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func parseDateParam(get func(string) string, key string) (*time.Time, error) {
	raw := strings.TrimSpace(get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.Local)
	if err != nil {
		return nil, invalid(key, key+" 格式错误，应为 2006-01-02")
	}
	return &t, nil
}

func parseIDParam(get func(string) string, key string) (*uint, error) {
	raw := strings.TrimSpace(get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return nil, invalid(key, key+" 必须为正整数")
	}
	id := uint(n)
	return &id, nil
}

// upperBound date_to 次日零点（不含）
func (c Criteria) upperBound() time.Time {
	d := *c.DateTo
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()).AddDate(0, 0, 1)
}

func (c Criteria) lowerBound() time.Time {
	d := *c.DateFrom
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// Scope 转为 gorm 查询条件，用法 db.Scopes(c.Scope)
func (c Criteria) Scope(db *gorm.DB) *gorm.DB {
	if c.DateFrom != nil {
		db = db.Where("transactions.date >= ?", c.lowerBound())
	}
	if c.DateTo != nil {
		db = db.Where("transactions.date < ?", c.upperBound())
	}
	if c.StatusID != nil {
		db = db.Where("transactions.status_id = ?", *c.StatusID)
	}
	if c.TransactionTypeID != nil {
		db = db.Where("transactions.transaction_type_id = ?", *c.TransactionTypeID)
	}
	if c.CategoryID != nil {
		db = db.Where("transactions.category_id = ?", *c.CategoryID)
	}
	return db
}

// Matches 与 Scope 等价的内存判断
func (c Criteria) Matches(t models.Transaction) bool {
	if c.DateFrom != nil && t.Date.Before(c.lowerBound()) {
		return false
	}
	if c.DateTo != nil && !t.Date.Before(c.upperBound()) {
		return false
	}
	if c.StatusID != nil && t.StatusID != *c.StatusID {
		return false
	}
	if c.TransactionTypeID != nil && t.TransactionTypeID != *c.TransactionTypeID {
		return false
	}
	if c.CategoryID != nil && t.CategoryID != *c.CategoryID {
		return false
	}
	return true
}

// Query 回写为查询参数，用于分页链接和导出链接
func (c Criteria) Query() url.Values {
	v := url.Values{}
	if c.DateFrom != nil {
		v.Set("date_from", c.DateFrom.Format(DateLayout))
	}
	if c.DateTo != nil {
		v.Set("date_to", c.DateTo.Format(DateLayout))
	}
	if c.StatusID != nil {
		v.Set("status", strconv.FormatUint(uint64(*c.StatusID), 10))
	}
	if c.TransactionTypeID != nil {
		v.Set("transaction_type", strconv.FormatUint(uint64(*c.TransactionTypeID), 10))
	}
	if c.CategoryID != nil {
		v.Set("category", strconv.FormatUint(uint64(*c.CategoryID), 10))
	}
	return v
}

// FilterTransactions 在内存中筛选并按默认顺序排序
func FilterTransactions(c Criteria, base []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(base))
	for _, t := range base {
		if c.Matches(t) {
			out = append(out, t)
		}
	}
	SortTransactions(out)
	return out
}

// defaultOrder 最新的在前，同一时间按创建先后倒序
const defaultOrder = "transactions.date DESC, transactions.created_at DESC, transactions.id DESC"
