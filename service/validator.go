package service

import (
	"context"
	"errors"
	"fmt"

	"cashflow/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinAmount 最小金额 0.01
var MinAmount = decimal.New(1, -2)

// maxAmount decimal(12,2) 能存下的上限（不含）
var maxAmount = decimal.New(1, 10)

// Candidate 待写入流水的校验视图
type Candidate struct {
	TransactionTypeID uint
	Category          *models.Category
	CategoryChildren  int64
	Amount            decimal.Decimal
}

// Validate 纯校验：金额、分类与类型一致、分类为叶子。
// 返回 nil 表示通过；否则返回 *ValidationError，调用方必须放弃写入。
func Validate(c Candidate) *ValidationError {
	if c.Amount.LessThan(MinAmount) {
		return nonPositiveAmount()
	}
	if c.Category == nil {
		return invalid("category", "请选择分类")
	}
	if c.Category.TransactionTypeID != c.TransactionTypeID {
		return &ValidationError{
			Reason:  ReasonTypeMismatch,
			Field:   "category",
			Message: fmt.Sprintf("分类「%s」不属于所选流水类型", c.Category.Name),
		}
	}
	if c.CategoryChildren > 0 {
		return &ValidationError{
			Reason:  ReasonNonLeafCategory,
			Field:   "category",
			Message: fmt.Sprintf("不能选择分组分类「%s」，请选择子分类", c.Category.Name),
		}
	}
	return nil
}

// NormalizeAmount 校验金额格式：最多两位小数、不超过 decimal(12,2)
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, *ValidationError) {
	if !amount.Equal(amount.Round(2)) {
		return amount, invalid("amount", "金额最多保留两位小数")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return amount, invalid("amount", "金额超出范围")
	}
	return amount.Round(2), nil
}

// TransactionValidator 在写事务内加载引用数据并执行 Validate
type TransactionValidator struct{}

// Check 必须在写入所用的同一个 gorm 事务中调用。
// 对分类行加 FOR UPDATE 锁，与"在该分类下新建子分类"互斥，避免校验与写入之间分类由叶子变为分组。
func (TransactionValidator) Check(ctx context.Context, tx *gorm.DB, t *models.Transaction) error {
	if t.StatusID == 0 {
		return invalid("status", "请选择状态")
	}
	if t.TransactionTypeID == 0 {
		return invalid("transaction_type", "请选择流水类型")
	}
	if t.CategoryID == 0 {
		return invalid("category", "请选择分类")
	}
	// 下限先于精度检查，0.001 归为 non_positive_amount
	if t.Amount.LessThan(MinAmount) {
		return nonPositiveAmount()
	}
	amount, verr := NormalizeAmount(t.Amount)
	if verr != nil {
		return verr
	}
	t.Amount = amount

	if err := exists(ctx, tx, &models.Status{}, t.StatusID); err != nil {
		return refNotFound(err, "状态", t.StatusID)
	}
	if err := exists(ctx, tx, &models.TransactionType{}, t.TransactionTypeID); err != nil {
		return refNotFound(err, "流水类型", t.TransactionTypeID)
	}

	var cat models.Category
	if err := lockForUpdate(tx.WithContext(ctx)).First(&cat, t.CategoryID).Error; err != nil {
		return refNotFound(err, "分类", t.CategoryID)
	}
	var children int64
	if err := tx.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", cat.ID).Count(&children).Error; err != nil {
		return err
	}

	if verr := Validate(Candidate{
		TransactionTypeID: t.TransactionTypeID,
		Category:          &cat,
		CategoryChildren:  children,
		Amount:            t.Amount,
	}); verr != nil {
		return verr
	}
	return nil
}

func nonPositiveAmount() *ValidationError {
	return &ValidationError{
		Reason:  ReasonNonPositiveAmount,
		Field:   "amount",
		Message: "金额必须大于等于 0.01",
	}
}

func exists(ctx context.Context, tx *gorm.DB, model interface{}, id uint) error {
	return tx.WithContext(ctx).Select("id").First(model, id).Error
}

func refNotFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id, Reference: true}
	}
	return err
}

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}

// lockForUpdate SQLite 不支持行锁（整库写锁已串行化写事务），其余驱动加 FOR UPDATE
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
