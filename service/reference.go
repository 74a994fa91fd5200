package service

import (
	"context"
	"strings"

	"cashflow/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceInput 状态 / 流水类型的创建参数
type ReferenceInput struct {
	Name        string
	Description string
}

// ReferencePatch 部分更新，nil 表示不修改
type ReferencePatch struct {
	Name        *string
	Description *string
}

// ReferenceService 基础数据（状态、流水类型）维护
type ReferenceService struct {
	db     *gorm.DB
	events Publisher
}

func NewReferenceService(db *gorm.DB, events Publisher) *ReferenceService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ReferenceService{db: db, events: events}
}

func (s *ReferenceService) ListStatuses(ctx context.Context) ([]models.Status, error) {
	return listByName[models.Status](ctx, s.db)
}

func (s *ReferenceService) GetStatus(ctx context.Context, id uint) (*models.Status, error) {
	return getByID[models.Status](ctx, s.db, "状态", id)
}

func (s *ReferenceService) CreateStatus(ctx context.Context, in ReferenceInput) (*models.Status, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	rec := models.Status{Name: name, Description: in.Description}
	if err := createUnique(ctx, s.db, "状态", &rec, name); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *ReferenceService) UpdateStatus(ctx context.Context, id uint, p ReferencePatch) (*models.Status, error) {
	return updateUnique[models.Status](ctx, s.db, "状态", id, p)
}

// DeleteStatus 归档状态及引用它的流水；存在依赖且未确认时返回 *CascadeWarning
func (s *ReferenceService) DeleteStatus(ctx context.Context, id uint, confirm bool) (CascadeImpact, error) {
	var impact CascadeImpact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Status
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err, "状态", id)
		}
		if err := tx.Model(&models.Transaction{}).Where("status_id = ?", id).Count(&impact.Transactions).Error; err != nil {
			return err
		}
		if !impact.IsEmpty() && !confirm {
			return &CascadeWarning{Entity: "状态", ID: id, Impact: impact}
		}
		if err := tx.Where("status_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
	if err != nil {
		return impact, err
	}
	s.events.Publish(ctx, newEvent(EventStatusArchived, id).withImpact(impact))
	return impact, nil
}

func (s *ReferenceService) ListTransactionTypes(ctx context.Context) ([]models.TransactionType, error) {
	return listByName[models.TransactionType](ctx, s.db)
}

func (s *ReferenceService) GetTransactionType(ctx context.Context, id uint) (*models.TransactionType, error) {
	return getByID[models.TransactionType](ctx, s.db, "流水类型", id)
}

func (s *ReferenceService) CreateTransactionType(ctx context.Context, in ReferenceInput) (*models.TransactionType, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	rec := models.TransactionType{Name: name, Description: in.Description}
	if err := createUnique(ctx, s.db, "流水类型", &rec, name); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *ReferenceService) UpdateTransactionType(ctx context.Context, id uint, p ReferencePatch) (*models.TransactionType, error) {
	return updateUnique[models.TransactionType](ctx, s.db, "流水类型", id, p)
}

// DeleteTransactionType 归档流水类型、其下全部分类以及相关流水
func (s *ReferenceService) DeleteTransactionType(ctx context.Context, id uint, confirm bool) (CascadeImpact, error) {
	var impact CascadeImpact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.TransactionType
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err, "流水类型", id)
		}
		categoryIDs := tx.Model(&models.Category{}).Select("id").Where("transaction_type_id = ?", id)
		if err := tx.Model(&models.Category{}).Where("transaction_type_id = ?", id).Count(&impact.Categories).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).
			Where("transaction_type_id = ? OR category_id IN (?)", id, categoryIDs).
			Count(&impact.Transactions).Error; err != nil {
			return err
		}
		if !impact.IsEmpty() && !confirm {
			return &CascadeWarning{Entity: "流水类型", ID: id, Impact: impact}
		}
		if err := tx.Where("transaction_type_id = ? OR category_id IN (?)", id, categoryIDs).
			Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("transaction_type_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
	if err != nil {
		return impact, err
	}
	s.events.Publish(ctx, newEvent(EventTransactionTypeArchived, id).withImpact(impact))
	return impact, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "名称不能为空")
	}
	if len([]rune(name)) > 100 {
		return "", invalid("name", "名称不能超过 100 个字符")
	}
	return name, nil
}

func listByName[T any](ctx context.Context, db *gorm.DB) ([]T, error) {
	var list []T
	if err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func getByID[T any](ctx context.Context, db *gorm.DB, entity string, id uint) (*T, error) {
	var rec T
	if err := db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, entity, id)
	}
	return &rec, nil
}

// ensureUniqueName 在未归档记录中检查名称唯一
func ensureUniqueName(tx *gorm.DB, model interface{}, entity, name string, excludeID uint) error {
	q := tx.Model(model).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Message: entity + "名称「" + name + "」已存在"}
	}
	return nil
}

// lockNames 锁定 model 所在表的 NameLock 行，锁行不存在时先插入
func lockNames(tx *gorm.DB, model interface{}) error {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(model); err != nil {
		return err
	}
	scope := stmt.Schema.Table
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.NameLock{Scope: scope}).Error; err != nil {
		return err
	}
	var lock models.NameLock
	return lockForUpdate(tx).Where("scope = ?", scope).First(&lock).Error
}

func createUnique[T any](ctx context.Context, db *gorm.DB, entity string, rec *T, name string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockNames(tx, new(T)); err != nil {
			return err
		}
		if err := ensureUniqueName(tx, new(T), entity, name, 0); err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

func updateUnique[T any](ctx context.Context, db *gorm.DB, entity string, id uint, p ReferencePatch) (*T, error) {
	var rec T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err, entity, id)
		}
		updates := map[string]interface{}{}
		if p.Name != nil {
			name, err := cleanName(*p.Name)
			if err != nil {
				return err
			}
			if err := lockNames(tx, new(T)); err != nil {
				return err
			}
			if err := ensureUniqueName(tx, new(T), entity, name, id); err != nil {
				return err
			}
			updates["name"] = name
		}
		if p.Description != nil {
			updates["description"] = *p.Description
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&rec).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&rec, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
