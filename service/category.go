package service

import (
	"context"
	"fmt"
	"strings"

	"cashflow/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryInput 创建分类参数
type CategoryInput struct {
	Name              string
	Description       string
	TransactionTypeID uint
	ParentID          *uint
}

// ParentChange 修改父分类；ID 为 nil 表示移到根
type ParentChange struct {
	ID *uint
}

// CategoryPatch 部分更新，nil 表示不修改
type CategoryPatch struct {
	Name              *string
	Description       *string
	TransactionTypeID *uint
	Parent            *ParentChange
}

// CategoryOption 下拉选项
type CategoryOption struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Path              string `json:"path,omitempty"`
	TransactionTypeID uint   `json:"transaction_type,omitempty"`
	Leaf              bool   `json:"leaf"`
}

// CategoryService 分类树维护与查询
type CategoryService struct {
	db     *gorm.DB
	events Publisher
}

func NewCategoryService(db *gorm.DB, events Publisher) *CategoryService {
	if events == nil {
		events = NopPublisher{}
	}
	return &CategoryService{db: db, events: events}
}

// Forest 加载分类森林；typeID 非空时只加载该流水类型
func (s *CategoryService) Forest(ctx context.Context, typeID *uint) (*Forest, error) {
	return loadForest(s.db.WithContext(ctx), typeID)
}

func loadForest(db *gorm.DB, typeID *uint) (*Forest, error) {
	var cats []models.Category
	q := db.Preload("TransactionType")
	if typeID != nil {
		q = q.Where("transaction_type_id = ?", *typeID)
	}
	if err := q.Order("name ASC, id ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return NewForest(cats), nil
}

// forestOf 加载某分类所在流水类型的森林
func (s *CategoryService) forestOf(ctx context.Context, id uint) (*Forest, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).Select("id", "transaction_type_id").First(&cat, id).Error; err != nil {
		return nil, notFound(err, "分类", id)
	}
	return s.Forest(ctx, &cat.TransactionTypeID)
}

// List 全部分类的完整投影
func (s *CategoryService) List(ctx context.Context) ([]CategoryNode, error) {
	f, err := s.Forest(ctx, nil)
	if err != nil {
		return nil, err
	}
	return f.FullList(f.All()), nil
}

// SubtreeOf 分类及其全部后代（完整投影）
func (s *CategoryService) SubtreeOf(ctx context.Context, id uint) (CategoryNode, error) {
	f, err := s.forestOf(ctx, id)
	if err != nil {
		return CategoryNode{}, err
	}
	node, ok := f.Full(id)
	if !ok {
		return CategoryNode{}, &NotFoundError{Entity: "分类", ID: id}
	}
	return node, nil
}

// ChildrenOf 直接子分类，按名称排序
func (s *CategoryService) ChildrenOf(ctx context.Context, id uint) ([]CategoryNode, error) {
	f, err := s.forestOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.FullList(f.Children(id)), nil
}

// RootsOf 根分类的精简树；typeID 为空时返回所有类型
func (s *CategoryService) RootsOf(ctx context.Context, typeID *uint) ([]CategoryTreeNode, error) {
	f, err := s.Forest(ctx, typeID)
	if err != nil {
		return nil, err
	}
	return f.TreeList(f.Roots(typeID)), nil
}

// ByType 某流水类型下全部分类（平铺，每项带子树）
func (s *CategoryService) ByType(ctx context.Context, typeID uint) ([]CategoryNode, error) {
	f, err := s.Forest(ctx, &typeID)
	if err != nil {
		return nil, err
	}
	return f.FullList(f.All()), nil
}

// Options 下拉选项，按树的先序排列；typeID 为空时返回全部
func (s *CategoryService) Options(ctx context.Context, typeID *uint) ([]CategoryOption, error) {
	f, err := s.Forest(ctx, typeID)
	if err != nil {
		return nil, err
	}
	var out []CategoryOption
	for _, root := range f.Roots(typeID) {
		for _, id := range f.SubtreeIDs(root.ID) {
			c, _ := f.Get(id)
			out = append(out, CategoryOption{
				ID:                c.ID,
				Name:              c.Name,
				Path:              f.Path(c.ID),
				TransactionTypeID: c.TransactionTypeID,
				Leaf:              f.IsLeaf(c.ID),
			})
		}
	}
	return out, nil
}

// IsLeaf 是否为叶子分类
func (s *CategoryService) IsLeaf(ctx context.Context, id uint) (bool, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).Select("id").First(&cat, id).Error; err != nil {
		return false, notFound(err, "分类", id)
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

// Create 创建分类
// 子分类必须与父分类同一流水类型；已有流水的分类不能再挂子分类。
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	if in.TransactionTypeID == 0 {
		return nil, invalid("transaction_type", "请选择流水类型")
	}

	cat := models.Category{
		Name:              name,
		Description:       in.Description,
		TransactionTypeID: in.TransactionTypeID,
		ParentID:          in.ParentID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockType(tx, in.TransactionTypeID); err != nil {
			return refNotFound(err, "流水类型", in.TransactionTypeID)
		}
		if in.ParentID != nil {
			if err := checkParent(tx, *in.ParentID, in.TransactionTypeID); err != nil {
				return err
			}
		}
		if err := ensureUniqueSibling(tx, name, in.TransactionTypeID, in.ParentID, 0); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, cat.ID)
}

// Update 修改名称、描述或父分类；流水类型创建后不可修改
func (s *CategoryService) Update(ctx context.Context, id uint, p CategoryPatch) (*models.Category, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Category
		if err := tx.Select("id", "transaction_type_id").First(&cur, id).Error; err != nil {
			return notFound(err, "分类", id)
		}
		// 加锁顺序与 Create 一致：先流水类型，后分类
		if err := lockType(tx, cur.TransactionTypeID); err != nil {
			return refNotFound(err, "流水类型", cur.TransactionTypeID)
		}
		var cat models.Category
		if err := lockForUpdate(tx).First(&cat, id).Error; err != nil {
			return notFound(err, "分类", id)
		}
		if p.TransactionTypeID != nil && *p.TransactionTypeID != cat.TransactionTypeID {
			return invalid("transaction_type", "分类的流水类型创建后不可修改")
		}

		updates := map[string]interface{}{}
		name := cat.Name
		parentID := cat.ParentID
		siblingChanged := false

		if p.Name != nil {
			n, err := cleanName(*p.Name)
			if err != nil {
				return err
			}
			if n != cat.Name {
				name = n
				updates["name"] = n
				siblingChanged = true
			}
		}
		if p.Description != nil {
			updates["description"] = *p.Description
		}
		if p.Parent != nil && !sameParent(p.Parent.ID, cat.ParentID) {
			parentID = p.Parent.ID
			if parentID == nil {
				updates["parent_id"] = nil
			} else {
				if err := s.checkReparent(tx, &cat, *parentID); err != nil {
					return err
				}
				updates["parent_id"] = *parentID
			}
			siblingChanged = true
		}
		if siblingChanged {
			if err := ensureUniqueSibling(tx, name, cat.TransactionTypeID, parentID, cat.ID); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&cat).Omit(clause.Associations).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// checkReparent 新父分类不能是自身或自身的后代
func (s *CategoryService) checkReparent(tx *gorm.DB, cat *models.Category, parentID uint) error {
	if parentID == cat.ID {
		return &ConflictError{Message: "分类不能成为自己的父分类"}
	}
	if err := checkParent(tx, parentID, cat.TransactionTypeID); err != nil {
		return err
	}
	f, err := loadForest(tx, &cat.TransactionTypeID)
	if err != nil {
		return err
	}
	if f.IsDescendant(parentID, cat.ID) {
		return &ConflictError{Message: fmt.Sprintf("不能把分类「%s」移动到自己的子分类下", cat.Name)}
	}
	return nil
}

// lockType 锁定流水类型行，同一流水类型下的分类创建、改名与移动串行执行
func lockType(tx *gorm.DB, typeID uint) error {
	var tt models.TransactionType
	return lockForUpdate(tx).Select("id").First(&tt, typeID).Error
}

// checkParent 锁定父分类行，与流水写入时对分类行的锁互斥
func checkParent(tx *gorm.DB, parentID, typeID uint) error {
	var parent models.Category
	if err := lockForUpdate(tx).First(&parent, parentID).Error; err != nil {
		return refNotFound(err, "父分类", parentID)
	}
	if parent.TransactionTypeID != typeID {
		return &ConflictError{Message: fmt.Sprintf("子分类的流水类型必须与父分类「%s」一致", parent.Name)}
	}
	var used int64
	if err := tx.Model(&models.Transaction{}).Where("category_id = ?", parentID).Count(&used).Error; err != nil {
		return err
	}
	if used > 0 {
		return &ConflictError{Message: fmt.Sprintf("分类「%s」已有 %d 条流水，不能再添加子分类", parent.Name, used)}
	}
	return nil
}

// ensureUniqueSibling 同一父分类、同一流水类型下名称唯一
func ensureUniqueSibling(tx *gorm.DB, name string, typeID uint, parentID *uint, excludeID uint) error {
	q := tx.Model(&models.Category{}).Where("name = ? AND transaction_type_id = ?", name, typeID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Message: "同一父分类下已存在名为「" + name + "」的分类"}
	}
	return nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Delete 归档分类子树及引用子树内任一分类的流水。
// 存在依赖且 confirm 为 false 时不做任何修改，返回 *CascadeWarning。
func (s *CategoryService) Delete(ctx context.Context, id uint, confirm bool) (CascadeImpact, error) {
	var impact CascadeImpact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := lockForUpdate(tx).First(&cat, id).Error; err != nil {
			return notFound(err, "分类", id)
		}
		f, err := loadForest(tx, &cat.TransactionTypeID)
		if err != nil {
			return err
		}
		ids := f.SubtreeIDs(id)
		impact.Categories = int64(len(ids) - 1)
		if err := tx.Model(&models.Transaction{}).Where("category_id IN ?", ids).Count(&impact.Transactions).Error; err != nil {
			return err
		}
		if !impact.IsEmpty() && !confirm {
			return &CascadeWarning{Entity: "分类", ID: id, Impact: impact}
		}
		if err := tx.Where("category_id IN ?", ids).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Category{}).Error
	})
	if err != nil {
		return impact, err
	}
	s.events.Publish(ctx, newEvent(EventCategoryArchived, id).withImpact(impact))
	return impact, nil
}

func (s *CategoryService) get(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).Preload("TransactionType").First(&cat, id).Error; err != nil {
		return nil, notFound(err, "分类", id)
	}
	return &cat, nil
}

// FindByPath 按 "父 / 子" 名称路径查找某流水类型下的分类
func (s *CategoryService) FindByPath(ctx context.Context, typeID uint, path ...string) (*models.Category, error) {
	var parentID *uint
	var cat models.Category
	for _, name := range path {
		q := s.db.WithContext(ctx).Where("name = ? AND transaction_type_id = ?", strings.TrimSpace(name), typeID)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		if err := q.First(&cat).Error; err != nil {
			return nil, err
		}
		id := cat.ID
		parentID = &id
	}
	return &cat, nil
}
