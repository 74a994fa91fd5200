package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 分类（树形结构，通过 ParentID 指向父节点）
// 同一父节点、同一流水类型下名称唯一；子节点列表不落库，按 parent_id 查询得到。
type Category struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	Name              string          `json:"name" gorm:"size:100;not null;index:idx_category_sibling"`
	Description       string          `json:"description" gorm:"type:text"`
	TransactionTypeID uint            `json:"transaction_type" gorm:"not null;index:idx_category_sibling"`
	ParentID          *uint           `json:"parent" gorm:"index:idx_category_sibling"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `json:"-" gorm:"index"`
	TransactionType   TransactionType `json:"-" gorm:"foreignKey:TransactionTypeID"`
	Parent            *Category       `json:"-" gorm:"foreignKey:ParentID"`
}

func (Category) TableName() string {
	return "categories"
}

// IsRoot 是否为根分类
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
