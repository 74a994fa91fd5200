package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionType 流水类型（收入 / 支出），基础数据
type TransactionType struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"size:100;not null;index"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (TransactionType) TableName() string {
	return "transaction_types"
}
