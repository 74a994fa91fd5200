package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction 资金流水记录
type Transaction struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	Date              time.Time       `json:"date" gorm:"not null;index"`
	StatusID          uint            `json:"status" gorm:"not null;index"`
	TransactionTypeID uint            `json:"transaction_type" gorm:"not null;index"`
	CategoryID        uint            `json:"category" gorm:"not null;index"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Comment           string          `json:"comment" gorm:"type:text"`
	CreatedAt         time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `json:"-" gorm:"index"`
	Status            Status          `json:"-" gorm:"foreignKey:StatusID"`
	TransactionType   TransactionType `json:"-" gorm:"foreignKey:TransactionTypeID"`
	Category          Category        `json:"-" gorm:"foreignKey:CategoryID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// DateDisplay 页面展示用的日期格式
func (t *Transaction) DateDisplay() string {
	return t.Date.Format("02.01.2006 15:04")
}
