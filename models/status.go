package models

import (
	"time"

	"gorm.io/gorm"
)

// Status 流水状态（经营 / 个人 / 税务），基础数据
type Status struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"size:100;not null;index"`
	Description string         `json:"description" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Status) TableName() string {
	return "statuses"
}
