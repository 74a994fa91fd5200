package models

// NameLock 每张基础数据表一行，名称唯一性检查前先锁定该行，同表的创建与改名串行执行
type NameLock struct {
	Scope string `gorm:"primaryKey;size:64"`
}

func (NameLock) TableName() string {
	return "name_locks"
}
