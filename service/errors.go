package service

import (
	"errors"
	"fmt"
)

// RejectReason 流水校验失败原因
type RejectReason string

const (
	// ReasonTypeMismatch 分类不属于该流水类型
	ReasonTypeMismatch RejectReason = "type_mismatch"
	// ReasonNonLeafCategory 选择了分组分类（有子分类）
	ReasonNonLeafCategory RejectReason = "non_leaf_category"
	// ReasonNonPositiveAmount 金额必须 >= 0.01
	ReasonNonPositiveAmount RejectReason = "non_positive_amount"
	// ReasonInvalidInput 字段缺失或格式错误
	ReasonInvalidInput RejectReason = "invalid_input"
)

// ValidationError 违反业务规则，请求被拒绝，数据未写入
type ValidationError struct {
	Reason  RejectReason
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError 记录不存在
// Reference 为 true 表示请求体中引用的 id 不存在（而非路径上的资源本身）
type NotFoundError struct {
	Entity    string
	ID        uint
	Reference bool
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s(id=%d)不存在", e.Entity, e.ID)
}

// ConflictError 唯一性冲突或树结构冲突
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// CascadeImpact 删除时被级联归档的记录数
type CascadeImpact struct {
	Categories   int64 `json:"categories"`
	Transactions int64 `json:"transactions"`
}

// IsEmpty 没有任何依赖记录
func (i CascadeImpact) IsEmpty() bool {
	return i.Categories == 0 && i.Transactions == 0
}

// CascadeWarning 删除会连带归档依赖记录，需调用方确认后重试
type CascadeWarning struct {
	Entity string
	ID     uint
	Impact CascadeImpact
}

func (e *CascadeWarning) Error() string {
	return fmt.Sprintf("删除%s(id=%d)将同时归档 %d 个分类和 %d 条流水，请确认后重试",
		e.Entity, e.ID, e.Impact.Categories, e.Impact.Transactions)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Reason: ReasonInvalidInput, Field: field, Message: message}
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
