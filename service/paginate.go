package service

import (
	"strconv"
	"strings"
)

// DefaultPageSize 列表页每页条数
const DefaultPageSize = 20

// Page 分页信息
type Page struct {
	Number      int   `json:"page"`
	Size        int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewPage 计算分页。
// 页码无法解析时取第 1 页；超出范围（含小于 1）时取最后一页；空结果也有 1 页。
func NewPage(total int64, size int, requested string) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}

	number := 1
	if raw := strings.TrimSpace(requested); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			number = n
			if n < 1 || n > totalPages {
				number = totalPages
			}
		}
	}

	return Page{
		Number:      number,
		Size:        size,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}
}

// Offset 当前页起始偏移
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// NextNumber 下一页页码
func (p Page) NextNumber() int {
	return p.Number + 1
}

// PreviousNumber 上一页页码
func (p Page) PreviousNumber() int {
	return p.Number - 1
}
