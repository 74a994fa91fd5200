package service

import (
	"sort"

	"cashflow/models"
)

// SortTransactions 按 (date desc, created_at desc, id desc) 排序
func SortTransactions(list []models.Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
