package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind 流水类型的收支方向
type Kind int

const (
	KindOther Kind = iota
	KindIncome
	KindExpense
)

// Classifier 按类型名称判断收入 / 支出（忽略大小写与首尾空格）
type Classifier struct {
	income  map[string]struct{}
	expense map[string]struct{}
}

// NewClassifier 创建分类器
func NewClassifier(incomeNames, expenseNames []string) Classifier {
	c := Classifier{income: map[string]struct{}{}, expense: map[string]struct{}{}}
	for _, n := range incomeNames {
		c.income[normalizeName(n)] = struct{}{}
	}
	for _, n := range expenseNames {
		c.expense[normalizeName(n)] = struct{}{}
	}
	return c
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Kind 返回类型名称对应的方向
func (c Classifier) Kind(typeName string) Kind {
	n := normalizeName(typeName)
	if _, ok := c.income[n]; ok {
		return KindIncome
	}
	if _, ok := c.expense[n]; ok {
		return KindExpense
	}
	return KindOther
}

// TypeTotal 按流水类型分组的合计
type TypeTotal struct {
	TypeName string          `gorm:"column:type_name"`
	Total    decimal.Decimal `gorm:"column:total"`
	Count    int64           `gorm:"column:count"`
}

// Summary 收支汇总
type Summary struct {
	TotalIncome      decimal.Decimal
	TotalExpense     decimal.Decimal
	Balance          decimal.Decimal
	TransactionCount int64
}

// Summarize 汇总分组合计；空输入得到全 0。
// 既非收入也非支出的类型只计入笔数。
func Summarize(rows []TypeTotal, cls Classifier) Summary {
	s := Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, r := range rows {
		s.TransactionCount += r.Count
		switch cls.Kind(r.TypeName) {
		case KindIncome:
			s.TotalIncome = s.TotalIncome.Add(r.Total)
		case KindExpense:
			s.TotalExpense = s.TotalExpense.Add(r.Total)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// SummaryView 金额固定两位小数的 JSON 结构
type SummaryView struct {
	TotalIncome      string `json:"total_income"`
	TotalExpense     string `json:"total_expense"`
	Balance          string `json:"balance"`
	TransactionCount int64  `json:"transaction_count"`
}

// View 转为展示结构
func (s Summary) View() SummaryView {
	return SummaryView{
		TotalIncome:      s.TotalIncome.StringFixed(2),
		TotalExpense:     s.TotalExpense.StringFixed(2),
		Balance:          s.Balance.StringFixed(2),
		TransactionCount: s.TransactionCount,
	}
}
