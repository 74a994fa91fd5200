package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testClassifier = NewClassifier([]string{"收入", "Income"}, []string{"支出", "expense"})

func TestClassifier_Kind(t *testing.T) {
	assert.Equal(t, KindIncome, testClassifier.Kind("收入"))
	assert.Equal(t, KindIncome, testClassifier.Kind(" income "))
	assert.Equal(t, KindExpense, testClassifier.Kind("EXPENSE"))
	assert.Equal(t, KindOther, testClassifier.Kind("转账"))
}

func TestSummarize_Empty(t *testing.T) {
	v := Summarize(nil, testClassifier).View()
	assert.Equal(t, SummaryView{TotalIncome: "0.00", TotalExpense: "0.00", Balance: "0.00"}, v)
}

func TestSummarize_SingleIncome(t *testing.T) {
	s := Summarize([]TypeTotal{{TypeName: "Income", Total: amount("50000.00"), Count: 1}}, testClassifier)
	assert.Equal(t, SummaryView{
		TotalIncome:      "50000.00",
		TotalExpense:     "0.00",
		Balance:          "50000.00",
		TransactionCount: 1,
	}, s.View())
}

func TestSummarize_Mixed(t *testing.T) {
	s := Summarize([]TypeTotal{
		{TypeName: "收入", Total: amount("0.10"), Count: 1},
		{TypeName: "income", Total: amount("0.20"), Count: 2},
		{TypeName: "支出", Total: amount("100.55"), Count: 3},
		{TypeName: "转账", Total: amount("999"), Count: 4},
	}, testClassifier)

	assert.True(t, s.TotalIncome.Equal(amount("0.30")))
	assert.True(t, s.TotalExpense.Equal(amount("100.55")))
	assert.True(t, s.Balance.Equal(amount("-100.25")))
	assert.Equal(t, int64(10), s.TransactionCount)
}
