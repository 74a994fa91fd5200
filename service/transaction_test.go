package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cashflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// basicLedger 状态 Business、类型 Income / Expense、叶子分类 Salary、分组分类 Marketing > Avito
type basicLedger struct {
	*ledger
	business, income, expense, salary, marketing, avito uint
}

func newBasicLedger(t *testing.T) *basicLedger {
	t.Helper()
	l := newLedger(t)
	ctx := context.Background()

	st, err := l.refs.CreateStatus(ctx, ReferenceInput{Name: "Business"})
	require.NoError(t, err)
	inc, err := l.refs.CreateTransactionType(ctx, ReferenceInput{Name: "Income"})
	require.NoError(t, err)
	exp, err := l.refs.CreateTransactionType(ctx, ReferenceInput{Name: "Expense"})
	require.NoError(t, err)
	salary, err := l.cats.Create(ctx, CategoryInput{Name: "Salary", TransactionTypeID: inc.ID})
	require.NoError(t, err)
	marketing, err := l.cats.Create(ctx, CategoryInput{Name: "Marketing", TransactionTypeID: exp.ID})
	require.NoError(t, err)
	avito, err := l.cats.Create(ctx, CategoryInput{Name: "Avito", TransactionTypeID: exp.ID, ParentID: &marketing.ID})
	require.NoError(t, err)

	return &basicLedger{
		ledger:    l,
		business:  st.ID,
		income:    inc.ID,
		expense:   exp.ID,
		salary:    salary.ID,
		marketing: marketing.ID,
		avito:     avito.ID,
	}
}

func TestTransactionService_CreateAndStats(t *testing.T) {
	l := newBasicLedger(t)
	ctx := context.Background()
	date := day(2024, 1, 1)

	tx, err := l.txs.Create(ctx, TransactionInput{
		Date:              &date,
		StatusID:          l.business,
		TransactionTypeID: l.income,
		CategoryID:        l.salary,
		Amount:            amount("50000.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Salary", tx.Category.Name)

	view := NewTransactionView(*tx)
	assert.Equal(t, "50000.00", view.Amount)
	assert.Equal(t, "Business", view.StatusName)
	assert.Equal(t, "Income", view.TransactionTypeName)
	assert.Equal(t, "01.01.2024 00:00", view.DateDisplay)

	list, err := l.txs.List(ctx, Criteria{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tx.ID, list[0].ID)

	sum, err := l.txs.Stats(ctx, Criteria{})
	require.NoError(t, err)
	assert.Equal(t, SummaryView{
		TotalIncome:      "50000.00",
		TotalExpense:     "0.00",
		Balance:          "50000.00",
		TransactionCount: 1,
	}, sum.View())
}

func TestTransactionService_CreateRejected(t *testing.T) {
	l := newBasicLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     TransactionInput
		reason RejectReason
	}{
		{"类型不一致", TransactionInput{StatusID: l.business, TransactionTypeID: l.expense, CategoryID: l.salary, Amount: amount("10")}, ReasonTypeMismatch},
		{"分组分类", TransactionInput{StatusID: l.business, TransactionTypeID: l.expense, CategoryID: l.marketing, Amount: amount("10")}, ReasonNonLeafCategory},
		{"金额为 0", TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("0")}, ReasonNonPositiveAmount},
		{"金额低于最小值", TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("0.001")}, ReasonNonPositiveAmount},
		{"负数三位小数", TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("-0.001")}, ReasonNonPositiveAmount},
		{"缺少状态", TransactionInput{TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("10")}, ReasonInvalidInput},
		{"三位小数", TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("1.234")}, ReasonInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.txs.Create(ctx, tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}

	_, err := l.txs.Create(ctx, TransactionInput{StatusID: 999, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("10")})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, nf.Reference)

	assert.Equal(t, int64(0), l.count(t, &models.Transaction{}))

	_, err = l.txs.Create(ctx, TransactionInput{StatusID: l.business, TransactionTypeID: l.expense, CategoryID: l.avito, Amount: amount("10")})
	assert.NoError(t, err)
}

func TestTransactionService_DefaultDate(t *testing.T) {
	l := newBasicLedger(t)
	before := time.Now().Add(-time.Second)
	tx, err := l.txs.Create(context.Background(), TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("1")})
	require.NoError(t, err)
	assert.True(t, tx.Date.After(before))
}

func TestTransactionService_Update(t *testing.T) {
	l := newBasicLedger(t)
	ctx := context.Background()
	tx, err := l.txs.Create(ctx, TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("100")})
	require.NoError(t, err)

	// 只改类型，分类仍是收入分类
	_, err = l.txs.Update(ctx, tx.ID, TransactionPatch{TransactionTypeID: &l.expense})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonTypeMismatch, verr.Reason)

	comment := "调整"
	updated, err := l.txs.Update(ctx, tx.ID, TransactionPatch{
		TransactionTypeID: &l.expense,
		CategoryID:        &l.avito,
		Amount:            ptr(amount("12.30")),
		Comment:           &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, "Avito", updated.Category.Name)
	assert.Equal(t, "12.30", updated.Amount.StringFixed(2))
	assert.Equal(t, "调整", updated.Comment)

	_, err = l.txs.Update(ctx, 999, TransactionPatch{})
	assert.True(t, IsNotFound(err))
}

func TestTransactionService_Delete(t *testing.T) {
	l := newBasicLedger(t)
	ctx := context.Background()
	tx, err := l.txs.Create(ctx, TransactionInput{StatusID: l.business, TransactionTypeID: l.income, CategoryID: l.salary, Amount: amount("1")})
	require.NoError(t, err)

	require.NoError(t, l.txs.Delete(ctx, tx.ID))
	_, err = l.txs.Get(ctx, tx.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(l.txs.Delete(ctx, tx.ID)))
}

func TestTransactionService_PageAndFilter(t *testing.T) {
	l := newBasicLedger(t)
	ctx := context.Background()

	for i := 0; i < 45; i++ {
		date := day(2024, 1, 1).AddDate(0, 0, i)
		typeID, catID := l.income, l.salary
		if i%3 == 0 {
			typeID, catID = l.expense, l.avito
		}
		_, err := l.txs.Create(ctx, TransactionInput{
			Date:              &date,
			StatusID:          l.business,
			TransactionTypeID: typeID,
			CategoryID:        catID,
			Amount:            amount(fmt.Sprintf("%d.50", i+1)),
		})
		require.NoError(t, err)
	}

	list, page, err := l.txs.Page(ctx, Criteria{}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, list, 20)
	assert.True(t, day(2024, 2, 14).Equal(list[0].Date))

	list, page, err = l.txs.Page(ctx, Criteria{}, "99")
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	assert.Len(t, list, 5)

	list, page, err = l.txs.Page(ctx, Criteria{TransactionTypeID: &l.expense}, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), page.Total)
	assert.Len(t, list, 15)

	from, to := day(2024, 1, 10), day(2024, 1, 12)
	list, err = l.txs.List(ctx, Criteria{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	all, err := l.txs.List(ctx, Criteria{})
	require.NoError(t, err)
	crit := Criteria{DateFrom: &from, TransactionTypeID: &l.income}
	filtered, err := l.txs.List(ctx, crit)
	require.NoError(t, err)
	assert.Equal(t, len(FilterTransactions(crit, all)), len(filtered))

	sum, err := l.txs.Stats(ctx, Criteria{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	// 第 10、11、12 天：i=9 支出 10.50，i=10、11 收入 11.50 + 12.50
	assert.Equal(t, SummaryView{
		TotalIncome:      "24.00",
		TotalExpense:     "10.50",
		Balance:          "13.50",
		TransactionCount: 3,
	}, sum.View())
}

func TestTransactionService_OffsetDatesFilterAndOrder(t *testing.T) {
	l := newBasicLedger(t)
	ctx := context.Background()

	utc := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	tokyo := time.Date(2024, 1, 2, 1, 0, 0, 0, time.FixedZone("JST", 9*3600))
	for _, d := range []time.Time{utc, tokyo} {
		d := d
		_, err := l.txs.Create(ctx, TransactionInput{
			Date:              &d,
			StatusID:          l.business,
			TransactionTypeID: l.income,
			CategoryID:        l.salary,
			Amount:            amount("10"),
		})
		require.NoError(t, err)
	}

	all, err := l.txs.List(ctx, Criteria{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Date.Equal(utc))
	assert.True(t, all[1].Date.Equal(tokyo))

	// 按本地日期筛选，SQL 与内存结果一致
	local := utc.Local()
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	crit := Criteria{DateFrom: &from, DateTo: &from}
	list, err := l.txs.List(ctx, crit)
	require.NoError(t, err)
	assert.Len(t, list, len(FilterTransactions(crit, all)))
	found := false
	for _, tx := range list {
		if tx.Date.Equal(utc) {
			found = true
		}
	}
	assert.True(t, found)

	before := from.AddDate(0, 0, -1)
	list, err = l.txs.List(ctx, Criteria{DateTo: &before})
	require.NoError(t, err)
	assert.Len(t, list, len(FilterTransactions(Criteria{DateTo: &before}, all)))
}

func ptr[T any](v T) *T {
	return &v
}
