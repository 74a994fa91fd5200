package api

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"cashflow/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionHandler_Create(t *testing.T) {
	l := newTestLedger(t)
	router := l.engine(t)

	w := doJSON(router, "POST", "/api/v1/transactions", map[string]interface{}{
		"date":             "2024-01-15 09:30",
		"status":           l.statusID(t, "经营"),
		"transaction_type": l.typeID(t, "收入"),
		"category":         l.categoryID(t, "收入", "工资"),
		"amount":           "50000",
		"comment":          "一月工资",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	view := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "50000.00", view["amount"])
	assert.Equal(t, "15.01.2024 09:30", view["date_display"])
	assert.Equal(t, "工资", view["category_name"])
	assert.Equal(t, "收入", view["transaction_type_name"])
	assert.Equal(t, int64(1), countTransactions(t, l))
}

func TestTransactionHandler_CreateRejected(t *testing.T) {
	l := newTestLedger(t)
	router := l.engine(t)
	business := l.statusID(t, "经营")
	income := l.typeID(t, "收入")
	expense := l.typeID(t, "支出")

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantReason string
	}{
		{"分类与类型不符", map[string]interface{}{
			"status": business, "transaction_type": income,
			"category": l.categoryID(t, "支出", "餐饮"), "amount": "10",
		}, "type_mismatch"},
		{"非末级分类", map[string]interface{}{
			"status": business, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "市场推广"), "amount": "10",
		}, "non_leaf_category"},
		{"金额为零", map[string]interface{}{
			"status": business, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "餐饮"), "amount": "0",
		}, "non_positive_amount"},
		{"金额为负", map[string]interface{}{
			"status": business, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "餐饮"), "amount": "-5",
		}, "non_positive_amount"},
		{"金额低于最小值", map[string]interface{}{
			"status": business, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "餐饮"), "amount": "0.001",
		}, "non_positive_amount"},
		{"缺少金额", map[string]interface{}{
			"status": business, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "餐饮"),
		}, "invalid_input"},
		{"日期格式错误", map[string]interface{}{
			"date": "15/01/2024", "status": business, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "餐饮"), "amount": "10",
		}, "invalid_input"},
		{"状态不存在", map[string]interface{}{
			"status": 999, "transaction_type": expense,
			"category": l.categoryID(t, "支出", "餐饮"), "amount": "10",
		}, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/v1/transactions", tt.body)
			require.Equal(t, 400, w.Code, w.Body.String())
			data := decode(t, w)["data"].(map[string]interface{})
			assert.Equal(t, tt.wantReason, data["reason"])
		})
	}
	assert.Equal(t, int64(0), countTransactions(t, l))
}

func TestTransactionHandler_PatchAndDelete(t *testing.T) {
	l := newTestLedger(t)
	router := l.engine(t)
	food := l.categoryID(t, "支出", "餐饮")

	tx, err := l.txs.Create(t.Context(), service.TransactionInput{
		StatusID:          l.statusID(t, "个人"),
		TransactionTypeID: l.typeID(t, "支出"),
		CategoryID:        food,
		Amount:            mustDecimal("120.5"),
	})
	require.NoError(t, err)
	path := "/api/v1/transactions/" + uintStr(tx.ID)

	w := doJSON(router, "PATCH", path, `{"amount":"99.90","comment":"午餐"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	view := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "99.90", view["amount"])
	assert.Equal(t, "午餐", view["comment"])

	// 合并后重新校验：改为收入类型但分类仍是支出分类
	w = doJSON(router, "PATCH", path, map[string]interface{}{"transaction_type": l.typeID(t, "收入")})
	require.Equal(t, 400, w.Code)
	assert.Equal(t, "type_mismatch", decode(t, w)["data"].(map[string]interface{})["reason"])

	w = doJSON(router, "DELETE", path, nil)
	assert.Equal(t, 200, w.Code)
	w = doJSON(router, "GET", path, nil)
	assert.Equal(t, 404, w.Code)
	w = doJSON(router, "DELETE", path, nil)
	assert.Equal(t, 404, w.Code)
}

func TestTransactionHandler_ListFilterAndPage(t *testing.T) {
	l := newTestLedger(t)
	router := l.engine(t)
	business := l.statusID(t, "经营")
	expense := l.typeID(t, "支出")
	food := l.categoryID(t, "支出", "餐饮")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)

	for i := 0; i < 25; i++ {
		d := base.AddDate(0, 0, i)
		_, err := l.txs.Create(t.Context(), service.TransactionInput{
			Date:              &d,
			StatusID:          business,
			TransactionTypeID: expense,
			CategoryID:        food,
			Amount:            mustDecimal(fmt.Sprintf("%d.10", i+1)),
		})
		require.NoError(t, err)
	}

	w := doJSON(router, "GET", "/api/v1/transactions", nil)
	require.Equal(t, 200, w.Code)
	list := decode(t, w)["data"].([]interface{})
	require.Len(t, list, 25)
	assert.Equal(t, "25.10", list[0].(map[string]interface{})["amount"])

	w = doJSON(router, "GET", "/api/v1/transactions?page=2", nil)
	require.Equal(t, 200, w.Code)
	page := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), page["page"])
	assert.Equal(t, float64(2), page["total_pages"])
	assert.Len(t, page["list"].([]interface{}), 5)

	// 越界页码取最后一页
	w = doJSON(router, "GET", "/api/v1/transactions?page=99", nil)
	page = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), page["page"])

	w = doJSON(router, "GET", "/api/v1/transactions?date_from=2024-03-10&date_to=2024-03-12", nil)
	require.Equal(t, 200, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 3)

	w = doJSON(router, "GET", "/api/v1/transactions?date_from=2024/03/10", nil)
	assert.Equal(t, 400, w.Code)
}

func TestTransactionHandler_Stats(t *testing.T) {
	l := newTestLedger(t)
	router := l.engine(t)
	business := l.statusID(t, "经营")

	for _, in := range []service.TransactionInput{
		{StatusID: business, TransactionTypeID: l.typeID(t, "收入"), CategoryID: l.categoryID(t, "收入", "工资"), Amount: mustDecimal("50000")},
		{StatusID: business, TransactionTypeID: l.typeID(t, "支出"), CategoryID: l.categoryID(t, "支出", "基础设施", "VPS"), Amount: mustDecimal("1500")},
		{StatusID: business, TransactionTypeID: l.typeID(t, "支出"), CategoryID: l.categoryID(t, "支出", "市场推广", "Avito"), Amount: mustDecimal("3000")},
	} {
		_, err := l.txs.Create(t.Context(), in)
		require.NoError(t, err)
	}

	w := doJSON(router, "GET", "/api/v1/transactions/stats", nil)
	require.Equal(t, 200, w.Code)
	sum := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "50000.00", sum["total_income"])
	assert.Equal(t, "4500.00", sum["total_expense"])
	assert.Equal(t, "45500.00", sum["balance"])
	assert.Equal(t, float64(3), sum["transaction_count"])

	w = doJSON(router, "GET", "/api/v1/transactions/stats?status="+uintStr(l.statusID(t, "个人")), nil)
	sum = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "0.00", sum["balance"])
	assert.Equal(t, float64(0), sum["transaction_count"])
}

func TestTransactionHandler_Export(t *testing.T) {
	l := newTestLedger(t)
	router := l.engine(t)
	_, err := l.txs.Create(t.Context(), service.TransactionInput{
		StatusID:          l.statusID(t, "经营"),
		TransactionTypeID: l.typeID(t, "收入"),
		CategoryID:        l.categoryID(t, "收入", "销售"),
		Amount:            mustDecimal("800"),
		Comment:           "样品",
	})
	require.NoError(t, err)

	w := doJSON(router, "GET", "/api/v1/transactions/export", nil)
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
	assert.Contains(t, body, "800.00")
	assert.Contains(t, body, "样品")

	w = doJSON(router, "GET", "/api/v1/transactions/export?format=xlsx", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "PK", w.Body.String()[:2])

	w = doJSON(router, "GET", "/api/v1/transactions/export?format=doc", nil)
	assert.Equal(t, 400, w.Code)
}
