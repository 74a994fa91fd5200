package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"cashflow/database"
	"cashflow/models"
	"cashflow/service"
	"cashflow/web"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupMockDB gorm 走 mysql 方言，SQL 由 sqlmock 断言
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return mock, gormDB, func() {
		sqlDB.Close()
	}
}

// testLedger 基于临时 SQLite 文件的完整账本
type testLedger struct {
	db   *gorm.DB
	refs *service.ReferenceService
	cats *service.CategoryService
	txs  *service.TransactionService
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cls := service.NewClassifier([]string{"收入"}, []string{"支出"})
	l := &testLedger{
		db:   db,
		refs: service.NewReferenceService(db, nil),
		cats: service.NewCategoryService(db, nil),
		txs:  service.NewTransactionService(db, cls, service.DefaultPageSize, nil),
	}
	seeder := service.NewSeeder(db, l.refs, l.cats, l.txs, zap.NewNop())
	require.NoError(t, seeder.LoadInitialData(context.Background()))
	return l
}

// engine 注册与正式路由一致的接口和页面
func (l *testLedger) engine(t *testing.T) *gin.Engine {
	t.Helper()
	log := zap.NewNop()
	r := gin.New()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)

	pages := NewPageHandler(l.refs, l.cats, l.txs, log)
	r.GET("/", pages.Home)
	r.GET("/transaction/create", pages.NewForm)
	r.POST("/transaction/create", pages.Create)
	r.GET("/transaction/:id/edit", pages.EditForm)
	r.POST("/transaction/:id/edit", pages.Update)
	r.GET("/transaction/:id/delete", pages.DeleteConfirm)
	r.POST("/transaction/:id/delete", pages.Delete)
	r.GET("/reference-management", pages.References)
	r.GET("/ajax/categories-by-type", pages.CategoriesByType)

	v1 := r.Group("/api/v1")
	st := NewStatusHandler(l.refs, log)
	v1.GET("/statuses", st.List)
	v1.DELETE("/statuses/:id", st.Delete)

	cat := NewCategoryHandler(l.cats, log)
	v1.GET("/categories", cat.List)
	v1.POST("/categories", cat.Create)
	v1.GET("/categories/tree", cat.Tree)
	v1.GET("/categories/by_type", cat.ByType)
	v1.GET("/categories/:id", cat.Get)
	v1.GET("/categories/:id/children", cat.Children)
	v1.PATCH("/categories/:id", cat.Patch)
	v1.DELETE("/categories/:id", cat.Delete)

	tx := NewTransactionHandler(l.txs, service.Exporter{}, log)
	v1.GET("/transactions", tx.List)
	v1.POST("/transactions", tx.Create)
	v1.GET("/transactions/stats", tx.Stats)
	v1.GET("/transactions/export", tx.Export)
	v1.GET("/transactions/:id", tx.Get)
	v1.PATCH("/transactions/:id", tx.Patch)
	v1.DELETE("/transactions/:id", tx.Delete)
	return r
}

func (l *testLedger) statusID(t *testing.T, name string) uint {
	t.Helper()
	var s models.Status
	require.NoError(t, l.db.Where("name = ?", name).First(&s).Error)
	return s.ID
}

func (l *testLedger) typeID(t *testing.T, name string) uint {
	t.Helper()
	var tt models.TransactionType
	require.NoError(t, l.db.Where("name = ?", name).First(&tt).Error)
	return tt.ID
}

func (l *testLedger) categoryID(t *testing.T, typeName string, path ...string) uint {
	t.Helper()
	c, err := l.cats.FindByPath(context.Background(), l.typeID(t, typeName), path...)
	require.NoError(t, err)
	return c.ID
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func countTransactions(t *testing.T, l *testLedger) int64 {
	t.Helper()
	var n int64
	require.NoError(t, l.db.Model(&models.Transaction{}).Count(&n).Error)
	return n
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
