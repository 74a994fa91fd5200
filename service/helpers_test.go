package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cashflow/database"
	"cashflow/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type ledger struct {
	db   *gorm.DB
	refs *ReferenceService
	cats *CategoryService
	txs  *TransactionService
	seed *Seeder
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	db := newTestDB(t)
	refs := NewReferenceService(db, nil)
	cats := NewCategoryService(db, nil)
	txs := NewTransactionService(db, NewClassifier([]string{"收入", "income"}, []string{"支出", "expense"}), DefaultPageSize, nil)
	return &ledger{
		db:   db,
		refs: refs,
		cats: cats,
		txs:  txs,
		seed: NewSeeder(db, refs, cats, txs, zap.NewNop()),
	}
}

// seeded 写入初始数据后的账本
func seeded(t *testing.T) *ledger {
	t.Helper()
	l := newLedger(t)
	require.NoError(t, l.seed.LoadInitialData(context.Background()))
	return l
}

func (l *ledger) status(t *testing.T, name string) uint {
	t.Helper()
	var s models.Status
	require.NoError(t, l.db.Where("name = ?", name).First(&s).Error)
	return s.ID
}

func (l *ledger) typeID(t *testing.T, name string) uint {
	t.Helper()
	var tt models.TransactionType
	require.NoError(t, l.db.Where("name = ?", name).First(&tt).Error)
	return tt.ID
}

func (l *ledger) category(t *testing.T, typeName string, path ...string) uint {
	t.Helper()
	c, err := l.cats.FindByPath(context.Background(), l.typeID(t, typeName), path...)
	require.NoError(t, err)
	return c.ID
}

func (l *ledger) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, l.db.Model(model).Count(&n).Error)
	return n
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func uintPtr(v uint) *uint {
	return &v
}
