package service

import (
	"context"
	"sync"
	"testing"

	"cashflow/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return mock, db
}

func TestCreateStatus_LocksNamesBeforeCheck(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `name_locks`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT \\* FROM `name_locks` WHERE scope = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"scope"}).AddRow("statuses"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `statuses` WHERE name = \\?").
		WithArgs("经营").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := NewReferenceService(db, nil).CreateStatus(context.Background(), ReferenceInput{Name: "经营"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRenameTransactionType_LocksNames(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `transaction_types` WHERE `transaction_types`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "支出"))
	mock.ExpectExec("INSERT INTO `name_locks`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `name_locks` WHERE scope = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"scope"}).AddRow("transaction_types"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transaction_types` WHERE name = \\?").
		WithArgs("收入", 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	name := "收入"
	_, err := NewReferenceService(db, nil).UpdateTransactionType(context.Background(), 2, ReferencePatch{Name: &name})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryCreate_LocksTypeRow(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `transaction_types` WHERE `transaction_types`.`id` = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories` WHERE .*parent_id IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	cats := NewCategoryService(db, nil)
	_, err := cats.Create(context.Background(), CategoryInput{Name: "工资", TransactionTypeID: 1})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStatus_ConcurrentSameName(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.refs.CreateStatus(ctx, ReferenceInput{Name: "税务"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	var rows int64
	require.NoError(t, l.db.Model(&models.Status{}).Where("name = ?", "税务").Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
