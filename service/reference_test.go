package service

import (
	"context"
	"testing"

	"cashflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e LedgerEvent) {
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Close() error { return nil }

func TestReferenceService_StatusCRUD(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	st, err := l.refs.CreateStatus(ctx, ReferenceInput{Name: " 经营 ", Description: "经营相关"})
	require.NoError(t, err)
	assert.Equal(t, "经营", st.Name)

	_, err = l.refs.CreateStatus(ctx, ReferenceInput{Name: "经营"})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)

	_, err = l.refs.CreateStatus(ctx, ReferenceInput{Name: "个人"})
	require.NoError(t, err)

	list, err := l.refs.ListStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "个人", list[0].Name)

	name := "个人"
	_, err = l.refs.UpdateStatus(ctx, st.ID, ReferencePatch{Name: &name})
	assert.ErrorAs(t, err, &conflict)

	desc := "公司"
	updated, err := l.refs.UpdateStatus(ctx, st.ID, ReferencePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "公司", updated.Description)
	assert.Equal(t, "经营", updated.Name)

	_, err = l.refs.GetStatus(ctx, 999)
	assert.True(t, IsNotFound(err))
}

func TestReferenceService_DeleteStatusCascade(t *testing.T) {
	l := seeded(t)
	events := &recordingPublisher{}
	l.refs = NewReferenceService(l.db, events)
	ctx := context.Background()
	require.NoError(t, l.seed.CreateSampleTransactions(ctx))

	personal := l.status(t, "个人")
	_, err := l.refs.DeleteStatus(ctx, personal, false)
	var warn *CascadeWarning
	require.ErrorAs(t, err, &warn)
	assert.Equal(t, int64(4), warn.Impact.Transactions)
	assert.Empty(t, events.events)

	impact, err := l.refs.DeleteStatus(ctx, personal, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), impact.Transactions)
	assert.Equal(t, int64(6), l.count(t, &models.Transaction{}))
	require.Len(t, events.events, 1)
	assert.Equal(t, EventStatusArchived, events.events[0].Type)

	// 无依赖时直接删除
	impact, err = l.refs.DeleteStatus(ctx, l.status(t, "税务"), false)
	require.NoError(t, err)
	assert.True(t, impact.IsEmpty())
}

func TestReferenceService_DeleteTransactionTypeCascade(t *testing.T) {
	l := seeded(t)
	ctx := context.Background()
	require.NoError(t, l.seed.CreateSampleTransactions(ctx))
	expense := l.typeID(t, "支出")

	_, err := l.refs.DeleteTransactionType(ctx, expense, false)
	var warn *CascadeWarning
	require.ErrorAs(t, err, &warn)
	assert.Equal(t, CascadeImpact{Categories: 12, Transactions: 7}, warn.Impact)

	_, err = l.refs.DeleteTransactionType(ctx, expense, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), l.count(t, &models.Transaction{}))
	assert.Equal(t, int64(4), l.count(t, &models.Category{}))

	types, err := l.refs.ListTransactionTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "收入", types[0].Name)

	// 归档后可以重新创建同名类型
	_, err = l.refs.CreateTransactionType(ctx, ReferenceInput{Name: "支出"})
	assert.NoError(t, err)
}
