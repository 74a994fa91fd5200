package service

import (
	"context"
	"testing"

	"cashflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Idempotent(t *testing.T) {
	l := seeded(t)
	ctx := context.Background()

	require.NoError(t, l.seed.LoadInitialData(ctx))
	assert.Equal(t, int64(3), l.count(t, &models.Status{}))
	assert.Equal(t, int64(2), l.count(t, &models.TransactionType{}))
	assert.Equal(t, int64(16), l.count(t, &models.Category{}))

	require.NoError(t, l.seed.CreateSampleTransactions(ctx))
	require.NoError(t, l.seed.CreateSampleTransactions(ctx))
	assert.Equal(t, int64(10), l.count(t, &models.Transaction{}))
}

func TestSeeder_SampleStats(t *testing.T) {
	l := seeded(t)
	ctx := context.Background()
	require.NoError(t, l.seed.CreateSampleTransactions(ctx))

	sum, err := l.txs.Stats(ctx, Criteria{})
	require.NoError(t, err)
	assert.Equal(t, SummaryView{
		TotalIncome:      "73000.00",
		TotalExpense:     "16800.00",
		Balance:          "56200.00",
		TransactionCount: 10,
	}, sum.View())

	business := l.status(t, "经营")
	sum, err = l.txs.Stats(ctx, Criteria{StatusID: &business})
	require.NoError(t, err)
	assert.Equal(t, "65000.00", sum.View().TotalIncome)
	assert.Equal(t, "11700.00", sum.View().TotalExpense)
}
