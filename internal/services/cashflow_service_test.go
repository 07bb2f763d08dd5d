package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/domain"
	"ledgerbook/internal/services"
)

func TestSummary_Empty(t *testing.T) {
	e := newEnv(t)
	sum, err := e.cashflow.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.CurrentBalance.IsZero())
	assert.True(t, sum.ProjectedBalance.IsZero())
	assert.Zero(t, sum.PendingOrders)
}

func TestSummary_DerivedFromActiveRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	salary := e.category(t, "Freelance", domain.Income)
	rent := e.category(t, "Aluguel", domain.Expense)

	_, err := e.txs.CreateIncome(ctx, services.EntryInput{CategoryID: salary, Amount: dec("1000.00")})
	require.NoError(t, err)
	_, err = e.txs.CreateExpense(ctx, services.EntryInput{CategoryID: rent, Amount: dec("300.50")})
	require.NoError(t, err)
	lastMonth, err := e.txs.CreateExpense(ctx, services.EntryInput{
		CategoryID: rent,
		Amount:     dec("100.00"),
		Date:       domain.MillisOf(t0.AddDate(0, -1, 0)),
	})
	require.NoError(t, err)

	prod := e.product(t, 10, "20.00")
	_, err = e.orders.Create(ctx, e.customer(t, "Ana"), prod, 3)
	require.NoError(t, err)

	sum, err := e.cashflow.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", sum.TotalIncome.StringFixed(2))
	assert.Equal(t, "400.50", sum.TotalExpenses.StringFixed(2))
	assert.Equal(t, "599.50", sum.CurrentBalance.StringFixed(2))
	assert.Equal(t, "60.00", sum.TotalPendingIncome.StringFixed(2))
	assert.Equal(t, "659.50", sum.ProjectedBalance.StringFixed(2))
	assert.Equal(t, 1, sum.PendingOrders)
	assert.Equal(t, "300.50", sum.MonthlyExpenses.StringFixed(2))
	assert.Equal(t, "699.50", sum.MonthlyProfit.StringFixed(2))

	require.NoError(t, e.txs.Delete(ctx, lastMonth.ID))
	bal, err := e.cashflow.CurrentBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "699.50", bal.StringFixed(2))
}

func TestSummary_BalanceFollowsOrderLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o, err := e.orders.Create(ctx, e.customer(t, "Ana"), e.product(t, 10, "20.00"), 3)
	require.NoError(t, err)

	sum, err := e.cashflow.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, sum.CurrentBalance.IsZero())
	assert.Equal(t, "60.00", sum.ProjectedBalance.StringFixed(2))

	_, err = e.orders.MarkAsPaid(ctx, o.ID)
	require.NoError(t, err)
	sum, err = e.cashflow.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "60.00", sum.CurrentBalance.StringFixed(2))
	assert.Equal(t, "60.00", sum.ProjectedBalance.StringFixed(2))
	assert.Zero(t, sum.PendingOrders)

	dash, err := e.cashflow.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "60.00", dash.TotalRevenue.StringFixed(2))
	assert.Equal(t, "60.00", dash.NetProfit.StringFixed(2))
}

func TestSummary_MonthBoundary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := e.category(t, "Freelance", domain.Income)
	startOfMay := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := e.txs.CreateIncome(ctx, services.EntryInput{CategoryID: cat, Amount: dec("10"), Date: domain.MillisOf(startOfMay)})
	require.NoError(t, err)
	_, err = e.txs.CreateIncome(ctx, services.EntryInput{CategoryID: cat, Amount: dec("5"), Date: domain.MillisOf(startOfMay) - 1})
	require.NoError(t, err)

	sum, err := e.cashflow.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", sum.MonthlyIncome.String())
	assert.Equal(t, "15", sum.TotalIncome.String())
}

func TestRecentHistory_NewestFirstWithLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat := e.category(t, "Freelance", domain.Income)

	var ids []int64
	for i := range 4 {
		tx, err := e.txs.CreateIncome(ctx, services.EntryInput{
			CategoryID: cat,
			Amount:     dec("1"),
			Date:       domain.MillisOf(t0.Add(time.Duration(i) * time.Hour)),
		})
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}

	got, err := e.cashflow.RecentHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[3], got[0].ID)
	assert.Equal(t, ids[2], got[1].ID)

	all, err := e.cashflow.RecentHistory(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
