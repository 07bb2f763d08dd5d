package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
	"ledgerbook/internal/services"
)

var t0 = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type env struct {
	db       *sqlx.DB
	stores   *repos.Stores
	clock    *clock.Manual
	logs     *observer.ObservedLogs
	orders   *services.OrderService
	cashflow *services.CashFlowService
	sync     *services.SyncService
	txs      *services.TransactionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	clk := clock.NewManual(t0)
	stores := repos.NewStores(db, clk)

	cf := services.NewCashFlowService(stores, clk)
	cf.Location = time.UTC
	return &env{
		db:       db,
		stores:   stores,
		clock:    clk,
		logs:     logs,
		orders:   services.NewOrderService(stores, clk, log, services.DefaultSalesCategory),
		cashflow: cf,
		sync:     services.NewSyncService(stores, log),
		txs:      services.NewTransactionService(stores, clk, log),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *env) product(t *testing.T, stock int, price string) int64 {
	t.Helper()
	id, err := e.stores.Products.Create(context.Background(), domain.Product{
		Name:         "Widget",
		BaseCost:     dec("7.50"),
		SellingPrice: dec(price),
		StockCount:   stock,
	})
	require.NoError(t, err)
	return id
}

func (e *env) customer(t *testing.T, name string) int64 {
	t.Helper()
	id, err := e.stores.Customers.Create(context.Background(), domain.Customer{Name: name})
	require.NoError(t, err)
	return id
}

func (e *env) category(t *testing.T, name string, dir domain.Direction) int64 {
	t.Helper()
	id, err := e.stores.Categories.Create(context.Background(), domain.Category{Name: name, Type: dir})
	require.NoError(t, err)
	return id
}

func (e *env) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := e.stores.Products.Lookup(context.Background(), productID)
	require.NoError(t, err)
	return p.StockCount
}

func (e *env) orderIncome(t *testing.T, orderID int64) []domain.Transaction {
	t.Helper()
	all, err := e.stores.Transactions.ListActive(context.Background())
	require.NoError(t, err)
	var out []domain.Transaction
	for _, tx := range all {
		if tx.OrderID != nil && *tx.OrderID == orderID {
			out = append(out, tx)
		}
	}
	return out
}

// failOn installs a trigger that aborts every matching statement, standing
// in for a disk or I/O failure part way through a workflow.
func (e *env) failOn(t *testing.T, event, table string) {
	t.Helper()
	_, err := e.db.Exec("CREATE TRIGGER fail_" + table + " BEFORE " + event + " ON " + table +
		" BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END")
	require.NoError(t, err)
}
