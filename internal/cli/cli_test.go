package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ledgerbook", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"serve"}, {"summary"},
		{"sync", "status"}, {"sync", "changes"}, {"sync", "ack"}, {"sync", "complete"},
		{"order", "create"}, {"order", "pay"}, {"order", "cancel"},
	} {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "x.db"), "--format", "xml", "summary")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// seedDB creates one customer and one product (stock 10, price 20.00).
func seedDB(t *testing.T) (path string, customerID, productID int64) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "cli.db")
	db, err := repos.OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	stores := repos.NewStores(db, clock.System)
	ctx := context.Background()
	customerID, err = stores.Customers.Create(ctx, domain.Customer{Name: "Ana"})
	require.NoError(t, err)
	productID, err = stores.Products.Create(ctx, domain.Product{
		Name:         "Widget",
		SellingPrice: decimal.RequireFromString("20.00"),
		StockCount:   10,
	})
	require.NoError(t, err)
	return path, customerID, productID
}

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func runJSON(t *testing.T, db string, dst any, args ...string) {
	t.Helper()
	out, err := run(t, db, append([]string{"--format", "json"}, args...)...)
	require.NoError(t, err, out)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.Equal(t, "ok", env.Status)
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
}

func TestOrderWorkflowCommands(t *testing.T) {
	db, cust, prod := seedDB(t)

	var order domain.Order
	runJSON(t, db, &order, "order", "create", itoa(cust), itoa(prod), "3")
	assert.Equal(t, "60.00", order.TotalAmount.StringFixed(2))

	out, err := run(t, db, "order", "pay", itoa(order.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "paid, transaction #")

	out, err = run(t, db, "order", "pay", itoa(order.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "already paid")

	out, err = run(t, db, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Current balance:   60.00")

	out, err = run(t, db, "order", "cancel", itoa(order.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "stock restored")

	_, err = run(t, db, "order", "pay", itoa(order.ID))
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestOrderCreateRejectsBadArgs(t *testing.T) {
	db, cust, prod := seedDB(t)
	_, err := run(t, db, "order", "create", itoa(cust), "abc", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, db, "order", "create", itoa(cust), "999", "1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	for _, qty := range []string{"0", "-2", "10001", "two"} {
		_, err = run(t, db, "order", "create", itoa(cust), itoa(prod), qty)
		require.Error(t, err, qty)
		assert.Equal(t, ExitCommandError, GetExitCode(err), qty)
	}
	var order domain.Order
	runJSON(t, db, &order, "order", "create", itoa(cust), itoa(prod), "10")
	assert.Equal(t, 10, order.Quantity)
}

func TestSyncCommands(t *testing.T) {
	db, _, _ := seedDB(t)

	out, err := run(t, db, "sync", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending:   2")
	assert.Contains(t, out, "Last sync: never")

	out, err = run(t, db, "sync", "changes")
	require.NoError(t, err)
	var cs struct {
		Until     domain.Millis     `json:"until"`
		Customers []domain.Customer `json:"customers"`
		Products  []domain.Product  `json:"products"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cs), out)
	require.Len(t, cs.Customers, 1)
	require.Len(t, cs.Products, 1)

	acks, err := json.Marshal([]map[string]any{
		{"kind": "customer", "id": cs.Customers[0].ID, "updatedAt": cs.Customers[0].UpdatedAt},
		{"kind": "product", "id": cs.Products[0].ID, "updatedAt": cs.Products[0].UpdatedAt},
	})
	require.NoError(t, err)
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetIn(bytes.NewReader(acks))
	cmd.SetArgs([]string{"--db", db, "sync", "ack"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Applied 2, stale 0")

	var res map[string]int64
	runJSON(t, db, &res, "sync", "complete", itoa(int64(cs.Until)))
	assert.Equal(t, int64(cs.Until), res["lastSync"])

	var st struct {
		PendingCount int           `json:"pendingCount"`
		LastSync     domain.Millis `json:"lastSync"`
	}
	runJSON(t, db, &st, "sync", "status")
	assert.Zero(t, st.PendingCount)
	assert.Equal(t, cs.Until, st.LastSync)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
