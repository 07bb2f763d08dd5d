package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/config"
	"ledgerbook/internal/http/handlers"
	"ledgerbook/internal/repos"
)

const adminToken = "s3cret-admin-token"

type testAPI struct {
	app    *fiber.App
	stores *repos.Stores
	clock  *clock.Manual
	logs   *observer.ObservedLogs
}

func newTestAPI(t *testing.T, mutate ...func(*handlers.AppOptions)) *testAPI {
	t.Helper()
	db, err := repos.OpenDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	clk := clock.NewManual(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	stores := repos.NewStores(db, clk)
	cfg := config.Config{SalesCategoryName: "Vendas", SalesCategoryColor: "#4F46E5", RecentHistoryLimit: 20}

	opts := handlers.AppOptions{Log: log, AdminTokenHash: string(hash)}
	for _, m := range mutate {
		m(&opts)
	}
	app := handlers.NewApp(handlers.NewDeps(stores, clk, cfg, log), opts)
	return &testAPI{app: app, stores: stores, clock: clk, logs: logs}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// call performs the request, asserts the status and decodes the body into dst.
func (a *testAPI) call(t *testing.T, method, path string, body any, want int, dst any) {
	t.Helper()
	resp, out := a.do(t, method, path, body)
	require.Equal(t, want, resp.StatusCode, "body: %s", out)
	if dst != nil {
		require.NoError(t, json.Unmarshal(out, dst), "body: %s", out)
	}
}
