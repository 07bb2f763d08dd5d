package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"ledgerbook/internal/domain"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every store can run
// either standalone or inside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, domain.Storage("open", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, domain.Storage("ping", err)
	}

	// single local writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return domain.Storage(fmt.Sprintf("pragma %q", p), err)
		}
	}
	return nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Products
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  sync_status TEXT NOT NULL CHECK (sync_status IN ('PENDING','SYNCED')),
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  base_cost TEXT NOT NULL DEFAULT '0',
  selling_price TEXT NOT NULL DEFAULT '0',
  stock_count INTEGER NOT NULL DEFAULT 0 CHECK (stock_count >= 0)
);

-- Customers
CREATE TABLE IF NOT EXISTS customers(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  sync_status TEXT NOT NULL CHECK (sync_status IN ('PENDING','SYNCED')),
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT ''
);

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  sync_status TEXT NOT NULL CHECK (sync_status IN ('PENDING','SYNCED')),
  name TEXT NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('INCOME','EXPENSE')),
  color TEXT NOT NULL DEFAULT ''
);

-- Orders (references only; no cascades)
CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  sync_status TEXT NOT NULL CHECK (sync_status IN ('PENDING','SYNCED')),
  customer_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  total_amount TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('PENDING','PAID','CANCELLED')),
  date INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

-- Transactions
CREATE TABLE IF NOT EXISTS transactions(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  deleted_at INTEGER,
  sync_status TEXT NOT NULL CHECK (sync_status IN ('PENDING','SYNCED')),
  category_id INTEGER NOT NULL,
  amount TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  date INTEGER NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('INCOME','EXPENSE')),
  order_id INTEGER
);
CREATE INDEX IF NOT EXISTS idx_transactions_date  ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions(order_id);

-- Sync state (watermark, replica id)
CREATE TABLE IF NOT EXISTS sync_state(
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	for _, table := range []string{"products", "customers", "categories", "orders", "transactions"} {
		schema += fmt.Sprintf(`
CREATE INDEX IF NOT EXISTS idx_%[1]s_updated_at ON %[1]s(updated_at);
CREATE INDEX IF NOT EXISTS idx_%[1]s_sync_status ON %[1]s(sync_status);`, table)
	}
	if _, err := db.Exec(schema); err != nil {
		return domain.Storage("schema", err)
	}
	return nil
}

// InTx runs fn inside one database transaction. Any error from fn, or a
// failed commit, rolls back every write fn made.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Storage("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.Storage("commit", err)
	}
	return nil
}
