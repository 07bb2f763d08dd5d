package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
)

// Ptr constrains a store's pointer type: *T must expose the embedded Record.
type Ptr[T any] interface {
	*T
	domain.Entity
}

// Table describes where one record kind lives. Columns lists the business
// columns only; the Record columns are implied.
type Table struct {
	Kind    string
	Name    string
	Columns []string
}

var recordColumns = []string{"id", "created_at", "updated_at", "deleted_at", "sync_status"}

// Store is the soft-delete, sync-tracked CRUD layer for one record kind.
// Every mutation goes through here so updatedAt and syncStatus always move
// together.
type Store[T any, P Ptr[T]] struct {
	db    DBTX
	clock clock.Clock
	table Table

	selectSQL string
	insertSQL string
	updateSQL string
}

func NewStore[T any, P Ptr[T]](db DBTX, clk clock.Clock, table Table) *Store[T, P] {
	s := &Store[T, P]{db: db, clock: clk, table: table}

	all := append(append([]string{}, recordColumns...), table.Columns...)
	s.selectSQL = fmt.Sprintf("SELECT %s FROM %s", strings.Join(all, ", "), table.Name)

	ins := all[1:]
	s.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table.Name, strings.Join(ins, ", "), strings.Join(ins, ", :"))

	sets := make([]string, 0, len(table.Columns)+2)
	for _, c := range append([]string{"updated_at", "sync_status"}, table.Columns...) {
		sets = append(sets, c+" = :"+c)
	}
	s.updateSQL = fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table.Name, strings.Join(sets, ", "))
	return s
}

// WithTx returns a copy of the store bound to tx.
func (s *Store[T, P]) WithTx(tx DBTX) *Store[T, P] {
	cp := *s
	cp.db = tx
	return &cp
}

func (s *Store[T, P]) Kind() string { return s.table.Kind }

func (s *Store[T, P]) now() domain.Millis { return domain.MillisOf(s.clock.Now()) }

func (s *Store[T, P]) notFound(id int64) error {
	return fmt.Errorf("%s %d: %w", s.table.Kind, id, domain.ErrNotFound)
}

func (s *Store[T, P]) op(name string) string { return s.table.Kind + "." + name }

// Create stamps fresh bookkeeping on v, inserts it and returns the new id.
func (s *Store[T, P]) Create(ctx context.Context, v T) (int64, error) {
	now := s.now()
	*P(&v).Meta() = domain.Record{CreatedAt: now, UpdatedAt: now, SyncStatus: domain.SyncPending}

	res, err := sqlx.NamedExecContext(ctx, s.db, s.insertSQL, &v)
	if err != nil {
		return 0, domain.Storage(s.op("create"), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.Storage(s.op("create"), err)
	}
	return id, nil
}

// Get returns the active record with id; tombstones behave as missing.
func (s *Store[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	var v T
	err := s.db.GetContext(ctx, &v, s.selectSQL+" WHERE id = ? AND deleted_at IS NULL", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, domain.Storage(s.op("get"), err)
	}
	return &v, nil
}

// Lookup reads a record regardless of its tombstone.
func (s *Store[T, P]) Lookup(ctx context.Context, id int64) (*T, error) {
	var v T
	err := s.db.GetContext(ctx, &v, s.selectSQL+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, domain.Storage(s.op("lookup"), err)
	}
	return &v, nil
}

func (s *Store[T, P]) list(ctx context.Context, op, where string, args ...any) ([]T, error) {
	out := []T{}
	if err := s.db.SelectContext(ctx, &out, s.selectSQL+" "+where, args...); err != nil {
		return nil, domain.Storage(s.op(op), err)
	}
	return out, nil
}

// ListActive returns every record that is not tombstoned, by id.
func (s *Store[T, P]) ListActive(ctx context.Context) ([]T, error) {
	return s.list(ctx, "list", "WHERE deleted_at IS NULL ORDER BY id")
}

// FindActive returns the lowest-id active record match accepts.
func (s *Store[T, P]) FindActive(ctx context.Context, match func(*T) bool) (*T, error) {
	all, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if match(&all[i]) {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", s.table.Kind, domain.ErrNotFound)
}

// updateAttempts bounds how often Update re-reads a record that another
// writer changed between its read and its write.
const updateAttempts = 5

// stamp returns the updatedAt for a write that replaces version prev. It is
// always past prev, so a compare on updated_at sees every intervening write
// even when the clock has not moved.
func (s *Store[T, P]) stamp(prev domain.Millis) domain.Millis {
	return max(s.now(), prev+1)
}

// Update loads the record, lets mutate change its business fields and
// writes it back with a new updatedAt and a Pending sync status. Record
// bookkeeping set by mutate is ignored.
//
// The write only lands if the row still holds the version that was read.
// Otherwise the record is read again and mutate runs again on the fresh
// copy, so a concurrent write is never overwritten with stale columns.
func (s *Store[T, P]) Update(ctx context.Context, id int64, mutate func(*T) error) (*T, error) {
	for attempt := 1; ; attempt++ {
		v, err := s.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		meta := *P(v).Meta()
		prev := meta.UpdatedAt
		if err := mutate(v); err != nil {
			return nil, err
		}
		meta.UpdatedAt = s.stamp(prev)
		meta.SyncStatus = domain.SyncPending
		*P(v).Meta() = meta

		query, args, err := sqlx.Named(s.updateSQL, v)
		if err != nil {
			return nil, domain.Storage(s.op("update"), err)
		}
		res, err := s.db.ExecContext(ctx, query+" AND updated_at = ?", append(args, prev)...)
		if err != nil {
			return nil, domain.Storage(s.op("update"), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, domain.Storage(s.op("update"), err)
		}
		if n > 0 {
			return v, nil
		}
		if attempt == updateAttempts {
			return nil, fmt.Errorf("%s %d: %w", s.table.Kind, id, domain.ErrConflict)
		}
	}
}

// SoftDelete tombstones the record. Deleting a tombstone is a no-op.
func (s *Store[T, P]) SoftDelete(ctx context.Context, id int64) error {
	v, err := s.Lookup(ctx, id)
	if err != nil {
		return err
	}
	meta := P(v).Meta()
	if !meta.Active() {
		return nil
	}
	now := s.stamp(meta.UpdatedAt)
	_, err = s.db.ExecContext(ctx,
		"UPDATE "+s.table.Name+" SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, domain.SyncPending, id)
	return domain.Storage(s.op("soft_delete"), err)
}

// HardDelete physically removes the row. Administrative only: no tombstone
// is left for sync consumers.
func (s *Store[T, P]) HardDelete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table.Name+" WHERE id = ?", id)
	if err != nil {
		return domain.Storage(s.op("hard_delete"), err)
	}
	return s.requireRow(res, id, "hard_delete")
}

// PendingSync returns active and tombstoned records awaiting propagation.
func (s *Store[T, P]) PendingSync(ctx context.Context) ([]T, error) {
	return s.list(ctx, "pending_sync", "WHERE sync_status = ? ORDER BY id", domain.SyncPending)
}

// CountPending is len(PendingSync) without loading the rows.
func (s *Store[T, P]) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+s.table.Name+" WHERE sync_status = ?", domain.SyncPending)
	if err != nil {
		return 0, domain.Storage(s.op("count_pending"), err)
	}
	return n, nil
}

// MarkSynced flags the record Synced and leaves updatedAt untouched.
func (s *Store[T, P]) MarkSynced(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE "+s.table.Name+" SET sync_status = ? WHERE id = ?", domain.SyncSynced, id)
	if err != nil {
		return domain.Storage(s.op("mark_synced"), err)
	}
	return s.requireRow(res, id, "mark_synced")
}

// MarkSyncedVersion flags the record Synced only if it has not been written
// since version was read. It reports whether the flag was applied, and
// ErrNotFound when no such row exists.
func (s *Store[T, P]) MarkSyncedVersion(ctx context.Context, id int64, version domain.Millis) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE "+s.table.Name+" SET sync_status = ? WHERE id = ? AND updated_at = ?",
		domain.SyncSynced, id, version)
	if err != nil {
		return false, domain.Storage(s.op("mark_synced"), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Storage(s.op("mark_synced"), err)
	}
	if n > 0 {
		return true, nil
	}
	var exists bool
	err = s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM "+s.table.Name+" WHERE id = ?)", id)
	if err != nil {
		return false, domain.Storage(s.op("mark_synced"), err)
	}
	if !exists {
		return false, s.notFound(id)
	}
	return false, nil
}

// ChangedSince returns records, tombstones included, written after since,
// oldest first.
func (s *Store[T, P]) ChangedSince(ctx context.Context, since domain.Millis) ([]T, error) {
	return s.list(ctx, "changed_since", "WHERE updated_at > ? ORDER BY updated_at, id", since)
}

func (s *Store[T, P]) requireRow(res sql.Result, id int64, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Storage(s.op(op), err)
	}
	if n == 0 {
		return s.notFound(id)
	}
	return nil
}
