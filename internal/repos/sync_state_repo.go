package repos

import (
	"context"
	"database/sql"
	"errors"

	"ledgerbook/internal/domain"
)

// SyncStateRepo is a small key/value table for replication bookkeeping.
type SyncStateRepo struct{ db DBTX }

func NewSyncStateRepo(db DBTX) *SyncStateRepo { return &SyncStateRepo{db: db} }

func (r *SyncStateRepo) WithTx(tx DBTX) *SyncStateRepo { return &SyncStateRepo{db: tx} }

// Get returns the value for key and whether it was present.
func (r *SyncStateRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.GetContext(ctx, &v, `SELECT value FROM sync_state WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.Storage("sync_state.get", err)
	}
	return v, true, nil
}

func (r *SyncStateRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return domain.Storage("sync_state.set", err)
}

// SetIfAbsent stores value unless key already exists and returns whatever
// value ends up stored.
func (r *SyncStateRepo) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_state(key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, value); err != nil {
		return "", domain.Storage("sync_state.set", err)
	}
	v, _, err := r.Get(ctx, key)
	return v, err
}
