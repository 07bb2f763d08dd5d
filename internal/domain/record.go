package domain

import "time"

// Millis is a Unix timestamp in milliseconds, the resolution every record
// timestamp is persisted with.
type Millis int64

func MillisOf(t time.Time) Millis { return Millis(t.UnixMilli()) }

func (m Millis) Time() time.Time { return time.UnixMilli(int64(m)).UTC() }

type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncSynced  SyncStatus = "SYNCED"
)

// Record carries the bookkeeping every stored entity shares. It is embedded
// in each entity so the generic store can reach it through Meta.
type Record struct {
	ID         int64      `db:"id" json:"id"`
	CreatedAt  Millis     `db:"created_at" json:"createdAt"`
	UpdatedAt  Millis     `db:"updated_at" json:"updatedAt"`
	DeletedAt  *Millis    `db:"deleted_at" json:"deletedAt"`
	SyncStatus SyncStatus `db:"sync_status" json:"syncStatus"`
}

func (r *Record) Meta() *Record { return r }

// Active reports whether the record has not been tombstoned.
func (r *Record) Active() bool { return r.DeletedAt == nil }

// Entity is anything that embeds a Record.
type Entity interface {
	Meta() *Record
}
