package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
)

const (
	keyLastSync  = "last_sync"
	keyReplicaID = "replica_id"
)

// SyncService reports what still has to reach the remote store. It never
// decides on its own that something was transmitted: records are flagged
// Synced only through Acknowledge, by whoever did the transmitting.
type SyncService struct {
	Stores *repos.Stores
	Log    *zap.Logger
}

func NewSyncService(stores *repos.Stores, log *zap.Logger) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{Stores: stores, Log: log}
}

type SyncStats struct {
	PendingCount int           `json:"pendingCount"`
	LastSync     domain.Millis `json:"lastSync"`
	ReplicaID    string        `json:"replicaId"`
}

// PendingCount sums records awaiting sync across all five stores.
func (s *SyncService) PendingCount(ctx context.Context) (int, error) {
	total := 0
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		counters := []func(context.Context) (int, error){
			tx.Customers.CountPending,
			tx.Products.CountPending,
			tx.Orders.CountPending,
			tx.Transactions.CountPending,
			tx.Categories.CountPending,
		}
		for _, count := range counters {
			n, err := count(ctx)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

// LastSync returns the watermark of the last completed sync, zero if none.
func (s *SyncService) LastSync(ctx context.Context) (domain.Millis, error) {
	v, ok, err := s.Stores.SyncState.Get(ctx, keyLastSync)
	if err != nil || !ok {
		return 0, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, domain.Storage("sync.last_sync", fmt.Errorf("corrupt watermark %q: %w", v, err))
	}
	return domain.Millis(ms), nil
}

// RecordSyncCompletion advances the watermark to ts. The watermark never
// moves backwards; an older ts is ignored.
func (s *SyncService) RecordSyncCompletion(ctx context.Context, ts domain.Millis) (domain.Millis, error) {
	var current domain.Millis
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		prev, err := (&SyncService{Stores: tx}).LastSync(ctx)
		if err != nil {
			return err
		}
		current = prev
		if ts <= prev {
			return nil
		}
		current = ts
		return tx.SyncState.Set(ctx, keyLastSync, strconv.FormatInt(int64(ts), 10))
	})
	if err != nil {
		return 0, err
	}
	if current != ts {
		s.Log.Warn("sync.complete.stale", zap.Int64("requested", int64(ts)), zap.Int64("watermark", int64(current)))
	} else {
		s.Log.Info("sync.complete", zap.Int64("watermark", int64(ts)))
	}
	return current, nil
}

// ReplicaID returns this store's stable identity, minting one on first use.
func (s *SyncService) ReplicaID(ctx context.Context) (string, error) {
	return s.Stores.SyncState.SetIfAbsent(ctx, keyReplicaID, uuid.NewString())
}

func (s *SyncService) Stats(ctx context.Context) (SyncStats, error) {
	n, err := s.PendingCount(ctx)
	if err != nil {
		return SyncStats{}, err
	}
	last, err := s.LastSync(ctx)
	if err != nil {
		return SyncStats{}, err
	}
	rid, err := s.ReplicaID(ctx)
	if err != nil {
		return SyncStats{}, err
	}
	return SyncStats{PendingCount: n, LastSync: last, ReplicaID: rid}, nil
}

// ChangeSet is every record written after Since, tombstones included.
// Until is the newest updatedAt in the set (Since when empty) and is the
// value to pass to RecordSyncCompletion once the set has been delivered.
type ChangeSet struct {
	ExportID     string               `json:"exportId"`
	ReplicaID    string               `json:"replicaId"`
	Since        domain.Millis        `json:"since"`
	Until        domain.Millis        `json:"until"`
	Products     []domain.Product     `json:"products"`
	Customers    []domain.Customer    `json:"customers"`
	Categories   []domain.Category    `json:"categories"`
	Orders       []domain.Order       `json:"orders"`
	Transactions []domain.Transaction `json:"transactions"`
}

func (c *ChangeSet) Len() int {
	return len(c.Products) + len(c.Customers) + len(c.Categories) + len(c.Orders) + len(c.Transactions)
}

// Changes collects everything changed after since from one consistent read.
func (s *SyncService) Changes(ctx context.Context, since domain.Millis) (*ChangeSet, error) {
	rid, err := s.ReplicaID(ctx)
	if err != nil {
		return nil, err
	}
	cs := &ChangeSet{ExportID: uuid.NewString(), ReplicaID: rid, Since: since, Until: since}
	err = s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		var err error
		if cs.Products, err = tx.Products.ChangedSince(ctx, since); err != nil {
			return err
		}
		if cs.Customers, err = tx.Customers.ChangedSince(ctx, since); err != nil {
			return err
		}
		if cs.Categories, err = tx.Categories.ChangedSince(ctx, since); err != nil {
			return err
		}
		if cs.Orders, err = tx.Orders.ChangedSince(ctx, since); err != nil {
			return err
		}
		cs.Transactions, err = tx.Transactions.ChangedSince(ctx, since)
		return err
	})
	if err != nil {
		return nil, err
	}

	cs.Until = max(cs.Until,
		newest(cs.Products), newest(cs.Customers), newest(cs.Categories),
		newest(cs.Orders), newest(cs.Transactions))
	s.Log.Debug("sync.changes", zap.String("export_id", cs.ExportID), zap.Int("records", cs.Len()),
		zap.Int64("since", int64(since)), zap.Int64("until", int64(cs.Until)))
	return cs, nil
}

func newest[T any, P repos.Ptr[T]](records []T) domain.Millis {
	var m domain.Millis
	for i := range records {
		m = max(m, P(&records[i]).Meta().UpdatedAt)
	}
	return m
}

// Ack identifies one record version the remote store has accepted.
type Ack struct {
	Kind      string        `json:"kind"`
	ID        int64         `json:"id"`
	UpdatedAt domain.Millis `json:"updatedAt"`
}

type AckResult struct {
	Applied int `json:"applied"`
	Stale   int `json:"stale"`   // written again since the acknowledged version
	Missing int `json:"missing"` // no such record, e.g. hard deleted
}

type versionMarker interface {
	MarkSyncedVersion(ctx context.Context, id int64, version domain.Millis) (bool, error)
}

// Acknowledge flags the acknowledged versions Synced. A record written after
// the acknowledged version stays Pending so the newer write is not lost.
func (s *SyncService) Acknowledge(ctx context.Context, acks []Ack) (AckResult, error) {
	var res AckResult
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		markers := map[string]versionMarker{
			repos.ProductTable.Kind:     tx.Products,
			repos.CustomerTable.Kind:    tx.Customers,
			repos.CategoryTable.Kind:    tx.Categories,
			repos.OrderTable.Kind:       tx.Orders,
			repos.TransactionTable.Kind: tx.Transactions,
		}
		for _, a := range acks {
			m, ok := markers[a.Kind]
			if !ok {
				return fmt.Errorf("unknown kind %q: %w", a.Kind, domain.ErrInvalidInput)
			}
			applied, err := m.MarkSyncedVersion(ctx, a.ID, a.UpdatedAt)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				res.Missing++
			case err != nil:
				return err
			case applied:
				res.Applied++
			default:
				res.Stale++
			}
		}
		return nil
	})
	if err != nil {
		return AckResult{}, err
	}
	s.Log.Info("sync.ack", zap.Int("applied", res.Applied), zap.Int("stale", res.Stale),
		zap.Int("missing", res.Missing))
	return res, nil
}
