package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
)

// TransactionService books manual cash-flow entries. Order payments are
// booked by OrderService and never through here.
type TransactionService struct {
	Stores *repos.Stores
	Clock  clock.Clock
	Log    *zap.Logger
}

func NewTransactionService(stores *repos.Stores, clk clock.Clock, log *zap.Logger) *TransactionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransactionService{Stores: stores, Clock: clk, Log: log}
}

type EntryInput struct {
	CategoryID  int64           `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        domain.Millis   `json:"date"` // zero means now
}

func (s *TransactionService) CreateIncome(ctx context.Context, in EntryInput) (*domain.Transaction, error) {
	return s.create(ctx, domain.Income, in)
}

func (s *TransactionService) CreateExpense(ctx context.Context, in EntryInput) (*domain.Transaction, error) {
	return s.create(ctx, domain.Expense, in)
}

func (s *TransactionService) create(ctx context.Context, dir domain.Direction, in EntryInput) (*domain.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("amount %s: %w", in.Amount, domain.ErrInvalidInput)
	}
	if in.Date == 0 {
		in.Date = domain.MillisOf(s.Clock.Now())
	}

	var out *domain.Transaction
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		cat, err := tx.Categories.Get(ctx, in.CategoryID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("category %d: %w", in.CategoryID, domain.ErrInvalidInput)
		}
		if err != nil {
			return err
		}
		if cat.Type != dir {
			return fmt.Errorf("category %d is %s, entry is %s: %w", cat.ID, cat.Type, dir, domain.ErrInvalidInput)
		}
		id, err := tx.Transactions.Create(ctx, domain.Transaction{
			CategoryID:  in.CategoryID,
			Amount:      in.Amount,
			Description: in.Description,
			Date:        in.Date,
			Type:        dir,
		})
		if err != nil {
			return err
		}
		out, err = tx.Transactions.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("transaction.create", zap.Int64("transaction_id", out.ID), zap.String("type", string(dir)),
		zap.String("amount", out.Amount.StringFixed(2)))
	return out, nil
}

// Delete tombstones a manual entry. Entries booked for an order belong to
// the order lifecycle and are refused.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	err := s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		t, err := tx.Transactions.Get(ctx, id)
		if err != nil {
			return err
		}
		if t.OrderID != nil {
			return fmt.Errorf("transaction %d belongs to order %d: %w", id, *t.OrderID, domain.ErrInvalidState)
		}
		return tx.Transactions.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Log.Info("transaction.delete", zap.Int64("transaction_id", id))
	return nil
}

// List returns active entries, optionally of one direction, newest first.
func (s *TransactionService) List(ctx context.Context, dir domain.Direction) ([]domain.Transaction, error) {
	all, err := s.Stores.Transactions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		all = slices.DeleteFunc(all, func(t domain.Transaction) bool { return t.Type != dir })
	}
	slices.SortStableFunc(all, func(a, b domain.Transaction) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return all, nil
}
