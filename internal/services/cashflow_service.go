package services

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
)

// CashFlowSummary is always computed from the active transactions and
// orders; nothing here is ever persisted.
type CashFlowSummary struct {
	CurrentBalance     decimal.Decimal `json:"currentBalance"`
	ProjectedBalance   decimal.Decimal `json:"projectedBalance"`
	TotalProfit        decimal.Decimal `json:"totalProfit"`
	TotalIncome        decimal.Decimal `json:"totalIncome"`
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	TotalPendingIncome decimal.Decimal `json:"totalPendingIncome"`
	PendingOrders      int             `json:"pendingOrders"`

	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
	MonthlyProfit   decimal.Decimal `json:"monthlyProfit"`
}

type DashboardStats struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetProfit     decimal.Decimal `json:"netProfit"`
	PendingSales  int             `json:"pendingSales"`
}

type CashFlowService struct {
	Stores *repos.Stores
	Clock  clock.Clock
	// Location decides where calendar months start. Defaults to time.Local.
	Location     *time.Location
	HistoryLimit int
}

func NewCashFlowService(stores *repos.Stores, clk clock.Clock) *CashFlowService {
	return &CashFlowService{Stores: stores, Clock: clk, Location: time.Local, HistoryLimit: 20}
}

func (s *CashFlowService) snapshot(ctx context.Context) (txs []domain.Transaction, orders []domain.Order, err error) {
	err = s.Stores.Atomic(ctx, func(tx *repos.Stores) error {
		if txs, err = tx.Transactions.ListActive(ctx); err != nil {
			return err
		}
		orders, err = tx.Orders.ListActive(ctx)
		return err
	})
	return txs, orders, err
}

// Summary derives balances from one consistent read of transactions and
// orders.
func (s *CashFlowService) Summary(ctx context.Context) (CashFlowSummary, error) {
	txs, orders, err := s.snapshot(ctx)
	if err != nil {
		return CashFlowSummary{}, err
	}
	from, to := s.monthBounds()
	return summarize(txs, orders, from, to), nil
}

// CurrentBalance is confirmed income minus confirmed expense.
func (s *CashFlowService) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	sum, err := s.Summary(ctx)
	return sum.CurrentBalance, err
}

func (s *CashFlowService) monthBounds() (from, to domain.Millis) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	now := s.Clock.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	return domain.MillisOf(start), domain.MillisOf(start.AddDate(0, 1, 0))
}

func summarize(txs []domain.Transaction, orders []domain.Order, monthFrom, monthTo domain.Millis) CashFlowSummary {
	var out CashFlowSummary
	for _, t := range txs {
		inMonth := t.Date >= monthFrom && t.Date < monthTo
		switch t.Type {
		case domain.Income:
			out.TotalIncome = out.TotalIncome.Add(t.Amount)
			if inMonth {
				out.MonthlyIncome = out.MonthlyIncome.Add(t.Amount)
			}
		case domain.Expense:
			out.TotalExpenses = out.TotalExpenses.Add(t.Amount)
			if inMonth {
				out.MonthlyExpenses = out.MonthlyExpenses.Add(t.Amount)
			}
		}
	}
	for _, o := range orders {
		if o.Status == domain.OrderPending {
			out.TotalPendingIncome = out.TotalPendingIncome.Add(o.TotalAmount)
			out.PendingOrders++
		}
	}
	out.CurrentBalance = out.TotalIncome.Sub(out.TotalExpenses)
	out.TotalProfit = out.CurrentBalance
	out.ProjectedBalance = out.CurrentBalance.Add(out.TotalPendingIncome)
	out.MonthlyProfit = out.MonthlyIncome.Sub(out.MonthlyExpenses)
	return out
}

// RecentHistory returns the newest active transactions first. A limit of
// zero or less uses HistoryLimit.
func (s *CashFlowService) RecentHistory(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = s.HistoryLimit
	}
	txs, err := s.Stores.Transactions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *CashFlowService) Dashboard(ctx context.Context) (DashboardStats, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats{
		TotalRevenue:  sum.TotalIncome,
		TotalExpenses: sum.TotalExpenses,
		NetProfit:     sum.TotalProfit,
		PendingSales:  sum.PendingOrders,
	}, nil
}
