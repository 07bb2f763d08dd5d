package handlers

import (
	"go.uber.org/zap"

	"ledgerbook/internal/clock"
	"ledgerbook/internal/config"
	"ledgerbook/internal/repos"
	"ledgerbook/internal/services"
)

type Deps struct {
	ProductHandler     *ProductHandler
	CustomerHandler    *CustomerHandler
	CategoryHandler    *CategoryHandler
	TransactionHandler *TransactionHandler
	OrderHandler       *OrderHandler
	CashFlowHandler    *CashFlowHandler
	SyncHandler        *SyncHandler
	InventoryHandler   *InventoryHandler
	AdminHandler       *AdminHandler
}

func NewDeps(stores *repos.Stores, clk clock.Clock, cfg config.Config, log *zap.Logger) *Deps {
	orderSvc := services.NewOrderService(stores, clk, log,
		services.SalesCategory{Name: cfg.SalesCategoryName, Color: cfg.SalesCategoryColor})
	cashSvc := services.NewCashFlowService(stores, clk)
	if cfg.RecentHistoryLimit > 0 {
		cashSvc.HistoryLimit = cfg.RecentHistoryLimit
	}

	return &Deps{
		ProductHandler:     newProductHandler(stores.Products),
		CustomerHandler:    newCustomerHandler(stores.Customers),
		CategoryHandler:    newCategoryHandler(stores.Categories),
		TransactionHandler: &TransactionHandler{Txs: services.NewTransactionService(stores, clk, log), Store: stores.Transactions},
		OrderHandler:       &OrderHandler{Orders: orderSvc, Store: stores.Orders},
		CashFlowHandler:    &CashFlowHandler{CashFlow: cashSvc},
		SyncHandler:        &SyncHandler{Sync: services.NewSyncService(stores, log)},
		InventoryHandler:   &InventoryHandler{Inv: services.NewInventoryService(stores.Products), Orders: orderSvc},
		AdminHandler:       NewAdminHandler(stores),
	}
}
