package services

import (
	"context"
	"errors"
	"fmt"

	"ledgerbook/internal/domain"
	"ledgerbook/internal/repos"
)

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"

	lowStockThreshold = 5
)

type Availability struct {
	ProductID int64  `json:"productId"`
	Status    string `json:"status"`
	Qty       int    `json:"qty"`
}

type InventoryService struct {
	Products *repos.ProductStore
}

func NewInventoryService(products *repos.ProductStore) *InventoryService {
	return &InventoryService{Products: products}
}

// CheckAvailability classifies a product's stock level.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID int64) (Availability, error) {
	p, err := s.Products.Get(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return Availability{}, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
	}
	if err != nil {
		return Availability{}, err
	}
	return availability(p), nil
}

// LowStock lists active products below the in-stock threshold.
func (s *InventoryService) LowStock(ctx context.Context) ([]Availability, error) {
	all, err := s.Products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := []Availability{}
	for i := range all {
		if a := availability(&all[i]); a.Status != InStock {
			out = append(out, a)
		}
	}
	return out, nil
}

func availability(p *domain.Product) Availability {
	status := OutOfStock
	switch {
	case p.StockCount >= lowStockThreshold:
		status = InStock
	case p.StockCount > 0:
		status = LowStock
	}
	return Availability{ProductID: p.ID, Status: status, Qty: p.StockCount}
}
