package service

import (
	"context"
	"fmt"
	"math"

	"github.com/khanhtranq/inventory-service/internal/model"
	"github.com/khanhtranq/inventory-service/internal/repository"
)

// lowStockThreshold is the quantity below which a product counts as
// low stock on the dashboard.
const lowStockThreshold = 5

type DashboardService interface {
	// ComputeKPIs aggregates the whole collection in a single streamed
	// scan: item count, total stock value and low-stock count.
	ComputeKPIs(ctx context.Context) (model.KPIReport, error)
}

type dashboardService struct {
	productRepo repository.ProductRepository
}

func NewDashboardService(productRepo repository.ProductRepository) DashboardService {
	return &dashboardService{productRepo: productRepo}
}

func (s *dashboardService) ComputeKPIs(ctx context.Context) (model.KPIReport, error) {
	var report model.KPIReport

	if err := s.productRepo.ScanProducts(ctx, func(product model.Product) error {
		report.TotalItems++
		report.TotalStockValue += float64(product.Quantity) * product.UnitPrice
		if product.Quantity < lowStockThreshold {
			report.LowStockCount++
		}
		return nil
	}); err != nil {
		return model.KPIReport{}, fmt.Errorf("scan products: %w", err)
	}

	report.TotalStockValue = math.Round(report.TotalStockValue*100) / 100

	return report, nil
}
