package model

// KPIReport holds the dashboard aggregates computed in a single pass
// over the products collection.
type KPIReport struct {
	TotalItems      int     `json:"total_items"`
	TotalStockValue float64 `json:"total_stock_value"`
	LowStockCount   int     `json:"low_stock_count"`
}
