package model

// Product is an inventory item. Version is the optimistic-concurrency
// token: it starts at 1 and advances by exactly 1 on every successful
// mutation, and is never set directly by callers.
type Product struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Version   int     `json:"version"`
}
