package domain

import "time"

// Category groups parts in the inventory.
type Category struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Part is a stocked inventory item billed on invoices.
type Part struct {
	ID             string
	CategoryID     string
	Name           string
	SKU            string
	UnitPriceCents int64
	StockQty       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
