package domain

import "time"

const DefaultCategory = "General"

type Product struct {
	ID          string    `json:"id" yaml:"id"`
	VendorID    string    `json:"vendor_id,omitempty" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Price       int64     `json:"price" yaml:"price"`
	Stock       int       `json:"stock" yaml:"stock"`
	Category    string    `json:"category" yaml:"category"`
	Description string    `json:"description,omitempty" yaml:"description"`
	ImageRef    string    `json:"image_ref,omitempty" yaml:"image"`
	Unit        string    `json:"unit,omitempty" yaml:"unit"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

type InventoryStats struct {
	TotalProducts int   `json:"total_products"`
	TotalValue    int64 `json:"total_value"`
	OutOfStock    int   `json:"out_of_stock"`
}
