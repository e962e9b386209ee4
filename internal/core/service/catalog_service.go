package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/port"
)

type ProductInput struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ImageRef    string `json:"image_ref"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.Price < 0 || in.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// CatalogService manages the products a vendor sells.
type CatalogService struct {
	products port.ProductRepository
	now      func() time.Time
}

func NewCatalogService(products port.ProductRepository) *CatalogService {
	return &CatalogService{products: products, now: time.Now}
}

func (s *CatalogService) AddProduct(ctx context.Context, vendor *domain.Account, in ProductInput) (domain.Product, error) {
	if !vendor.IsVendor() {
		return domain.Product{}, ErrNotVendor
	}
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}

	now := s.now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		VendorID:    vendor.ID,
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    categoryOrDefault(in.Category),
		Description: in.Description,
		ImageRef:    in.ImageRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces the editable fields of one of the vendor's products.
func (s *CatalogService) UpdateProduct(ctx context.Context, vendor *domain.Account, productID string, in ProductInput) (domain.Product, error) {
	if !vendor.IsVendor() {
		return domain.Product{}, ErrNotVendor
	}
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}

	current, err := s.products.GetProduct(ctx, vendor.ID, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	if current == nil {
		return domain.Product{}, ErrProductNotFound
	}

	updated := *current
	updated.Name = strings.TrimSpace(in.Name)
	updated.Price = in.Price
	updated.Stock = in.Stock
	updated.Category = categoryOrDefault(in.Category)
	updated.Description = in.Description
	if in.ImageRef != "" {
		updated.ImageRef = in.ImageRef
	}
	updated.UpdatedAt = s.now().UTC()

	err = s.products.UpdateProduct(ctx, updated)
	if errors.Is(err, port.ErrNotFound) {
		return domain.Product{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, vendor *domain.Account, productID string) error {
	if !vendor.IsVendor() {
		return ErrNotVendor
	}
	err := s.products.DeleteProduct(ctx, vendor.ID, productID)
	if errors.Is(err, port.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, vendor *domain.Account) ([]domain.Product, error) {
	if !vendor.IsVendor() {
		return nil, ErrNotVendor
	}
	products, err := s.products.ListProducts(ctx, vendor.ID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Stats(ctx context.Context, vendor *domain.Account) (domain.InventoryStats, error) {
	products, err := s.ListProducts(ctx, vendor)
	if err != nil {
		return domain.InventoryStats{}, err
	}
	return ComputeStats(products), nil
}

// ComputeStats totals a catalog: product count, stock value and the number
// of products with no stock left.
func ComputeStats(products []domain.Product) domain.InventoryStats {
	stats := domain.InventoryStats{TotalProducts: len(products)}
	for _, p := range products {
		stats.TotalValue += p.Price * int64(p.Stock)
		if p.Stock == 0 {
			stats.OutOfStock++
		}
	}
	return stats
}

func categoryOrDefault(c string) string {
	if c = strings.TrimSpace(c); c != "" {
		return c
	}
	return domain.DefaultCategory
}
