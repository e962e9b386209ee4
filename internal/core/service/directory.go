package service

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rl1809/shopy/internal/core/domain"
)

const allCategories = "All"

//go:embed fixtures/shops.yaml
var shopFixtures []byte

// Directory is the read-only shop browser.
type Directory struct {
	shops []domain.Shop
}

func NewDirectory(data []byte) (*Directory, error) {
	var doc struct {
		Shops []domain.Shop `yaml:"shops"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse shop fixtures: %w", err)
	}
	return &Directory{shops: doc.Shops}, nil
}

// DefaultDirectory loads the shops bundled with the binary.
func DefaultDirectory() (*Directory, error) {
	return NewDirectory(shopFixtures)
}

// Categories lists "All" followed by every shop category in first-seen order.
func (d *Directory) Categories() []string {
	categories := []string{allCategories}
	for _, s := range d.shops {
		if !contains(categories, s.Category) {
			categories = append(categories, s.Category)
		}
	}
	return categories
}

// FilterShops matches search against shop name and description, ignoring
// case. An empty category or "All" matches every category.
func (d *Directory) FilterShops(search, category string) []domain.Shop {
	search = strings.ToLower(strings.TrimSpace(search))
	result := []domain.Shop{}
	for _, s := range d.shops {
		if category != "" && category != allCategories && s.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Description), search) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func (d *Directory) Shop(id string) (domain.Shop, error) {
	for _, s := range d.shops {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Shop{}, ErrShopNotFound
}

// SearchProducts matches term against product name and category, ignoring case.
func (d *Directory) SearchProducts(shopID, term string) ([]domain.Product, error) {
	shop, err := d.Shop(shopID)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	result := []domain.Product{}
	for _, p := range shop.Products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			result = append(result, p)
		}
	}
	return result, nil
}

// Product looks up one product of a shop, for adding it to a cart.
func (d *Directory) Product(shopID, productID string) (domain.Shop, domain.Product, error) {
	shop, err := d.Shop(shopID)
	if err != nil {
		return domain.Shop{}, domain.Product{}, err
	}
	for _, p := range shop.Products {
		if p.ID == productID {
			return shop, p, nil
		}
	}
	return domain.Shop{}, domain.Product{}, ErrProductNotFound
}
