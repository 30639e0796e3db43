// Package service implements the inventory operations on top of the locked store.
package service

import (
	"context"
	"fmt"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/store"
)

// ProductService defines the methods for managing products.
type ProductService interface {
	// FindAll returns every product in stored order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByID retrieves a single product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int) (*ProductDto, error)

	// Create appends the product as given. The ID is supplied by the caller and is not checked for collisions.
	Create(ctx context.Context, product ProductDto) (*ProductDto, error)

	// Update replaces every field of the product except its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int, product ProductDto) (*ProductDto, error)

	// DeleteByID removes a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int) error
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"        validate:"required,max=100"`
	Description string  `json:"description" validate:"max=1000"`
	Category    string  `json:"category"    validate:"max=100"`
	Price       float64 `json:"price"       validate:"min=0"`
	Quantity    int     `json:"quantity"    validate:"min=0"`
}

// Products implements ProductService.
type Products struct {
	store store.Store
}

func NewProductService(s store.Store) *Products {
	return &Products{store: s}
}

func (s *Products) FindAll(ctx context.Context) ([]ProductDto, error) {
	data, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	products := make([]ProductDto, len(data.Products))
	for i := range data.Products {
		products[i] = toProductDto(data.Products[i])
	}
	return products, nil
}

func (s *Products) FindByID(ctx context.Context, id int) (*ProductDto, error) {
	data, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	i := data.ProductIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, inverrors.ErrProductNotFound)
	}
	dto := toProductDto(data.Products[i])
	return &dto, nil
}

func (s *Products) Create(ctx context.Context, product ProductDto) (*ProductDto, error) {
	err := s.store.Update(ctx, func(data *store.Data) error {
		data.Products = append(data.Products, fromProductDto(product))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

func (s *Products) Update(ctx context.Context, id int, product ProductDto) (*ProductDto, error) {
	product.ID = id
	err := s.store.Update(ctx, func(data *store.Data) error {
		i := data.ProductIndex(id)
		if i < 0 {
			return inverrors.ErrProductNotFound
		}
		data.Products[i] = fromProductDto(product)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return &product, nil
}

func (s *Products) DeleteByID(ctx context.Context, id int) error {
	err := s.store.Update(ctx, func(data *store.Data) error {
		i := data.ProductIndex(id)
		if i < 0 {
			return inverrors.ErrProductNotFound
		}
		data.Products = append(data.Products[:i], data.Products[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return nil
}

func toProductDto(p store.Product) ProductDto {
	return ProductDto{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

func fromProductDto(dto ProductDto) store.Product {
	return store.Product{
		ID:          dto.ID,
		Name:        dto.Name,
		Description: dto.Description,
		Category:    dto.Category,
		Price:       dto.Price,
		Quantity:    dto.Quantity,
	}
}
