package service

import (
	"context"
	"fmt"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/store"
)

// CustomerService defines the methods for managing customers.
type CustomerService interface {
	FindAll(ctx context.Context) ([]CustomerDto, error)

	// FindByID returns ErrCustomerNotFound if no customer exists with the given ID.
	FindByID(ctx context.Context, id int) (*CustomerDto, error)

	Create(ctx context.Context, customer CustomerDto) (*CustomerDto, error)

	// Update returns ErrCustomerNotFound if no customer exists with the given ID.
	Update(ctx context.Context, id int, customer CustomerDto) (*CustomerDto, error)

	// DeleteByID returns ErrCustomerNotFound if no customer exists with the given ID.
	DeleteByID(ctx context.Context, id int) error
}

// CustomerDto represents the data transfer object for a customer. Phone is optional and stored as "" when omitted.
type CustomerDto struct {
	ID    int    `json:"id"`
	Name  string `json:"name"  validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=32"`
}

// Customers implements CustomerService.
type Customers struct {
	store store.Store
}

func NewCustomerService(s store.Store) *Customers {
	return &Customers{store: s}
}

func (s *Customers) FindAll(ctx context.Context) ([]CustomerDto, error) {
	data, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customers: %w", err)
	}
	customers := make([]CustomerDto, len(data.Customers))
	for i, c := range data.Customers {
		customers[i] = CustomerDto(c)
	}
	return customers, nil
}

func (s *Customers) FindByID(ctx context.Context, id int) (*CustomerDto, error) {
	data, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer by ID %d: %w", id, err)
	}
	i := data.CustomerIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("failed to fetch customer by ID %d: %w", id, inverrors.ErrCustomerNotFound)
	}
	dto := CustomerDto(data.Customers[i])
	return &dto, nil
}

func (s *Customers) Create(ctx context.Context, customer CustomerDto) (*CustomerDto, error) {
	err := s.store.Update(ctx, func(data *store.Data) error {
		data.Customers = append(data.Customers, store.Customer(customer))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer, nil
}

func (s *Customers) Update(ctx context.Context, id int, customer CustomerDto) (*CustomerDto, error) {
	customer.ID = id
	err := s.store.Update(ctx, func(data *store.Data) error {
		i := data.CustomerIndex(id)
		if i < 0 {
			return inverrors.ErrCustomerNotFound
		}
		data.Customers[i] = store.Customer(customer)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update customer with ID %d: %w", id, err)
	}
	return &customer, nil
}

func (s *Customers) DeleteByID(ctx context.Context, id int) error {
	err := s.store.Update(ctx, func(data *store.Data) error {
		i := data.CustomerIndex(id)
		if i < 0 {
			return inverrors.ErrCustomerNotFound
		}
		data.Customers = append(data.Customers[:i], data.Customers[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete customer with ID %d: %w", id, err)
	}
	return nil
}
