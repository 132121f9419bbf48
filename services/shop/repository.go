package main

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProduct       = errors.New("unknown product")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrReservationUnderflow = errors.New("reservation underflow")
)

// StockRepository defines the stock operations the shop use case needs.
type StockRepository interface {
	Sell(productID string, quantity uint32) error
	Reserve(productID string, quantity uint32) error
	ConfirmDelivery(productID string, quantity uint32) error
	ReleaseReservation(productID string, quantity uint32) error
	Snapshot() []Product
	Movements() []StockMovement
}

// MemoryStockRepository holds the shop's stock in memory. It is owned by the
// shop mailbox and must only be touched from there; mailbox serialization
// replaces locking on the counters.
type MemoryStockRepository struct {
	products  []*Product
	index     map[string]*Product
	movements []StockMovement
}

// NewMemoryStockRepository seeds the repository with the loaded stock. The
// product order is preserved for snapshots.
func NewMemoryStockRepository(stock []Product) *MemoryStockRepository {
	repo := &MemoryStockRepository{
		index: make(map[string]*Product, len(stock)),
	}
	for i := range stock {
		p := stock[i]
		repo.products = append(repo.products, &p)
		repo.index[p.ID] = &p
	}
	return repo
}

// Sell removes quantity from the available pool for a walk-in sale.
func (r *MemoryStockRepository) Sell(productID string, quantity uint32) error {
	product, ok := r.index[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	if product.Available < quantity {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
	}

	product.Available -= quantity
	r.record(productID, quantity, MovementSold)
	return nil
}

// Reserve moves quantity from available to reserved for an online purchase.
func (r *MemoryStockRepository) Reserve(productID string, quantity uint32) error {
	product, ok := r.index[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	if product.Available < quantity {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, productID)
	}

	product.Available -= quantity
	product.Reserved += quantity
	r.record(productID, quantity, MovementReserved)
	return nil
}

// ConfirmDelivery burns a reservation whose delivery attempt succeeded.
func (r *MemoryStockRepository) ConfirmDelivery(productID string, quantity uint32) error {
	product, ok := r.index[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	if product.Reserved < quantity {
		return fmt.Errorf("%w: %s", ErrReservationUnderflow, productID)
	}

	product.Reserved -= quantity
	r.record(productID, quantity, MovementDelivered)
	return nil
}

// ReleaseReservation returns a lost reservation to the available pool.
func (r *MemoryStockRepository) ReleaseReservation(productID string, quantity uint32) error {
	product, ok := r.index[productID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}
	if product.Reserved < quantity {
		return fmt.Errorf("%w: %s", ErrReservationUnderflow, productID)
	}

	product.Reserved -= quantity
	product.Available += quantity
	r.record(productID, quantity, MovementReturned)
	return nil
}

// Snapshot copies the stock in load order.
func (r *MemoryStockRepository) Snapshot() []Product {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out
}

// Movements copies the movement journal in insertion order.
func (r *MemoryStockRepository) Movements() []StockMovement {
	out := make([]StockMovement, len(r.movements))
	copy(out, r.movements)
	return out
}

func (r *MemoryStockRepository) record(productID string, quantity uint32, movementType MovementType) {
	r.movements = append(r.movements, NewStockMovement(productID, quantity, movementType))
}
