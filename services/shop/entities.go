package main

import (
	"time"

	"github.com/google/uuid"

	"fulfillment-network/pkg/wire"
)

// Product is one stock position. Available is the pool shared by local sales
// and new online reservations; Reserved is committed to in-flight online
// deliveries. Available+Reserved only ever drains.
type Product struct {
	ID        string `json:"id"`
	Available uint32 `json:"available"`
	Reserved  uint32 `json:"reserved"`
}

// ShopInfo is the shop descriptor loaded from the shop file. The shop is
// authoritative for its stock; no other process mutates it.
type ShopInfo struct {
	Name    string
	Address string
	ZoneID  int32
}

// LocalPurchaseStatus is the lifecycle of a walk-in sale.
type LocalPurchaseStatus string

const (
	LocalStatusCreated  LocalPurchaseStatus = "created"
	LocalStatusSold     LocalPurchaseStatus = "sold"
	LocalStatusRejected LocalPurchaseStatus = "rejected"
)

// LocalPurchase is one walk-in sale fed from the in-store orders section of
// the shop file. It transitions exactly once at handling time.
type LocalPurchase struct {
	ProductID string
	Quantity  uint32
	Status    LocalPurchaseStatus
}

func NewLocalPurchase(productID string, quantity uint32) *LocalPurchase {
	return &LocalPurchase{
		ProductID: productID,
		Quantity:  quantity,
		Status:    LocalStatusCreated,
	}
}

// OnlinePurchase is one order received over TCP from an ecom. It lives on
// the shop side only: RECEIVED -> RESERVED|REJECTED, and if RESERVED a
// later delivery attempt moves it to DELIVERED or LOST.
type OnlinePurchase struct {
	ID        uint32
	EcomTag   string
	ProductID string
	Quantity  uint32
	ZoneID    int32
	State     wire.PurchaseState
	Reply     LineWriter
}

// NewOnlinePurchase builds a purchase from a decoded order line. The reply
// writer is the write half of the connection the line arrived on.
func NewOnlinePurchase(line wire.OrderLine, ecomTag string, reply LineWriter) *OnlinePurchase {
	return &OnlinePurchase{
		ID:        line.ID,
		EcomTag:   ecomTag,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		ZoneID:    line.ZoneID,
		State:     wire.StateReceived,
		Reply:     reply,
	}
}

// Finalize resolves a reserved purchase with the delivery attempt outcome.
func (p *OnlinePurchase) Finalize(delivered bool) {
	if delivered {
		p.State = wire.StateDelivered
	} else {
		p.State = wire.StateLost
	}
}

// StatusLine is the wire response reporting the purchase's current state.
func (p *OnlinePurchase) StatusLine() wire.StatusLine {
	return wire.StatusLine{ID: p.ID, State: p.State}
}

// MovementType classifies one stock mutation in the movement journal.
type MovementType string

const (
	MovementSold      MovementType = "sold"
	MovementReserved  MovementType = "reserved"
	MovementDelivered MovementType = "delivered"
	MovementReturned  MovementType = "returned"
)

// StockMovement records one stock mutation for the admin API and for
// auditing the reservation balance.
type StockMovement struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Quantity  uint32       `json:"quantity"`
	Type      MovementType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewStockMovement(productID string, quantity uint32, movementType MovementType) StockMovement {
	return StockMovement{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
		Type:      movementType,
		CreatedAt: time.Now(),
	}
}
