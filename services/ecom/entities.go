package main

import (
	"sort"

	"fulfillment-network/pkg/wire"
)

// EcomOrder is one online order to route. ShopsRequested records every shop
// zone the order was ever sent to, in attempt order; a zone is never retried.
type EcomOrder struct {
	ID             uint32  `json:"id"`
	ProductID      string  `json:"product_id"`
	Quantity       uint32  `json:"quantity"`
	ZoneID         int32   `json:"zone_id"`
	ShopsRequested []int32 `json:"shops_requested"`
}

// Line encodes the order for the wire.
func (o *EcomOrder) Line() wire.OrderLine {
	return wire.OrderLine{
		ID:        o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		ZoneID:    o.ZoneID,
	}
}

// LastRequestedZone is the zone of the most recent attempt, or -1 before the
// first one. It is the idempotence key for the loss timeout.
func (o *EcomOrder) LastRequestedZone() int32 {
	if len(o.ShopsRequested) == 0 {
		return -1
	}
	return o.ShopsRequested[len(o.ShopsRequested)-1]
}

// ShopWriter is the write half of one shop link.
type ShopWriter interface {
	WriteLine(line string) error
	Close() error
}

// ConnectedShop is a shop the ecom considers usable. Stop removes it;
// Reconnect appends a fresh entry, possibly with a new socket.
type ConnectedShop struct {
	Name   string
	ZoneID int32
	Writer ShopWriter
}

// Ecom is the router state, owned by the ecom mailbox. An order id absent
// from PendingOrders is terminally resolved.
type Ecom struct {
	Name          string
	PendingOrders map[uint32]*EcomOrder
	Shops         []*ConnectedShop
}

func NewEcom(name string) *Ecom {
	return &Ecom{
		Name:          name,
		PendingOrders: make(map[uint32]*EcomOrder),
	}
}

// FindDeliveryShop returns the connected shop closest to the order's zone
// that has not been tried yet, or nil if none remains. The sort is stable,
// so ties prefer the shop that was connected first.
func (e *Ecom) FindDeliveryShop(order *EcomOrder) *ConnectedShop {
	candidates := make([]*ConnectedShop, len(e.Shops))
	copy(candidates, e.Shops)

	sort.SliceStable(candidates, func(i, j int) bool {
		return zoneDistance(candidates[i].ZoneID, order.ZoneID) < zoneDistance(candidates[j].ZoneID, order.ZoneID)
	})

	for _, shop := range candidates {
		if !containsZone(order.ShopsRequested, shop.ZoneID) {
			return shop
		}
	}
	return nil
}

func zoneDistance(a, b int32) int32 {
	if a > b {
		return a - b
	}
	return b - a
}

func containsZone(zones []int32, zone int32) bool {
	for _, z := range zones {
		if z == zone {
			return true
		}
	}
	return false
}
