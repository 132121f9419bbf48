package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fulfillment-network/pkg/wire"
)

func TestNewOnlinePurchase(t *testing.T) {
	line := wire.OrderLine{ID: 9, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	writer := newCapturingWriter()

	p := NewOnlinePurchase(line, "9301", writer)

	assert.Equal(t, uint32(9), p.ID)
	assert.Equal(t, "9301", p.EcomTag)
	assert.Equal(t, "keyboard", p.ProductID)
	assert.Equal(t, uint32(2), p.Quantity)
	assert.Equal(t, int32(4), p.ZoneID)
	assert.Equal(t, wire.StateReceived, p.State)
}

func TestFinalize(t *testing.T) {
	p := &OnlinePurchase{State: wire.StateReserved}
	p.Finalize(true)
	assert.Equal(t, wire.StateDelivered, p.State)

	p = &OnlinePurchase{State: wire.StateReserved}
	p.Finalize(false)
	assert.Equal(t, wire.StateLost, p.State)
}

func TestStatusLineReflectsState(t *testing.T) {
	p := &OnlinePurchase{ID: 12, State: wire.StateRejected}
	assert.Equal(t, wire.StatusLine{ID: 12, State: wire.StateRejected}, p.StatusLine())
}

func TestNewLocalPurchase(t *testing.T) {
	p := NewLocalPurchase("mouse", 3)
	assert.Equal(t, "mouse", p.ProductID)
	assert.Equal(t, uint32(3), p.Quantity)
	assert.Equal(t, LocalStatusCreated, p.Status)
}

func TestNewStockMovement(t *testing.T) {
	m := NewStockMovement("mouse", 3, MovementReserved)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "mouse", m.ProductID)
	assert.Equal(t, uint32(3), m.Quantity)
	assert.Equal(t, MovementReserved, m.Type)
	assert.False(t, m.CreatedAt.IsZero())
}
