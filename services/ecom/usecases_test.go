package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fulfillment-network/pkg/mailbox"
	"fulfillment-network/pkg/wire"
)

// fakeWriter records forwarded lines and never answers.
type fakeWriter struct {
	lines chan string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{lines: make(chan string, 16)}
}

func (w *fakeWriter) WriteLine(line string) error {
	w.lines <- line
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) waitOrder(t *testing.T) wire.OrderLine {
	t.Helper()
	select {
	case line := <-w.lines:
		order, err := wire.ParseOrderLine(line)
		require.NoError(t, err)
		return order
	case <-time.After(2 * time.Second):
		t.Fatal("no order forwarded")
		return wire.OrderLine{}
	}
}

func (w *fakeWriter) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case line := <-w.lines:
		t.Fatalf("unexpected forward: %q", line)
	case <-time.After(50 * time.Millisecond):
	}
}

func testEcomConfig() *Config {
	return &Config{
		Environment:     "development",
		ServiceName:     "ecom-service",
		OrderCadenceMin: time.Millisecond,
		OrderCadenceMax: 2 * time.Millisecond,
		LossTimeout:     time.Hour, // per-test overrides enable the timeout path
	}
}

func newTestEcom(t *testing.T, cfg *Config) (*EcomUseCase, *mailbox.Mailbox) {
	t.Helper()

	if cfg == nil {
		cfg = testEcomConfig()
	}
	ecom := NewEcom("test")
	mb := mailbox.New()
	uc := NewEcomUseCase(ecom, mb, cfg, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go mb.Run(ctx)

	return uc, mb
}

func addShop(uc *EcomUseCase, zone int32) *fakeWriter {
	w := newFakeWriter()
	uc.ecom.Shops = append(uc.ecom.Shops, &ConnectedShop{Name: "shop", ZoneID: zone, Writer: w})
	return w
}

func pendingIDs(t *testing.T, uc *EcomUseCase) map[uint32][]int32 {
	t.Helper()
	orders, err := uc.PendingSnapshot(context.Background())
	if err != nil {
		return nil
	}
	out := make(map[uint32][]int32, len(orders))
	for _, o := range orders {
		out[o.ID] = o.ShopsRequested
	}
	return out
}

func TestProcessOrderForwardsToNearestShop(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	near := addShop(uc, 5)
	far := addShop(uc, 20)

	order := &EcomOrder{ID: 1, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })

	forwarded := near.waitOrder(t)
	assert.Equal(t, wire.OrderLine{ID: 1, ProductID: "keyboard", Quantity: 2, ZoneID: 4}, forwarded)
	far.expectNothing(t)

	pending := pendingIDs(t, uc)
	assert.Equal(t, []int32{5}, pending[1])
}

func TestProcessOrderCancelsWhenNoShopLeft(t *testing.T) {
	uc, mb := newTestEcom(t, nil)

	order := &EcomOrder{ID: 2, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })

	require.Eventually(t, func() bool {
		_, ok := pendingIDs(t, uc)[2]
		return !ok
	}, 2*time.Second, time.Millisecond)
}

func TestDeliveredResponseResolvesOrder(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	shop := addShop(uc, 5)

	order := &EcomOrder{ID: 3, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })
	shop.waitOrder(t)

	mb.Send(func() { uc.HandleShopResponse(wire.StatusLine{ID: 3, State: wire.StateDelivered}.Marshal()) })

	require.Eventually(t, func() bool {
		_, ok := pendingIDs(t, uc)[3]
		return !ok
	}, 2*time.Second, time.Millisecond)
}

func TestLostResponseRetriesNextShop(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	first := addShop(uc, 5)
	second := addShop(uc, 11)

	order := &EcomOrder{ID: 4, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })
	first.waitOrder(t)

	mb.Send(func() { uc.HandleShopResponse(wire.StatusLine{ID: 4, State: wire.StateLost}.Marshal()) })

	forwarded := second.waitOrder(t)
	assert.Equal(t, uint32(4), forwarded.ID)

	pending := pendingIDs(t, uc)
	assert.Equal(t, []int32{5, 11}, pending[4])
}

func TestRejectedResponseExhaustsAndCancels(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	only := addShop(uc, 5)

	order := &EcomOrder{ID: 5, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })
	only.waitOrder(t)

	mb.Send(func() { uc.HandleShopResponse(wire.StatusLine{ID: 5, State: wire.StateRejected}.Marshal()) })

	require.Eventually(t, func() bool {
		_, ok := pendingIDs(t, uc)[5]
		return !ok
	}, 2*time.Second, time.Millisecond)
	only.expectNothing(t)
}

func TestLateResponseForResolvedOrderIsDropped(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	shop := addShop(uc, 5)

	mb.Send(func() { uc.HandleShopResponse(wire.StatusLine{ID: 99, State: wire.StateLost}.Marshal()) })

	shop.expectNothing(t)
	assert.Empty(t, pendingIDs(t, uc))
}

func TestMalformedResponseIsDropped(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	shop := addShop(uc, 5)

	mb.Send(func() { uc.HandleShopResponse("not,a,status\n") })

	shop.expectNothing(t)
}

func TestLossTimeoutReroutes(t *testing.T) {
	cfg := testEcomConfig()
	cfg.LossTimeout = 20 * time.Millisecond
	uc, mb := newTestEcom(t, cfg)
	silent := addShop(uc, 5)
	backup := addShop(uc, 11)

	order := &EcomOrder{ID: 6, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })
	silent.waitOrder(t)

	// the silent shop never answers, so the timeout drives the retry
	forwarded := backup.waitOrder(t)
	assert.Equal(t, uint32(6), forwarded.ID)
}

func TestLossTimeoutIgnoresResolvedOrders(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	shop := addShop(uc, 5)

	mb.Send(func() { uc.checkLossTimeout(42, 5) })

	shop.expectNothing(t)
	assert.Empty(t, pendingIDs(t, uc))
}

func TestLossTimeoutIgnoresSupersededAttempts(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	first := addShop(uc, 5)
	second := addShop(uc, 11)

	order := &EcomOrder{ID: 7, ProductID: "keyboard", Quantity: 2, ZoneID: 4}
	mb.Send(func() { uc.ProcessOrder(order) })
	first.waitOrder(t)

	mb.Send(func() { uc.HandleShopResponse(wire.StatusLine{ID: 7, State: wire.StateLost}.Marshal()) })
	second.waitOrder(t)

	// the first attempt's timeout fires after the retry; it must be a no-op
	mb.Send(func() { uc.checkLossTimeout(7, 5) })

	first.expectNothing(t)
	second.expectNothing(t)

	pending := pendingIDs(t, uc)
	assert.Equal(t, []int32{5, 11}, pending[7])
}

func TestProcessEcomOrdersDispatchesBatch(t *testing.T) {
	uc, _ := newTestEcom(t, nil)
	shop := addShop(uc, 5)

	orders := []*EcomOrder{
		{ID: 0, ProductID: "keyboard", Quantity: 1, ZoneID: 4},
		{ID: 1, ProductID: "mouse", Quantity: 2, ZoneID: 6},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go uc.ProcessEcomOrders(ctx, orders)

	first := shop.waitOrder(t)
	second := shop.waitOrder(t)
	assert.Equal(t, uint32(0), first.ID)
	assert.Equal(t, uint32(1), second.ID)
}

func TestShopsSnapshot(t *testing.T) {
	uc, _ := newTestEcom(t, nil)
	addShop(uc, 5)
	addShop(uc, 11)

	shops, err := uc.ShopsSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ConnectedShopView{
		{Name: "shop", ZoneID: 5},
		{Name: "shop", ZoneID: 11},
	}, shops)
}
