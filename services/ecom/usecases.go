package main

import (
	"context"
	"math/rand"
	"net"
	"time"

	"go.uber.org/zap"

	"fulfillment-network/pkg/mailbox"
	"fulfillment-network/pkg/wire"
)

// EcomUseCase is the order router. All methods that touch the Ecom state run
// on the ecom mailbox; the reader goroutines and the wire only enter through
// Send.
type EcomUseCase struct {
	ecom    *Ecom
	mb      *mailbox.Mailbox
	cfg     *Config
	logger  *zap.Logger
	metrics *ecomMetrics

	dial func(address string) (net.Conn, error)
}

// NewEcomUseCase creates a new EcomUseCase.
func NewEcomUseCase(ecom *Ecom, mb *mailbox.Mailbox, cfg *Config, logger *zap.Logger, metrics *ecomMetrics) *EcomUseCase {
	return &EcomUseCase{
		ecom:    ecom,
		mb:      mb,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		dial: func(address string) (net.Conn, error) {
			return net.DialTimeout("tcp", address, 3*time.Second)
		},
	}
}

// ProcessEcomOrders drips the order batch into the mailbox at a randomized
// cadence. It runs on its own goroutine; dispatch is never blocked by it.
func (uc *EcomUseCase) ProcessEcomOrders(ctx context.Context, orders []*EcomOrder) {
	for _, o := range orders {
		if err := mailbox.SleepOrDone(ctx, randBetween(uc.cfg.OrderCadenceMin, uc.cfg.OrderCadenceMax)); err != nil {
			return
		}
		o := o
		uc.mb.Send(func() { uc.ProcessOrder(o) })
	}
}

// ProcessOrder dispatches one order to the nearest shop not yet tried, or
// cancels it when no candidate remains.
func (uc *EcomUseCase) ProcessOrder(o *EcomOrder) {
	order, ok := uc.ecom.PendingOrders[o.ID]
	if !ok {
		uc.ecom.PendingOrders[o.ID] = o
		order = o
	}

	shop := uc.ecom.FindDeliveryShop(order)
	if shop == nil {
		uc.metrics.IncCancellations()
		uc.logger.Info("🚫 order cancelled, no shops left",
			zap.Uint32("order_id", order.ID),
			zap.String("product_id", order.ProductID),
			zap.Uint32("quantity", order.Quantity),
		)
		delete(uc.ecom.PendingOrders, order.ID)
		return
	}

	order.ShopsRequested = append(order.ShopsRequested, shop.ZoneID)
	uc.forwardOrder(order, shop)
}

// forwardOrder writes the order on the shop's link and arms the loss
// timeout. A write failure is only logged; the timeout drives the retry.
func (uc *EcomUseCase) forwardOrder(order *EcomOrder, shop *ConnectedShop) {
	uc.metrics.IncForwards()
	uc.logger.Info("📦 forwarding order",
		zap.Uint32("order_id", order.ID),
		zap.Int32("shop_zone", shop.ZoneID),
		zap.String("product_id", order.ProductID),
		zap.Uint32("quantity", order.Quantity),
	)

	line := order.Line().Marshal()
	writer := shop.Writer
	go func() {
		if err := writer.WriteLine(line); err != nil {
			uc.logger.Warn("❌ failed to forward order",
				zap.Uint32("order_id", order.ID),
				zap.Int32("shop_zone", shop.ZoneID),
				zap.Error(err),
			)
		}
	}()

	orderID, zone := order.ID, shop.ZoneID
	uc.mb.SendAfter(uc.cfg.LossTimeout, func() { uc.checkLossTimeout(orderID, zone) })
}

// checkLossTimeout fires once per forward. The order is "lost in flight" at
// this shop only if it is still pending and no later attempt superseded this
// one; that makes coexisting per-attempt timeouts idempotent.
func (uc *EcomUseCase) checkLossTimeout(orderID uint32, shopZone int32) {
	order, ok := uc.ecom.PendingOrders[orderID]
	if !ok {
		return // already delivered or cancelled
	}
	if order.LastRequestedZone() != shopZone {
		return // a later attempt is already in progress
	}

	uc.metrics.IncTimeouts()
	uc.logger.Info("⏱ order lost in flight, rerouting",
		zap.Uint32("order_id", order.ID),
		zap.Int32("shop_zone", shopZone),
	)
	uc.ProcessOrder(order)
}

// HandleShopResponse consumes one status line from a shop. Malformed lines
// and responses for resolved orders are dropped.
func (uc *EcomUseCase) HandleShopResponse(line string) {
	status, err := wire.ParseStatusLine(line)
	if err != nil {
		return
	}

	order, ok := uc.ecom.PendingOrders[status.ID]
	if !ok {
		return // late response for an already-resolved order
	}

	uc.logger.Info("ℹ️ shop response",
		zap.Int32("shop_zone", order.LastRequestedZone()),
		zap.Uint32("order_id", order.ID),
		zap.String("state", status.State.String()),
		zap.String("product_id", order.ProductID),
		zap.Uint32("quantity", order.Quantity),
	)

	if status.State == wire.StateDelivered {
		uc.metrics.IncDeliveries()
		delete(uc.ecom.PendingOrders, status.ID)
		return
	}

	// rejected and lost drive the retry to the next shop; received and
	// reserved re-evaluate to the same pending state
	uc.ProcessOrder(order)
}

// PendingSnapshot returns a consistent copy of the pending order table.
func (uc *EcomUseCase) PendingSnapshot(ctx context.Context) ([]EcomOrder, error) {
	return mailbox.Ask(ctx, uc.mb, func() []EcomOrder {
		out := make([]EcomOrder, 0, len(uc.ecom.PendingOrders))
		for _, o := range uc.ecom.PendingOrders {
			copied := *o
			copied.ShopsRequested = append([]int32(nil), o.ShopsRequested...)
			out = append(out, copied)
		}
		return out
	})
}

// ConnectedShopView is the admin API projection of a connected shop.
type ConnectedShopView struct {
	Name   string `json:"name"`
	ZoneID int32  `json:"zone_id"`
}

// ShopsSnapshot returns a consistent copy of the connected shop list.
func (uc *EcomUseCase) ShopsSnapshot(ctx context.Context) ([]ConnectedShopView, error) {
	return mailbox.Ask(ctx, uc.mb, func() []ConnectedShopView {
		out := make([]ConnectedShopView, 0, len(uc.ecom.Shops))
		for _, s := range uc.ecom.Shops {
			out = append(out, ConnectedShopView{Name: s.Name, ZoneID: s.ZoneID})
		}
		return out
	})
}

// randBetween draws a duration in [min, max] using the process-wide source.
func randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min+1)))
}
