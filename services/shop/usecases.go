package main

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"fulfillment-network/pkg/mailbox"
	"fulfillment-network/pkg/wire"
)

// ShopUseCase contains the shop's business logic. Every method suffixed
// Handle*, reserve, or deliver runs on the shop mailbox; stock is never
// touched from anywhere else.
type ShopUseCase struct {
	info    ShopInfo
	repo    StockRepository
	mb      *mailbox.Mailbox
	cfg     *Config
	logger  *zap.Logger
	metrics *shopMetrics

	// rng is only used from the mailbox goroutine.
	rng            *rand.Rand
	deliverOutcome func() bool
}

// NewShopUseCase creates a new ShopUseCase.
func NewShopUseCase(info ShopInfo, repo StockRepository, mb *mailbox.Mailbox, cfg *Config, logger *zap.Logger, metrics *shopMetrics) *ShopUseCase {
	uc := &ShopUseCase{
		info:    info,
		repo:    repo,
		mb:      mb,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	uc.deliverOutcome = func() bool {
		return uc.rng.Float64() >= cfg.DeliverLossRate
	}
	return uc
}

// Submit enqueues an online purchase received from a link.
func (uc *ShopUseCase) Submit(p *OnlinePurchase) {
	uc.mb.Send(func() { uc.HandleOnlinePurchase(p) })
}

// ScheduleLocalOrders drips the in-store orders into the mailbox at a
// randomized cadence. It runs on its own goroutine so injection never blocks
// reservation dispatch.
func (uc *ShopUseCase) ScheduleLocalOrders(ctx context.Context, orders []*LocalPurchase) {
	for _, o := range orders {
		if err := mailbox.SleepOrDone(ctx, randBetween(uc.cfg.LocalCadenceMin, uc.cfg.LocalCadenceMax)); err != nil {
			return
		}
		o := o
		uc.mb.Send(func() { uc.HandleLocalPurchase(o) })
	}
}

// HandleLocalPurchase serves one walk-in sale. The sleep is deliberately
// blocking: it holds the mailbox for the POS counter latency, which is the
// serialization point between in-store sales and online reservations.
func (uc *ShopUseCase) HandleLocalPurchase(p *LocalPurchase) {
	time.Sleep(uc.cfg.LocalPurchaseDelay)

	if err := uc.repo.Sell(p.ProductID, p.Quantity); err != nil {
		p.Status = LocalStatusRejected
		uc.metrics.IncLocalRejections()
		uc.logger.Info("❌ [LOCAL] rejected",
			zap.String("product_id", p.ProductID),
			zap.Uint32("quantity", p.Quantity),
		)
		return
	}

	p.Status = LocalStatusSold
	uc.metrics.IncLocalSales()
	uc.logger.Info("✅ [LOCAL] sold",
		zap.String("product_id", p.ProductID),
		zap.Uint32("quantity", p.Quantity),
	)
}

// HandleOnlinePurchase acknowledges an online purchase and schedules the
// reservation step after the simulated processing delay. The handler itself
// returns promptly so the mailbox keeps draining.
func (uc *ShopUseCase) HandleOnlinePurchase(p *OnlinePurchase) {
	uc.logger.Info("➡️ [ONLINE] received",
		zap.Uint32("order_id", p.ID),
		zap.String("ecom", p.EcomTag),
		zap.String("product_id", p.ProductID),
		zap.Uint32("quantity", p.Quantity),
	)

	uc.mb.SendAfter(uc.cfg.OnlineProcessingDelay, func() { uc.reservePurchase(p) })
}

func (uc *ShopUseCase) reservePurchase(p *OnlinePurchase) {
	if err := uc.repo.Reserve(p.ProductID, p.Quantity); err != nil {
		p.State = wire.StateRejected
		uc.metrics.IncRejections()
		uc.logger.Info("❌ [ONLINE] rejected",
			zap.Uint32("order_id", p.ID),
			zap.String("product_id", p.ProductID),
			zap.Uint32("quantity", p.Quantity),
		)
		uc.sendStatus(p)
		return
	}

	p.State = wire.StateReserved
	uc.metrics.IncReservations()
	uc.logger.Info("ℹ️ [ONLINE] reserved",
		zap.Uint32("order_id", p.ID),
		zap.String("product_id", p.ProductID),
		zap.Uint32("quantity", p.Quantity),
	)

	delay := uc.jitter(uc.cfg.DeliverDelayMin, uc.cfg.DeliverDelayMax)
	uc.mb.SendAfter(delay, func() { uc.deliverPurchase(p) })
}

// deliverPurchase resolves a reserved purchase. Every reservation goes
// through exactly one delivery attempt, so the reserved units are always
// either burned or returned here.
func (uc *ShopUseCase) deliverPurchase(p *OnlinePurchase) {
	p.Finalize(uc.deliverOutcome())

	if p.State == wire.StateDelivered {
		if err := uc.repo.ConfirmDelivery(p.ProductID, p.Quantity); err != nil {
			uc.logger.Error("delivery confirmation failed", zap.Error(err))
		}
		uc.metrics.IncDeliveries()
		uc.logger.Info("✅ [ONLINE] delivered",
			zap.Uint32("order_id", p.ID),
			zap.String("product_id", p.ProductID),
			zap.Uint32("quantity", p.Quantity),
		)
	} else {
		if err := uc.repo.ReleaseReservation(p.ProductID, p.Quantity); err != nil {
			uc.logger.Error("reservation release failed", zap.Error(err))
		}
		uc.metrics.IncLosses()
		uc.logger.Info("↩️ [ONLINE] lost, stock returned",
			zap.Uint32("order_id", p.ID),
			zap.String("product_id", p.ProductID),
			zap.Uint32("quantity", p.Quantity),
		)
	}

	uc.sendStatus(p)
}

// sendStatus reports the purchase state back on the link it arrived on. The
// write runs off the mailbox; the writer's own mutex serializes it against
// other in-flight replies.
func (uc *ShopUseCase) sendStatus(p *OnlinePurchase) {
	line := p.StatusLine().Marshal()
	go func() {
		if err := p.Reply.WriteLine(line); err != nil {
			uc.logger.Warn("failed to send status line",
				zap.Uint32("order_id", p.ID),
				zap.Error(err),
			)
		}
	}()
}

// StockSnapshot returns a consistent copy of the stock via the mailbox.
func (uc *ShopUseCase) StockSnapshot(ctx context.Context) ([]Product, error) {
	return mailbox.Ask(ctx, uc.mb, uc.repo.Snapshot)
}

// MovementLog returns a consistent copy of the movement journal.
func (uc *ShopUseCase) MovementLog(ctx context.Context) ([]StockMovement, error) {
	return mailbox.Ask(ctx, uc.mb, uc.repo.Movements)
}

// jitter draws a duration in [min, max] on the mailbox goroutine.
func (uc *ShopUseCase) jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(uc.rng.Int63n(int64(max-min+1)))
}

// randBetween draws a duration in [min, max] using the process-wide source;
// safe off the mailbox goroutine.
func randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min+1)))
}
