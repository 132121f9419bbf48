package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fulfillment-network/pkg/mailbox"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("shop: %v", err)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		return fmt.Errorf("usage: shop <name>")
	}
	name := os.Args[1]
	path := filepath.Join(cfg.ShopsDir, name+".txt")

	info, stock, localOrders, err := LoadShopFile(path)
	if err != nil {
		return fmt.Errorf("loading shop file: %w", err)
	}

	logger.Info("🏪 shop loaded",
		zap.String("name", info.Name),
		zap.String("address", info.Address),
		zap.Int32("zone_id", info.ZoneID),
		zap.Int("products", len(stock)),
		zap.Int("local_orders", len(localOrders)),
	)
	for _, p := range stock {
		logger.Info("  stock", zap.String("product_id", p.ID), zap.Uint32("available", p.Available))
	}

	tp, err := initTracer(cfg)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	mp, err := initMetrics(cfg)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Warn("meter shutdown", zap.Error(err))
		}
	}()

	metrics, err := newShopMetrics(otel.Meter(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	repo := NewMemoryStockRepository(stock)
	mb := mailbox.New()
	uc := NewShopUseCase(info, repo, mb, cfg, logger, metrics)
	server := NewShopServer(uc, logger, info.Address)
	router := NewRouter(uc, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return mb.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return runAdminServer(ctx, cfg.AdminPort, router) })

	// the enter gate keeps multi-process demos deterministic: the server is
	// already accepting, but in-store sales start on demand. It is not part
	// of the group so a signal never waits on a blocked stdin read.
	go func() {
		logger.Info("⏳ press enter to start local sales")
		stdin := bufio.NewReader(os.Stdin)
		if _, err := stdin.ReadString('\n'); err != nil {
			return
		}
		uc.ScheduleLocalOrders(ctx, localOrders)
	}()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runAdminServer(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
