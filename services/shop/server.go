package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fulfillment-network/pkg/wire"
)

// LineWriter is the reply sink handed to in-flight purchases.
type LineWriter interface {
	WriteLine(line string) error
}

// connWriter is the write half of one TCP connection. The mutex is not
// protecting shop state; it is the serialization point for concurrent
// replies on the same socket.
type connWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *connWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.conn, line)
	return err
}

func (w *connWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Close()
}

// ShopServer accepts TCP connections from ecoms and feeds decoded purchases
// into the shop mailbox, one link goroutine per connection.
type ShopServer struct {
	uc      *ShopUseCase
	logger  *zap.Logger
	address string
}

func NewShopServer(uc *ShopUseCase, logger *zap.Logger, address string) *ShopServer {
	return &ShopServer{
		uc:      uc,
		logger:  logger,
		address: address,
	}
}

// Run binds the shop's listen address and serves until ctx is cancelled.
// A bind failure is fatal for the process.
func (s *ShopServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *ShopServer) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("🚀 shop listening", zap.String("address", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.serveLink(conn)
	}
}

// serveLink frames one connection by newline, parses one purchase per line
// and submits it. Malformed lines are dropped without killing the link; an
// EOF tears down only this link, never the shop.
func (s *ShopServer) serveLink(conn net.Conn) {
	linkID := uuid.New().String()[:8]
	peer := conn.RemoteAddr().String()
	ecomTag := peerPort(peer)

	s.logger.Info("🔌 ecom connected",
		zap.String("link", linkID),
		zap.String("peer", peer),
	)

	writer := &connWriter{conn: conn}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		order, err := wire.ParseOrderLine(scanner.Text())
		if err != nil {
			s.logger.Debug("dropping malformed order line",
				zap.String("link", linkID),
				zap.String("line", scanner.Text()),
			)
			continue
		}
		s.uc.Submit(NewOnlinePurchase(order, ecomTag, writer))
	}

	s.logger.Info("ecom disconnected",
		zap.String("link", linkID),
		zap.String("peer", peer),
	)
	_ = writer.Close()
}

func peerPort(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
