package main

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// connWriter is the write half of one shop link. The mutex serializes the
// router's forwards against the operator-issued shutdown.
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

// ConnectShops connects every shop in the descriptor directory. One shop
// failing to connect is logged and skipped, never fatal. Runs on the
// mailbox.
func (uc *EcomUseCase) ConnectShops() {
	entries, err := LoadShopDirectory(uc.cfg.ShopsDir)
	if err != nil {
		uc.logger.Error("failed to read shop directory", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if err := uc.connectShop(entry); err != nil {
			uc.logger.Warn("❌ could not connect shop",
				zap.String("shop", entry.Name),
				zap.Int32("zone_id", entry.ZoneID),
				zap.Error(err),
			)
			continue
		}
		uc.logger.Info("🔌 shop connected",
			zap.String("shop", entry.Name),
			zap.Int32("zone_id", entry.ZoneID),
			zap.String("address", entry.Address),
		)
	}
}

// connectShop opens the link, registers the shop and starts its reader.
// Runs on the mailbox.
func (uc *EcomUseCase) connectShop(entry ShopEntry) error {
	conn, err := uc.dial(entry.Address)
	if err != nil {
		return err
	}

	uc.ecom.Shops = append(uc.ecom.Shops, &ConnectedShop{
		Name:   entry.Name,
		ZoneID: entry.ZoneID,
		Writer: &connWriter{conn: conn},
	})

	go uc.readLoop(entry, conn)
	return nil
}

// readLoop feeds status lines from one shop into the mailbox. EOF tears
// down only this stream; pending orders last sent to this shop are retried
// by their loss timeout.
func (uc *EcomUseCase) readLoop(entry ShopEntry, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		uc.mb.Send(func() { uc.HandleShopResponse(line) })
	}

	uc.logger.Info("shop disconnected",
		zap.String("shop", entry.Name),
		zap.Int32("zone_id", entry.ZoneID),
	)
	_ = conn.Close()
}

// StopShop removes the shop with the given zone and shuts its link down,
// without any server handshake. Unknown zones only log. Runs on the mailbox.
func (uc *EcomUseCase) StopShop(zone int32) {
	var writer ShopWriter
	kept := uc.ecom.Shops[:0]
	for _, s := range uc.ecom.Shops {
		if s.ZoneID == zone && writer == nil {
			writer = s.Writer
			continue
		}
		kept = append(kept, s)
	}
	uc.ecom.Shops = kept

	if writer == nil {
		uc.logger.Warn("stop: unknown shop zone", zap.Int32("zone_id", zone))
		return
	}

	uc.logger.Info("🔌 stopping shop", zap.Int32("zone_id", zone))
	go func() {
		_ = writer.Close()
	}()
}

// ReconnectShop re-reads the descriptor directory and re-runs the connect
// procedure for the given zone. Reconnecting an already-connected zone
// appends a fresh entry; the newest one wins for routing. Runs on the
// mailbox.
func (uc *EcomUseCase) ReconnectShop(zone int32) {
	entries, err := LoadShopDirectory(uc.cfg.ShopsDir)
	if err != nil {
		uc.logger.Error("failed to read shop directory", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.ZoneID != zone {
			continue
		}
		if err := uc.connectShop(entry); err != nil {
			uc.logger.Warn("❌ could not reconnect shop",
				zap.Int32("zone_id", zone),
				zap.Error(err),
			)
			return
		}
		uc.logger.Info("🔌 shop reconnected", zap.Int32("zone_id", zone))
		return
	}

	uc.logger.Warn("reconnect: unknown shop zone", zap.Int32("zone_id", zone))
}

// RequestStop enqueues an operator stop command.
func (uc *EcomUseCase) RequestStop(zone int32) {
	uc.mb.Send(func() { uc.StopShop(zone) })
}

// RequestReconnect enqueues an operator reconnect command.
func (uc *EcomUseCase) RequestReconnect(zone int32) {
	uc.mb.Send(func() { uc.ReconnectShop(zone) })
}

// RunCommandLoop reads operator commands ("s<zone>" stop, "r<zone>"
// reconnect) until the input closes. Anything else is ignored.
func (uc *EcomUseCase) RunCommandLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, zone, ok := parseCommand(scanner.Text())
		if !ok {
			uc.logger.Warn("ignoring operator command", zap.String("line", scanner.Text()))
			continue
		}

		switch cmd {
		case 's':
			uc.RequestStop(zone)
		case 'r':
			uc.RequestReconnect(zone)
		}
	}
}

func parseCommand(line string) (byte, int32, bool) {
	if len(line) < 2 {
		return 0, 0, false
	}
	cmd := line[0]
	if cmd != 's' && cmd != 'r' {
		return 0, 0, false
	}
	zone, err := strconv.ParseInt(line[1:], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return cmd, int32(zone), true
}
