package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShopFile(t *testing.T, dir, name, header string) {
	t.Helper()
	content := header + "\n---\nkeyboard,10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(content), 0o644))
}

func pipeDialer() (func(string) (net.Conn, error), func()) {
	var conns []net.Conn
	dial := func(string) (net.Conn, error) {
		client, server := net.Pipe()
		conns = append(conns, server)
		return client, nil
	}
	cleanup := func() {
		for _, c := range conns {
			c.Close()
		}
	}
	return dial, cleanup
}

func connectedZones(t *testing.T, uc *EcomUseCase) []int32 {
	t.Helper()
	shops, err := uc.ShopsSnapshot(context.Background())
	if err != nil {
		return nil
	}
	zones := make([]int32, 0, len(shops))
	for _, s := range shops {
		zones = append(zones, s.ZoneID)
	}
	return zones
}

func TestConnectShops(t *testing.T) {
	dir := t.TempDir()
	writeShopFile(t, dir, "centro", "centro,127.0.0.1:9101,4")
	writeShopFile(t, dir, "norte", "norte,127.0.0.1:9102,8")

	cfg := testEcomConfig()
	cfg.ShopsDir = dir
	uc, mb := newTestEcom(t, cfg)

	dial, cleanup := pipeDialer()
	defer cleanup()
	uc.dial = dial

	mb.Send(uc.ConnectShops)

	require.Eventually(t, func() bool {
		return len(connectedZones(t, uc)) == 2
	}, 2*time.Second, time.Millisecond)
	assert.ElementsMatch(t, []int32{4, 8}, connectedZones(t, uc))
}

func TestConnectShopsSkipsUnreachable(t *testing.T) {
	dir := t.TempDir()
	writeShopFile(t, dir, "centro", "centro,127.0.0.1:1,4")

	cfg := testEcomConfig()
	cfg.ShopsDir = dir
	uc, mb := newTestEcom(t, cfg)
	uc.dial = func(string) (net.Conn, error) { return nil, net.ErrClosed }

	mb.Send(uc.ConnectShops)

	done, err := uc.ShopsSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestStopShopRemovesItFromRouting(t *testing.T) {
	uc, mb := newTestEcom(t, nil)
	addShop(uc, 5)
	addShop(uc, 11)

	uc.RequestStop(5)

	require.Eventually(t, func() bool {
		zones := connectedZones(t, uc)
		return len(zones) == 1 && zones[0] == 11
	}, 2*time.Second, time.Millisecond)

	// orders now route past the stopped zone
	order := &EcomOrder{ID: 1, ProductID: "keyboard", Quantity: 1, ZoneID: 5}
	mb.Send(func() { uc.ProcessOrder(order) })

	require.Eventually(t, func() bool {
		pending := pendingIDs(t, uc)
		reqs, ok := pending[1]
		return ok && len(reqs) == 1 && reqs[0] == 11
	}, 2*time.Second, time.Millisecond)
}

func TestStopShopUnknownZoneIsANoOp(t *testing.T) {
	uc, _ := newTestEcom(t, nil)
	addShop(uc, 5)

	uc.RequestStop(99)

	require.Eventually(t, func() bool {
		zones := connectedZones(t, uc)
		return len(zones) == 1 && zones[0] == 5
	}, 2*time.Second, time.Millisecond)
}

func TestReconnectShop(t *testing.T) {
	dir := t.TempDir()
	writeShopFile(t, dir, "centro", "centro,127.0.0.1:9101,4")

	cfg := testEcomConfig()
	cfg.ShopsDir = dir
	uc, _ := newTestEcom(t, cfg)

	dial, cleanup := pipeDialer()
	defer cleanup()
	uc.dial = dial

	uc.RequestReconnect(4)

	require.Eventually(t, func() bool {
		zones := connectedZones(t, uc)
		return len(zones) == 1 && zones[0] == 4
	}, 2*time.Second, time.Millisecond)
}

func TestReconnectShopUnknownZone(t *testing.T) {
	dir := t.TempDir()
	writeShopFile(t, dir, "centro", "centro,127.0.0.1:9101,4")

	cfg := testEcomConfig()
	cfg.ShopsDir = dir
	uc, _ := newTestEcom(t, cfg)

	dial, cleanup := pipeDialer()
	defer cleanup()
	uc.dial = dial

	uc.RequestReconnect(99)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, connectedZones(t, uc))
}

func TestRunCommandLoop(t *testing.T) {
	dir := t.TempDir()
	writeShopFile(t, dir, "centro", "centro,127.0.0.1:9101,4")

	cfg := testEcomConfig()
	cfg.ShopsDir = dir
	uc, _ := newTestEcom(t, cfg)
	addShop(uc, 4)

	dial, cleanup := pipeDialer()
	defer cleanup()
	uc.dial = dial

	uc.RunCommandLoop(strings.NewReader("nonsense\ns4\nr4\n"))

	// stop then reconnect leaves exactly one fresh link to zone 4
	require.Eventually(t, func() bool {
		zones := connectedZones(t, uc)
		return len(zones) == 1 && zones[0] == 4
	}, 2*time.Second, time.Millisecond)
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line     string
		wantCmd  byte
		wantZone int32
		wantOK   bool
	}{
		{"s5", 's', 5, true},
		{"r12", 'r', 12, true},
		{"s-3", 's', -3, true},
		{"", 0, 0, false},
		{"s", 0, 0, false},
		{"x5", 0, 0, false},
		{"sfive", 0, 0, false},
	}

	for _, tc := range cases {
		cmd, zone, ok := parseCommand(tc.line)
		assert.Equal(t, tc.wantOK, ok, tc.line)
		if tc.wantOK {
			assert.Equal(t, tc.wantCmd, cmd, tc.line)
			assert.Equal(t, tc.wantZone, zone, tc.line)
		}
	}
}
