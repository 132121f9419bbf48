// Package wire implements the newline-framed text protocol spoken between
// ecommerce routers and shops. One message per line, fields separated by
// commas, no framing beyond the trailing '\n'.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedLine is returned for any line that cannot be decoded. Callers
// drop the line and keep the connection alive.
var ErrMalformedLine = errors.New("wire: malformed line")

// PurchaseState is the lifecycle state of an online purchase as carried on
// the wire.
type PurchaseState uint8

const (
	StateReceived PurchaseState = iota
	StateReserved
	StateRejected
	StateDelivered
	StateLost
)

// Terminal reports whether no further transition can follow this state.
func (s PurchaseState) Terminal() bool {
	switch s {
	case StateRejected, StateDelivered, StateLost:
		return true
	}
	return false
}

func (s PurchaseState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateReserved:
		return "reserved"
	case StateRejected:
		return "rejected"
	case StateDelivered:
		return "delivered"
	case StateLost:
		return "lost"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// ParseState decodes a wire state code. Codes 0 and 1 are accepted even
// though shops only emit 2, 3 and 4; they are reserved for extension.
func ParseState(field string) (PurchaseState, error) {
	code, err := strconv.ParseUint(field, 10, 8)
	if err != nil || code > uint64(StateLost) {
		return 0, ErrMalformedLine
	}
	return PurchaseState(code), nil
}

// OrderLine is one order forwarded from an ecom to a shop:
// "id,product_id,quantity,zone_id".
type OrderLine struct {
	ID        uint32
	ProductID string
	Quantity  uint32
	ZoneID    int32
}

func (l OrderLine) Marshal() string {
	return fmt.Sprintf("%d,%s,%d,%d\n", l.ID, l.ProductID, l.Quantity, l.ZoneID)
}

// ParseOrderLine decodes an order line. The id field is capped to a single
// byte, which limits one ecom session to 256 distinct orders.
func ParseOrderLine(line string) (OrderLine, error) {
	fields := strings.Split(strings.TrimSuffix(line, "\n"), ",")
	if len(fields) != 4 {
		return OrderLine{}, ErrMalformedLine
	}

	id, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return OrderLine{}, ErrMalformedLine
	}
	if fields[1] == "" {
		return OrderLine{}, ErrMalformedLine
	}
	quantity, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return OrderLine{}, ErrMalformedLine
	}
	zone, err := strconv.ParseInt(fields[3], 10, 32)
	if err != nil {
		return OrderLine{}, ErrMalformedLine
	}

	return OrderLine{
		ID:        uint32(id),
		ProductID: fields[1],
		Quantity:  uint32(quantity),
		ZoneID:    int32(zone),
	}, nil
}

// StatusLine is one purchase outcome reported from a shop back to the ecom:
// "id,state_code".
type StatusLine struct {
	ID    uint32
	State PurchaseState
}

func (l StatusLine) Marshal() string {
	return fmt.Sprintf("%d,%d\n", l.ID, uint8(l.State))
}

// ParseStatusLine decodes a status line. Either field failing to parse, or a
// state code outside 0..4, invalidates the whole line.
func ParseStatusLine(line string) (StatusLine, error) {
	fields := strings.Split(strings.TrimSuffix(line, "\n"), ",")
	if len(fields) != 2 {
		return StatusLine{}, ErrMalformedLine
	}

	id, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return StatusLine{}, ErrMalformedLine
	}
	state, err := ParseState(fields[1])
	if err != nil {
		return StatusLine{}, err
	}

	return StatusLine{ID: uint32(id), State: state}, nil
}
