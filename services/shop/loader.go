package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrWrongFormat = errors.New("wrong file format")
)

const sectionSeparator = "---"

// LoadShopFile reads one shop file: a "name,address,zone_id" header, a dashed
// separator, one "product_id,initial_stock" line per product, then an
// optional second separator followed by "product_id,quantity" in-store order
// lines. Any malformed line is fatal.
func LoadShopFile(path string) (ShopInfo, []Product, []*LocalPurchase, error) {
	file, err := os.Open(path)
	if err != nil {
		return ShopInfo{}, nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer file.Close()

	return parseShopFile(file)
}

func parseShopFile(r io.Reader) (ShopInfo, []Product, []*LocalPurchase, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return ShopInfo{}, nil, nil, fmt.Errorf("%w: missing header", ErrWrongFormat)
	}
	header := strings.Split(scanner.Text(), ",")
	if len(header) != 3 {
		return ShopInfo{}, nil, nil, fmt.Errorf("%w: header needs name,address,zone_id", ErrWrongFormat)
	}
	zone, err := strconv.ParseInt(header[2], 10, 32)
	if err != nil {
		return ShopInfo{}, nil, nil, fmt.Errorf("%w: zone_id %q", ErrWrongFormat, header[2])
	}

	info := ShopInfo{
		Name:    header[0],
		Address: header[1],
		ZoneID:  int32(zone),
	}

	// dashed line between header and stock
	if scanner.Scan() && scanner.Text() != sectionSeparator {
		return info, nil, nil, fmt.Errorf("%w: missing stock separator", ErrWrongFormat)
	}

	var (
		stock    []Product
		orders   []*LocalPurchase
		inOrders bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == sectionSeparator {
			inOrders = true
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return info, nil, nil, fmt.Errorf("%w: %q", ErrWrongFormat, line)
		}
		quantity, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return info, nil, nil, fmt.Errorf("%w: quantity %q", ErrWrongFormat, fields[1])
		}

		if inOrders {
			orders = append(orders, NewLocalPurchase(fields[0], uint32(quantity)))
		} else {
			stock = append(stock, Product{ID: fields[0], Available: uint32(quantity)})
		}
	}
	if err := scanner.Err(); err != nil {
		return info, nil, nil, fmt.Errorf("%w: %v", ErrWrongFormat, err)
	}

	return info, stock, orders, nil
}
