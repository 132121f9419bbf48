package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrWrongFormat = errors.New("wrong file format")
)

const sectionSeparator = "---"

// LoadEcomFile reads one ecom file: the ecom name on the first line, a
// dashed separator, then one "product_id,quantity,zone_id" order per line.
// Order ids are the 0-based data line numbers.
func LoadEcomFile(path string) (string, []*EcomOrder, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer file.Close()

	return parseEcomFile(file)
}

func parseEcomFile(r io.Reader) (string, []*EcomOrder, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return "", nil, fmt.Errorf("%w: missing header", ErrWrongFormat)
	}
	name := scanner.Text()
	if name == "" || strings.Contains(name, ",") {
		return "", nil, fmt.Errorf("%w: ecom name %q", ErrWrongFormat, name)
	}

	if scanner.Scan() && scanner.Text() != sectionSeparator {
		return "", nil, fmt.Errorf("%w: missing order separator", ErrWrongFormat)
	}

	var orders []*EcomOrder
	for id := uint32(0); scanner.Scan(); id++ {
		fields := strings.Split(scanner.Text(), ",")
		if len(fields) != 3 {
			return "", nil, fmt.Errorf("%w: %q", ErrWrongFormat, scanner.Text())
		}
		if fields[0] == "" {
			return "", nil, fmt.Errorf("%w: empty product id", ErrWrongFormat)
		}
		quantity, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("%w: quantity %q", ErrWrongFormat, fields[1])
		}
		zone, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("%w: zone_id %q", ErrWrongFormat, fields[2])
		}

		orders = append(orders, &EcomOrder{
			ID:        id,
			ProductID: fields[0],
			Quantity:  uint32(quantity),
			ZoneID:    int32(zone),
		})
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrWrongFormat, err)
	}

	return name, orders, nil
}

// ShopEntry is one shop descriptor header: enough to connect.
type ShopEntry struct {
	Name    string
	Address string
	ZoneID  int32
}

// LoadShopDirectory reads the first line of every regular file in dir,
// expecting "name,address,zone_id". A malformed header is fatal; connecting
// is the caller's concern.
func LoadShopDirectory(dir string) ([]ShopEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	var shops []ShopEntry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		entry, err := readShopHeader(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, err
		}
		shops = append(shops, entry)
	}

	return shops, nil
}

func readShopHeader(path string) (ShopEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return ShopEntry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return ShopEntry{}, fmt.Errorf("%w: empty shop file %s", ErrWrongFormat, path)
	}

	fields := strings.Split(scanner.Text(), ",")
	if len(fields) != 3 {
		return ShopEntry{}, fmt.Errorf("%w: shop header %q", ErrWrongFormat, scanner.Text())
	}
	zone, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return ShopEntry{}, fmt.Errorf("%w: zone_id %q", ErrWrongFormat, fields[2])
	}

	return ShopEntry{
		Name:    fields[0],
		Address: fields[1],
		ZoneID:  int32(zone),
	}, nil
}
