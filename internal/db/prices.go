package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
)

// DefaultPrices are seeded on first start and used when a key is missing
var DefaultPrices = map[string]int{
	"pptx_10": 5000,
	"pptx_15": 7000,
	"pptx_20": 10000,
	"docx_15": 5000,
	"docx_20": 7000,
	"docx_25": 10000,
	"docx_30": 12000,
}

// fallbackPrice applies to keys with neither a row nor a default
const fallbackPrice = 5000

// PriceKey builds the prices table key, e.g. "pptx_15"
func PriceKey(format string, size int) string {
	return fmt.Sprintf("%s_%d", format, size)
}

// DefaultPrice returns the built-in price for key
func DefaultPrice(key string) int {
	if v, ok := DefaultPrices[key]; ok {
		return v
	}
	return fallbackPrice
}

// Price is one row of the prices table
type Price struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// GetPrice returns the configured price, falling back to the defaults
func (db *DB) GetPrice(ctx context.Context, key string) (int, error) {
	var value int
	err := db.pool.QueryRow(ctx, `SELECT value FROM prices WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultPrice(key), nil
		}
		return 0, fmt.Errorf("failed to get price %s: %w", key, err)
	}
	if value <= 0 {
		return DefaultPrice(key), nil
	}
	return value, nil
}

// SetPrice upserts a price
func (db *DB) SetPrice(ctx context.Context, key string, value int) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO prices (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = $2`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set price %s: %w", key, err)
	}
	return nil
}

// ListPrices returns every price sorted by key
func (db *DB) ListPrices(ctx context.Context) ([]Price, error) {
	rows, err := db.pool.Query(ctx, `SELECT key, value FROM prices`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	prices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Price, error) {
		var p Price
		err := row.Scan(&p.Key, &p.Value)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan prices: %w", err)
	}
	sortPrices(prices)
	return prices, nil
}

// sortPrices orders by format then numeric size so pptx_10 precedes pptx_15
func sortPrices(prices []Price) {
	sort.Slice(prices, func(i, j int) bool {
		fi, si := splitKey(prices[i].Key)
		fj, sj := splitKey(prices[j].Key)
		if fi != fj {
			return fi < fj
		}
		if si != sj {
			return si < sj
		}
		return prices[i].Key < prices[j].Key
	})
}

func splitKey(key string) (string, int) {
	var size int
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '_' {
			if _, err := fmt.Sscanf(key[i+1:], "%d", &size); err != nil {
				return key, 0
			}
			return key[:i], size
		}
	}
	return key, 0
}
