package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Stats returns the admin dashboard counters. "Today" follows the database
// server's time zone.
func (db *DB) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := db.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_blocked),
			(SELECT COUNT(*) FROM users WHERE joined_at >= date_trunc('day', NOW())),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE created_at >= date_trunc('day', NOW())),
			(SELECT COUNT(*) FROM history)`,
	).Scan(&s.TotalUsers, &s.BlockedUsers, &s.NewToday, &s.IncomeToday, &s.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &s, nil
}

// FinancialReport returns income today, this month and in total, plus the
// latest payments
func (db *DB) FinancialReport(ctx context.Context) (*FinancialReport, error) {
	var r FinancialReport
	err := db.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE created_at >= date_trunc('day', NOW())), 0),
			COALESCE(SUM(amount) FILTER (WHERE created_at >= date_trunc('month', NOW())), 0),
			COALESCE(SUM(amount), 0)
		FROM transactions`,
	).Scan(&r.Daily, &r.Monthly, &r.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to get income totals: %w", err)
	}

	rows, err := db.pool.Query(ctx, `
		SELECT t.created_at, COALESCE(u.full_name, ''), t.amount
		FROM transactions t
		LEFT JOIN users u ON t.user_id = u.user_id
		ORDER BY t.id DESC
		LIMIT $1`, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	r.Recent, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (TransactionRow, error) {
		var t TransactionRow
		err := row.Scan(&t.CreatedAt, &t.FullName, &t.Amount)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return &r, nil
}

// UsageHistory returns the latest generations
func (db *DB) UsageHistory(ctx context.Context) ([]UsageRow, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT h.created_at, COALESCE(u.full_name, ''), h.doc_type, h.topic, h.pages
		FROM history h
		LEFT JOIN users u ON h.user_id = u.user_id
		ORDER BY h.id DESC
		LIMIT $1`, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	usage, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UsageRow, error) {
		var u UsageRow
		err := row.Scan(&u.CreatedAt, &u.FullName, &u.DocType, &u.Topic, &u.Pages)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	return usage, nil
}
