package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const userColumns = `user_id, username, full_name, balance, free_pptx, free_docx, is_blocked, joined_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Username, &u.FullName, &u.Balance,
		&u.FreePPTX, &u.FreeDOCX, &u.IsBlocked, &u.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetOrCreateUser returns the user, creating it with the default free quota
// on first contact. Name changes are written back.
func (db *DB) GetOrCreateUser(ctx context.Context, userID int64, username, fullName string) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`INSERT INTO users (user_id, username, full_name, free_pptx, free_docx)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET username = $2, full_name = $3
		 RETURNING `+userColumns,
		userID, username, fullName, DefaultFreePPTX, DefaultFreeDOCX,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user %d: %w", userID, err)
	}
	return u, nil
}

// GetUser retrieves a user by Telegram ID. Returns nil, nil if not found.
func (db *DB) GetUser(ctx context.Context, userID int64) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return u, nil
}

// UpdateBalance adds amount (which may be negative) to the user's balance
func (db *DB) UpdateBalance(ctx context.Context, userID int64, amount int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE users SET balance = balance + $1 WHERE user_id = $2`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance for %d: %w", userID, err)
	}
	return nil
}

// DebitBalance subtracts amount if the balance covers it and reports whether
// it did
func (db *DB) DebitBalance(ctx context.Context, userID int64, amount int) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET balance = balance - $1 WHERE user_id = $2 AND balance >= $1`,
		amount, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to debit balance for %d: %w", userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateFreeQuota adds delta to one of the free generation counters
func (db *DB) UpdateFreeQuota(ctx context.Context, userID int64, q Quota, delta int) error {
	col, err := q.column()
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s = %s + $1 WHERE user_id = $2`, col, col),
		delta, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s for %d: %w", col, userID, err)
	}
	return nil
}

// DebitFreeQuota consumes one free generation if any is left and reports
// whether it did
func (db *DB) DebitFreeQuota(ctx context.Context, userID int64, q Quota) (bool, error) {
	col, err := q.column()
	if err != nil {
		return false, err
	}
	tag, err := db.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s = %s - 1 WHERE user_id = $1 AND %s > 0`, col, col, col),
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to debit %s for %d: %w", col, userID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetBlocked blocks or unblocks a user
func (db *DB) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE users SET is_blocked = $1 WHERE user_id = $2`,
		blocked, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set blocked for %d: %w", userID, err)
	}
	return nil
}

// ListUserIDs returns every known user ID, used for broadcasts
func (db *DB) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.pool.Query(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return ids, nil
}
