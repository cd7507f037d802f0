package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrSuperAdmin is returned when removing the configured super admin
var ErrSuperAdmin = errors.New("the super admin cannot be removed")

// AddAdmin grants admin rights. Adding an existing admin is a no-op.
func (db *DB) AddAdmin(ctx context.Context, userID int64) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO admins (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add admin %d: %w", userID, err)
	}
	return nil
}

// RemoveAdmin revokes admin rights, refusing to remove superAdminID
func (db *DB) RemoveAdmin(ctx context.Context, userID, superAdminID int64) error {
	if userID == superAdminID {
		return ErrSuperAdmin
	}
	_, err := db.pool.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to remove admin %d: %w", userID, err)
	}
	return nil
}

// ListAdmins returns every admin ID
func (db *DB) ListAdmins(ctx context.Context) ([]int64, error) {
	rows, err := db.pool.Query(ctx, `SELECT user_id FROM admins ORDER BY added_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan admins: %w", err)
	}
	return ids, nil
}

// IsAdmin reports whether userID has admin rights
func (db *DB) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check admin %d: %w", userID, err)
	}
	return exists, nil
}
