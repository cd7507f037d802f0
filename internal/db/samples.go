package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// AddSample stores an uploaded sample by its Telegram file ID
func (db *DB) AddSample(ctx context.Context, fileID, caption, fileType string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO samples (file_id, caption, file_type) VALUES ($1, $2, $3)`,
		fileID, caption, fileType,
	)
	if err != nil {
		return fmt.Errorf("failed to add sample: %w", err)
	}
	return nil
}

// ListSamples returns samples in upload order
func (db *DB) ListSamples(ctx context.Context) ([]Sample, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, file_id, caption, file_type FROM samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Sample, error) {
		var s Sample
		err := row.Scan(&s.ID, &s.FileID, &s.Caption, &s.FileType)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan samples: %w", err)
	}
	return samples, nil
}
