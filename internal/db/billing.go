package db

import (
	"context"
	"fmt"
)

// AddTransaction records an approved top-up
func (db *DB) AddTransaction(ctx context.Context, userID int64, amount int) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO transactions (user_id, amount) VALUES ($1, $2)`,
		userID, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to add transaction for %d: %w", userID, err)
	}
	return nil
}

// ApprovePayment credits the balance and records the transaction in one
// database transaction
func (db *DB) ApprovePayment(ctx context.Context, userID int64, amount int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE users SET balance = balance + $1 WHERE user_id = $2`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (user_id, amount) VALUES ($1, $2)`, userID, amount); err != nil {
		return fmt.Errorf("failed to record payment for %d: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	return nil
}

// AddGenerationLog records a delivered document
func (db *DB) AddGenerationLog(ctx context.Context, userID int64, docType, topic string, pages int) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO history (user_id, doc_type, topic, pages) VALUES ($1, $2, $3, $4)`,
		userID, docType, topic, pages,
	)
	if err != nil {
		return fmt.Errorf("failed to log generation for %d: %w", userID, err)
	}
	return nil
}
