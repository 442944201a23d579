package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"bdo-market-watch/internal/model"
)

// MySQLItemRepository implements ItemRepository using MySQL.
// The caller owns the *sql.DB and its pool settings.
type MySQLItemRepository struct {
	db *sql.DB
}

// NewMySQLItemRepository creates a new MySQL item repository and ensures the
// tracked_items table exists.
func NewMySQLItemRepository(db *sql.DB) (*MySQLItemRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS tracked_items (
		item_id INT NOT NULL,
		sid INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		last_price BIGINT NOT NULL DEFAULT 0,
		last_stock BIGINT NOT NULL DEFAULT 0,
		last_sold_time BIGINT NOT NULL DEFAULT 0,
		added_at BIGINT NOT NULL,
		PRIMARY KEY (item_id, sid)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create tracked_items table: %w", err)
	}

	log.Printf("[MySQLItemRepository] Initialized")
	return &MySQLItemRepository{db: db}, nil
}

// List returns every tracked item.
func (r *MySQLItemRepository) List(ctx context.Context) ([]model.TrackedItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, sid, name, last_price, last_stock, last_sold_time, added_at FROM tracked_items`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked items: %w", err)
	}
	defer rows.Close()

	var items []model.TrackedItem
	for rows.Next() {
		var it model.TrackedItem
		if err := rows.Scan(&it.ItemID, &it.SID, &it.Name, &it.LastPrice, &it.LastStock, &it.LastSoldTime, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tracked item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Get returns the record for (itemID, sid).
func (r *MySQLItemRepository) Get(ctx context.Context, itemID, sid int) (*model.TrackedItem, error) {
	return scanItemRow(r.db.QueryRowContext(ctx,
		`SELECT item_id, sid, name, last_price, last_stock, last_sold_time, added_at
		 FROM tracked_items WHERE item_id = ? AND sid = ?`, itemID, sid))
}

// Add inserts a new record, failing if the pair is already tracked.
func (r *MySQLItemRepository) Add(ctx context.Context, item model.TrackedItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO tracked_items (item_id, sid, name, last_price, last_stock, last_sold_time, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ItemID, item.SID, item.Name, item.LastPrice, item.LastStock, item.LastSoldTime, item.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to add tracked item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyTracked
	}
	return nil
}

// Update applies a partial patch inside a transaction so the read-modify-write
// is atomic against concurrent watchers.
func (r *MySQLItemRepository) Update(ctx context.Context, itemID, sid int, patch model.ItemPatch) (*model.TrackedItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var it model.TrackedItem
	err = tx.QueryRowContext(ctx,
		`SELECT item_id, sid, name, last_price, last_stock, last_sold_time, added_at
		 FROM tracked_items WHERE item_id = ? AND sid = ? FOR UPDATE`, itemID, sid).
		Scan(&it.ItemID, &it.SID, &it.Name, &it.LastPrice, &it.LastStock, &it.LastSoldTime, &it.AddedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotTracked
		}
		return nil, fmt.Errorf("failed to get tracked item: %w", err)
	}
	patch.Apply(&it)

	_, err = tx.ExecContext(ctx,
		`UPDATE tracked_items SET name = ?, last_price = ?, last_stock = ?, last_sold_time = ?
		 WHERE item_id = ? AND sid = ?`,
		it.Name, it.LastPrice, it.LastStock, it.LastSoldTime, itemID, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to update tracked item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &it, nil
}

// Remove deletes one pair, or all variants of itemID when sid is nil.
func (r *MySQLItemRepository) Remove(ctx context.Context, itemID int, sid *int) (bool, error) {
	var res sql.Result
	var err error
	if sid != nil {
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM tracked_items WHERE item_id = ? AND sid = ?`, itemID, *sid)
	} else {
		res, err = r.db.ExecContext(ctx,
			`DELETE FROM tracked_items WHERE item_id = ?`, itemID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to remove tracked item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database connection.
func (r *MySQLItemRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLItemRepository implements ItemRepository
var _ ItemRepository = (*MySQLItemRepository)(nil)
