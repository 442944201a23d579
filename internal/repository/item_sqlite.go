package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"bdo-market-watch/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteItemRepository implements ItemRepository using SQLite.
// Thread-safe with WAL mode; the default backend.
type SQLiteItemRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteItemRepository creates a new SQLite item repository.
// dbPath is the path to the SQLite database file (e.g., "./data/items.db")
func NewSQLiteItemRepository(dbPath string) (*SQLiteItemRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createItemTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteItemRepository] Initialized with database: %s", dbPath)
	return &SQLiteItemRepository{db: db}, nil
}

func createItemTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS tracked_items (
		item_id INTEGER NOT NULL,
		sid INTEGER NOT NULL,
		name TEXT NOT NULL,
		last_price INTEGER NOT NULL DEFAULT 0,
		last_stock INTEGER NOT NULL DEFAULT 0,
		last_sold_time INTEGER NOT NULL DEFAULT 0,
		added_at INTEGER NOT NULL,
		PRIMARY KEY (item_id, sid)
	);
	`
	_, err := db.Exec(query)
	return err
}

// List returns every tracked item.
func (r *SQLiteItemRepository) List(ctx context.Context) ([]model.TrackedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

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
func (r *SQLiteItemRepository) Get(ctx context.Context, itemID, sid int) (*model.TrackedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return scanItemRow(r.db.QueryRowContext(ctx,
		`SELECT item_id, sid, name, last_price, last_stock, last_sold_time, added_at
		 FROM tracked_items WHERE item_id = ? AND sid = ?`, itemID, sid))
}

// Add inserts a new record, failing if the pair is already tracked.
func (r *SQLiteItemRepository) Add(ctx context.Context, item model.TrackedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tracked_items (item_id, sid, name, last_price, last_stock, last_sold_time, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(item_id, sid) DO NOTHING`,
		item.ItemID, item.SID, item.Name, item.LastPrice, item.LastStock, item.LastSoldTime, item.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to add tracked item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyTracked
	}
	return nil
}

// Update applies a partial patch under the repository lock.
func (r *SQLiteItemRepository) Update(ctx context.Context, itemID, sid int, patch model.ItemPatch) (*model.TrackedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, err := scanItemRow(r.db.QueryRowContext(ctx,
		`SELECT item_id, sid, name, last_price, last_stock, last_sold_time, added_at
		 FROM tracked_items WHERE item_id = ? AND sid = ?`, itemID, sid))
	if err != nil {
		return nil, err
	}
	patch.Apply(item)

	_, err = r.db.ExecContext(ctx,
		`UPDATE tracked_items SET name = ?, last_price = ?, last_stock = ?, last_sold_time = ?
		 WHERE item_id = ? AND sid = ?`,
		item.Name, item.LastPrice, item.LastStock, item.LastSoldTime, itemID, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to update tracked item: %w", err)
	}
	return item, nil
}

// Remove deletes one pair, or all variants of itemID when sid is nil.
func (r *SQLiteItemRepository) Remove(ctx context.Context, itemID int, sid *int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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
func (r *SQLiteItemRepository) Close() error {
	return r.db.Close()
}

func scanItemRow(row *sql.Row) (*model.TrackedItem, error) {
	var it model.TrackedItem
	err := row.Scan(&it.ItemID, &it.SID, &it.Name, &it.LastPrice, &it.LastStock, &it.LastSoldTime, &it.AddedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotTracked
		}
		return nil, fmt.Errorf("failed to get tracked item: %w", err)
	}
	return &it, nil
}

// Ensure SQLiteItemRepository implements ItemRepository
var _ ItemRepository = (*SQLiteItemRepository)(nil)
