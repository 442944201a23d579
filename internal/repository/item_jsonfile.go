package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"bdo-market-watch/internal/model"
)

// JSONFileItemRepository implements ItemRepository as an in-memory map
// serialized to a single JSON file after every mutation. Persistence is
// best-effort: a failed save is logged and the in-memory mutation is kept.
type JSONFileItemRepository struct {
	mu   sync.RWMutex
	path string
	data map[string]model.TrackedItem // keyed by "itemID:sid"
}

// NewJSONFileItemRepository creates a file-backed item repository, loading any
// existing record set from path.
func NewJSONFileItemRepository(path string) (*JSONFileItemRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	r := &JSONFileItemRepository{
		path: path,
		data: make(map[string]model.TrackedItem),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read item file: %w", err)
		}
	} else if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r.data); err != nil {
			return nil, fmt.Errorf("failed to parse item file %s: %w", path, err)
		}
	}

	log.Printf("[JSONFileItemRepository] Initialized with file: %s (%d items)", path, len(r.data))
	return r, nil
}

// List returns every tracked item.
func (r *JSONFileItemRepository) List(_ context.Context) ([]model.TrackedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.TrackedItem, 0, len(r.data))
	for _, it := range r.data {
		items = append(items, it)
	}
	return items, nil
}

// Get returns the record for (itemID, sid).
func (r *JSONFileItemRepository) Get(_ context.Context, itemID, sid int) (*model.TrackedItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.data[itemField(itemID, sid)]
	if !ok {
		return nil, ErrNotTracked
	}
	return &it, nil
}

// Add inserts a new record, failing if the pair is already tracked.
func (r *JSONFileItemRepository) Add(_ context.Context, item model.TrackedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := itemField(item.ItemID, item.SID)
	if _, exists := r.data[key]; exists {
		return ErrAlreadyTracked
	}
	r.data[key] = item
	r.save()
	return nil
}

// Update applies a partial patch to an existing record.
func (r *JSONFileItemRepository) Update(_ context.Context, itemID, sid int, patch model.ItemPatch) (*model.TrackedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := itemField(itemID, sid)
	it, ok := r.data[key]
	if !ok {
		return nil, ErrNotTracked
	}
	patch.Apply(&it)
	r.data[key] = it
	r.save()
	return &it, nil
}

// Remove deletes one pair, or all variants of itemID when sid is nil.
func (r *JSONFileItemRepository) Remove(_ context.Context, itemID int, sid *int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	if sid != nil {
		key := itemField(itemID, *sid)
		if _, ok := r.data[key]; ok {
			delete(r.data, key)
			removed = true
		}
	} else {
		for key, it := range r.data {
			if it.ItemID == itemID {
				delete(r.data, key)
				removed = true
			}
		}
	}
	if removed {
		r.save()
	}
	return removed, nil
}

// save writes the full record set to disk. Must be called with mu held.
// Failures are logged, not returned: the in-memory state stays authoritative.
func (r *JSONFileItemRepository) save() {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		log.Printf("[JSONFileItemRepository] Failed to encode items: %v", err)
		return
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("[JSONFileItemRepository] Failed to write %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, r.path); err != nil {
		log.Printf("[JSONFileItemRepository] Failed to replace %s: %v", r.path, err)
	}
}

// Close is a no-op; every mutation is flushed when it happens.
func (r *JSONFileItemRepository) Close() error {
	return nil
}

// Ensure JSONFileItemRepository implements ItemRepository
var _ ItemRepository = (*JSONFileItemRepository)(nil)
