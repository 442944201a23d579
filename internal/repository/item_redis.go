package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"bdo-market-watch/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisItemRepository implements ItemRepository on a single Redis hash.
// Field = "itemID:sid", value = JSON-encoded TrackedItem. Redis writes are
// immediately durable from this process's point of view, which satisfies the
// write-through contract.
type RedisItemRepository struct {
	client *redis.Client
	key    string
}

// RedisItemConfig holds connection settings for the Redis backend.
type RedisItemConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisItemRepository creates a Redis-backed item repository.
func NewRedisItemRepository(cfg RedisItemConfig) (*RedisItemRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	key := cfg.Key
	if key == "" {
		key = "marketwatch:items"
	}

	log.Printf("[RedisItemRepository] Initialized - DB:%d, key:%s", cfg.DB, key)
	return &RedisItemRepository{client: client, key: key}, nil
}

func itemField(itemID, sid int) string {
	return fmt.Sprintf("%d:%d", itemID, sid)
}

// List returns every tracked item.
func (r *RedisItemRepository) List(ctx context.Context) ([]model.TrackedItem, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked items: %w", err)
	}

	var items []model.TrackedItem
	for field, val := range raw {
		var it model.TrackedItem
		if err := json.Unmarshal([]byte(val), &it); err != nil {
			log.Printf("[RedisItemRepository] Skipping corrupt record %s: %v", field, err)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// Get returns the record for (itemID, sid).
func (r *RedisItemRepository) Get(ctx context.Context, itemID, sid int) (*model.TrackedItem, error) {
	val, err := r.client.HGet(ctx, r.key, itemField(itemID, sid)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotTracked
		}
		return nil, fmt.Errorf("failed to get tracked item: %w", err)
	}

	var it model.TrackedItem
	if err := json.Unmarshal([]byte(val), &it); err != nil {
		return nil, fmt.Errorf("failed to decode tracked item: %w", err)
	}
	return &it, nil
}

// Add inserts a new record using HSETNX so concurrent adds cannot clobber.
func (r *RedisItemRepository) Add(ctx context.Context, item model.TrackedItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	set, err := r.client.HSetNX(ctx, r.key, itemField(item.ItemID, item.SID), data).Result()
	if err != nil {
		return fmt.Errorf("failed to add tracked item: %w", err)
	}
	if !set {
		return ErrAlreadyTracked
	}
	return nil
}

// Update applies a partial patch with a WATCH-based optimistic transaction.
func (r *RedisItemRepository) Update(ctx context.Context, itemID, sid int, patch model.ItemPatch) (*model.TrackedItem, error) {
	field := itemField(itemID, sid)

	var updated *model.TrackedItem
	txf := func(tx *redis.Tx) error {
		val, err := tx.HGet(ctx, r.key, field).Result()
		if err != nil {
			if err == redis.Nil {
				return ErrNotTracked
			}
			return err
		}

		var it model.TrackedItem
		if err := json.Unmarshal([]byte(val), &it); err != nil {
			return fmt.Errorf("failed to decode tracked item: %w", err)
		}
		patch.Apply(&it)

		data, err := json.Marshal(it)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, field, data)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &it
		return nil
	}

	if err := r.client.Watch(ctx, txf, r.key); err != nil {
		if err == ErrNotTracked {
			return nil, ErrNotTracked
		}
		return nil, fmt.Errorf("failed to update tracked item: %w", err)
	}
	return updated, nil
}

// Remove deletes one pair, or all variants of itemID when sid is nil.
func (r *RedisItemRepository) Remove(ctx context.Context, itemID int, sid *int) (bool, error) {
	if sid != nil {
		n, err := r.client.HDel(ctx, r.key, itemField(itemID, *sid)).Result()
		if err != nil {
			return false, fmt.Errorf("failed to remove tracked item: %w", err)
		}
		return n > 0, nil
	}

	// No secondary index; scan the hash fields for the item's variants.
	fields, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to list item fields: %w", err)
	}
	prefix := strconv.Itoa(itemID) + ":"
	var matched []string
	for _, f := range fields {
		if strings.HasPrefix(f, prefix) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return false, nil
	}
	n, err := r.client.HDel(ctx, r.key, matched...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove tracked items: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client.
func (r *RedisItemRepository) Close() error {
	return r.client.Close()
}

// Ensure RedisItemRepository implements ItemRepository
var _ ItemRepository = (*RedisItemRepository)(nil)
