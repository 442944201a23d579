package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bdo-market-watch/internal/model"
)

func newSQLiteRepo(t *testing.T) *SQLiteItemRepository {
	t.Helper()
	repo, err := NewSQLiteItemRepository(filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatalf("NewSQLiteItemRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_AddGetRoundtrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, newTestItem(10007, 0, 100000)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := repo.Get(ctx, 10007, 0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Test Item" || got.LastPrice != 100000 || got.LastStock != 10 || got.LastSoldTime != 1700000000 {
		t.Errorf("Record mismatch: %+v", got)
	}

	if err := repo.Add(ctx, newTestItem(10007, 0, 1)); !errors.Is(err, ErrAlreadyTracked) {
		t.Errorf("Expected ErrAlreadyTracked, got %v", err)
	}
}

func TestSQLiteRepository_GetAbsent(t *testing.T) {
	repo := newSQLiteRepo(t)

	_, err := repo.Get(context.Background(), 1, 0)
	if !errors.Is(err, ErrNotTracked) {
		t.Errorf("Expected ErrNotTracked, got %v", err)
	}
}

func TestSQLiteRepository_UpdatePatch(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, newTestItem(10007, 0, 100000)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	price := int64(120000)
	stock := int64(7)
	updated, err := repo.Update(ctx, 10007, 0, model.ItemPatch{LastPrice: &price, LastStock: &stock})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.LastPrice != 120000 || updated.LastStock != 7 {
		t.Errorf("Patch not applied: %+v", updated)
	}
	if updated.Name != "Test Item" || updated.AddedAt != 1700000000000 {
		t.Errorf("Unpatched fields changed: %+v", updated)
	}

	_, err = repo.Update(ctx, 99999, 0, model.ItemPatch{LastPrice: &price})
	if !errors.Is(err, ErrNotTracked) {
		t.Errorf("Expected ErrNotTracked, got %v", err)
	}
}

func TestSQLiteRepository_RemoveByItemID(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	for _, sid := range []int{0, 3, 5} {
		if err := repo.Add(ctx, newTestItem(10007, sid, 100000)); err != nil {
			t.Fatalf("Add sid %d failed: %v", sid, err)
		}
	}

	removed, err := repo.Remove(ctx, 10007, nil)
	if err != nil || !removed {
		t.Fatalf("Remove failed: removed=%v err=%v", removed, err)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty store, got %+v", items)
	}

	removed, err = repo.Remove(ctx, 10007, nil)
	if err != nil || removed {
		t.Errorf("Expected removed=false, got removed=%v err=%v", removed, err)
	}
}
