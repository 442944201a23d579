package model

// TrackedItem is the stored baseline for one marketplace item variant.
// The (ItemID, SID) pair is the composite key; at most one record per pair.
type TrackedItem struct {
	ItemID       int    `json:"item_id"`
	SID          int    `json:"sid"`
	Name         string `json:"name"`
	LastPrice    int64  `json:"last_price"`
	LastStock    int64  `json:"last_stock"`
	LastSoldTime int64  `json:"last_sold_time"` // unix seconds, 0 = never sold
	AddedAt      int64  `json:"added_at"`       // unix millis, set once at add
}

// RemoteSnapshot is one fresh fetch from the market API. It only lives long
// enough to be diffed against the stored baseline, then the store absorbs it.
type RemoteSnapshot struct {
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	Stock        int64  `json:"stock"`
	LastSoldTime int64  `json:"last_sold_time"`
}

// ItemPatch is a partial update of the mutable TrackedItem fields.
// Nil fields are left untouched. AddedAt is never patchable.
type ItemPatch struct {
	Name         *string
	LastPrice    *int64
	LastStock    *int64
	LastSoldTime *int64
}

// SnapshotPatch builds the patch the watcher applies after every successful
// fetch: all four mutable fields overwritten with the fresh values.
func SnapshotPatch(snap RemoteSnapshot) ItemPatch {
	return ItemPatch{
		Name:         &snap.Name,
		LastPrice:    &snap.Price,
		LastStock:    &snap.Stock,
		LastSoldTime: &snap.LastSoldTime,
	}
}

// Apply merges the patch into the item.
func (p ItemPatch) Apply(item *TrackedItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.LastPrice != nil {
		item.LastPrice = *p.LastPrice
	}
	if p.LastStock != nil {
		item.LastStock = *p.LastStock
	}
	if p.LastSoldTime != nil {
		item.LastSoldTime = *p.LastSoldTime
	}
}
