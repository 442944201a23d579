package service

import "bdo-market-watch/internal/model"

// Detect compares the stored baseline against a fresh snapshot and returns a
// ChangeEvent when the price moved, or nil.
//
// A change is reported only when the stored baseline price is nonzero. A zero
// baseline means the record was just added (or a previous fetch reported
// zero), and the first real observation should seed the baseline silently
// instead of alerting. The guard is one-sided on purpose: a fetched price of
// zero against a nonzero baseline is a normal decrease.
func Detect(old model.TrackedItem, fresh model.RemoteSnapshot) *model.ChangeEvent {
	if fresh.Price == old.LastPrice || old.LastPrice <= 0 {
		return nil
	}

	direction := model.DirectionDecrease
	if fresh.Price > old.LastPrice {
		direction = model.DirectionIncrease
	}

	name := fresh.Name
	if name == "" {
		name = old.Name
	}

	return &model.ChangeEvent{
		ItemID:       old.ItemID,
		SID:          old.SID,
		ItemName:     name,
		OldPrice:     old.LastPrice,
		NewPrice:     fresh.Price,
		Direction:    direction,
		Stock:        fresh.Stock,
		LastSoldTime: fresh.LastSoldTime,
	}
}
