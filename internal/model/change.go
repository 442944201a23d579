package model

// PriceDirection indicates which way a detected price change moved.
type PriceDirection string

const (
	DirectionIncrease PriceDirection = "increase"
	DirectionDecrease PriceDirection = "decrease"
)

// ChangeEvent is emitted when a tracked item's price moved against a nonzero
// baseline. Consumed immediately by the notifier, never persisted.
type ChangeEvent struct {
	ItemID       int            `json:"item_id"`
	SID          int            `json:"sid"`
	ItemName     string         `json:"item_name"`
	OldPrice     int64          `json:"old_price"`
	NewPrice     int64          `json:"new_price"`
	Direction    PriceDirection `json:"direction"`
	Stock        int64          `json:"stock"`
	LastSoldTime int64          `json:"last_sold_time"`
}
