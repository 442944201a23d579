// Package notify delivers price-change alerts to an external channel.
package notify

import (
	"context"

	"bdo-market-watch/internal/model"
)

// Status classifies the result of one delivery attempt.
type Status string

const (
	// StatusDelivered means the channel accepted the message.
	StatusDelivered Status = "delivered"
	// StatusSkipped means no channel is configured. A valid disabled state,
	// not an error.
	StatusSkipped Status = "skipped"
	// StatusFailed means transport or API failure. Never retried; the caller
	// logs and moves on.
	StatusFailed Status = "failed"
)

// Outcome is the result of one notification attempt. It is a value, not an
// error: delivery loss is an accepted part of the design and the watcher only
// records it.
type Outcome struct {
	Status     Status
	StatusCode int
	Err        error
}

// Delivered reports whether the message reached the channel.
func (o Outcome) Delivered() bool {
	return o.Status == StatusDelivered
}

// Notifier sends a price-change event to a channel. Implementations never
// return an error; failures are folded into the Outcome.
type Notifier interface {
	Notify(ctx context.Context, event model.ChangeEvent) Outcome
}
