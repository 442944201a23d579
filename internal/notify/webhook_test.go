package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bdo-market-watch/internal/model"
)

func testEvent() model.ChangeEvent {
	return model.ChangeEvent{
		ItemID:       10007,
		SID:          0,
		ItemName:     "Kzarka Longsword",
		OldPrice:     100000,
		NewPrice:     120000,
		Direction:    model.DirectionIncrease,
		Stock:        4,
		LastSoldTime: time.Now().Add(-2 * time.Hour).Unix(),
	}
}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var payload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	outcome := n.Notify(context.Background(), testEvent())

	if !outcome.Delivered() {
		t.Fatalf("Expected delivery, got %+v", outcome)
	}
	if len(payload.Embeds) != 1 {
		t.Fatalf("Expected 1 embed, got %d", len(payload.Embeds))
	}

	e := payload.Embeds[0]
	if e.Title != "Price increase: Kzarka Longsword" {
		t.Errorf("Title mismatch: %q", e.Title)
	}
	if e.Color != colorIncrease {
		t.Errorf("Color mismatch: %#x", e.Color)
	}
	if len(e.Fields) != 4 {
		t.Fatalf("Expected 4 fields, got %d", len(e.Fields))
	}
	if e.Fields[0].Value != "120,000 silver" || e.Fields[1].Value != "100,000 silver" {
		t.Errorf("Price fields mismatch: %+v", e.Fields)
	}
}

func TestWebhookNotifier_DecreaseUsesRedEmbed(t *testing.T) {
	var payload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer srv.Close()

	event := testEvent()
	event.Direction = model.DirectionDecrease
	event.NewPrice = 90000

	n := NewWebhookNotifier(srv.URL)
	if outcome := n.Notify(context.Background(), event); !outcome.Delivered() {
		t.Fatalf("Expected delivery, got %+v", outcome)
	}
	if payload.Embeds[0].Title != "Price drop: Kzarka Longsword" {
		t.Errorf("Title mismatch: %q", payload.Embeds[0].Title)
	}
	if payload.Embeds[0].Color != colorDecrease {
		t.Errorf("Color mismatch: %#x", payload.Embeds[0].Color)
	}
}

func TestWebhookNotifier_NoURLIsSkipped(t *testing.T) {
	n := NewWebhookNotifier("")
	if n.Enabled() {
		t.Error("Notifier with no URL must report disabled")
	}

	outcome := n.Notify(context.Background(), testEvent())
	if outcome.Status != StatusSkipped {
		t.Errorf("Expected StatusSkipped, got %+v", outcome)
	}
}

func TestWebhookNotifier_FailureIsAnOutcomeNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	outcome := n.Notify(context.Background(), testEvent())

	if outcome.Status != StatusFailed {
		t.Errorf("Expected StatusFailed, got %+v", outcome)
	}
	if outcome.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode mismatch: %d", outcome.StatusCode)
	}
	if outcome.Err == nil {
		t.Error("Expected the failure reason in Err")
	}
}

func TestWebhookNotifier_TransportError(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewWebhookNotifier(url)
	outcome := n.Notify(context.Background(), testEvent())
	if outcome.Status != StatusFailed || outcome.Err == nil {
		t.Errorf("Expected transport failure outcome, got %+v", outcome)
	}
}

func TestFormatSilver(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 silver"},
		{999, "999 silver"},
		{1000, "1,000 silver"},
		{100000, "100,000 silver"},
		{1234567890, "1,234,567,890 silver"},
		{-5000, "-5,000 silver"},
	}
	for _, c := range cases {
		if got := FormatSilver(c.in); got != c.want {
			t.Errorf("FormatSilver(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRecencyLabel(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cases := []struct {
		unixSec int64
		want    string
	}{
		{0, "never"},
		{now.Unix() - 10, "just now"},
		{now.Add(-30 * time.Minute).Unix(), "30m ago"},
		{now.Add(-5 * time.Hour).Unix(), "5h ago"},
		{now.Add(-72 * time.Hour).Unix(), "3d ago"},
	}
	for _, c := range cases {
		if got := RecencyLabel(c.unixSec, now); got != c.want {
			t.Errorf("RecencyLabel(%d) = %q, want %q", c.unixSec, got, c.want)
		}
	}
}
