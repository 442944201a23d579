package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_FetchItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/na/item" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("id") != "10007" || q.Get("sid") != "0" || q.Get("lang") != "en" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Kzarka Longsword",
			"id": 10007,
			"sid": 0,
			"basePrice": 100000,
			"currentStock": 12,
			"lastSoldTime": 1700000000
		}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Region: "na", Language: "en"})

	snap, err := client.FetchItem(context.Background(), 10007, 0)
	if err != nil {
		t.Fatalf("FetchItem failed: %v", err)
	}
	if snap.Name != "Kzarka Longsword" {
		t.Errorf("Name mismatch: %q", snap.Name)
	}
	if snap.Price != 100000 || snap.Stock != 12 || snap.LastSoldTime != 1700000000 {
		t.Errorf("Snapshot mismatch: %+v", snap)
	}
}

func TestClient_FetchItemNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unknown item"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Region: "na"})

	_, err := client.FetchItem(context.Background(), 424242, 0)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestClient_FetchItemEmptyPayloadIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Region: "na"})

	_, err := client.FetchItem(context.Background(), 10007, 0)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestClient_FetchItemServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Region: "na"})

	_, err := client.FetchItem(context.Background(), 10007, 0)
	if err == nil {
		t.Fatal("Expected an error for status 500")
	}
	if errors.Is(err, ErrItemNotFound) {
		t.Error("Server errors must not be reported as not-found")
	}
}

func TestClient_FetchItemMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Region: "na"})

	if _, err := client.FetchItem(context.Background(), 10007, 0); err == nil {
		t.Fatal("Expected a parse error")
	}
}

func TestClient_FetchItemHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, Region: "na"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := client.FetchItem(ctx, 10007, 0); err == nil {
		t.Fatal("Expected a context deadline error")
	}
}
