package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"bdo-market-watch/internal/model"
)

// Embed colors, Discord decimal RGB.
const (
	colorIncrease = 0x2ecc71 // green
	colorDecrease = 0xe74c3c // red
)

// WebhookNotifier posts Discord-style embeds to a configured webhook URL.
// An empty URL is the disabled state: every Notify returns StatusSkipped.
type WebhookNotifier struct {
	httpClient *http.Client
	webhookURL string
	username   string
}

// NewWebhookNotifier creates a webhook notifier. url may be empty.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		webhookURL: url,
		username:   "Market Watch",
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.webhookURL != ""
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Notify builds an embed for the change and fires it at the webhook.
// Fire-and-forget: any failure is folded into the Outcome, never raised.
func (n *WebhookNotifier) Notify(ctx context.Context, event model.ChangeEvent) Outcome {
	if n.webhookURL == "" {
		return Outcome{Status: StatusSkipped}
	}

	payload := webhookPayload{
		Username: n.username,
		Embeds:   []embed{buildEmbed(event)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("[WebhookNotifier] Delivery failed: %v", err)
		return Outcome{Status: StatusFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[WebhookNotifier] Webhook returned status %d", resp.StatusCode)
		return Outcome{
			Status:     StatusFailed,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("webhook returned status %d", resp.StatusCode),
		}
	}

	return Outcome{Status: StatusDelivered, StatusCode: resp.StatusCode}
}

func buildEmbed(event model.ChangeEvent) embed {
	title := fmt.Sprintf("Price drop: %s", event.ItemName)
	color := colorDecrease
	if event.Direction == model.DirectionIncrease {
		title = fmt.Sprintf("Price increase: %s", event.ItemName)
		color = colorIncrease
	}

	return embed{
		Title: title,
		Color: color,
		Fields: []embedField{
			{Name: "New Price", Value: FormatSilver(event.NewPrice), Inline: true},
			{Name: "Old Price", Value: FormatSilver(event.OldPrice), Inline: true},
			{Name: "In Stock", Value: strconv.FormatInt(event.Stock, 10), Inline: true},
			{Name: "Last Sold", Value: RecencyLabel(event.LastSoldTime, time.Now()), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FormatSilver renders a silver amount with thousands separators.
func FormatSilver(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out) + " silver"
	}
	return string(out) + " silver"
}

// RecencyLabel renders a unix-seconds timestamp as a rough "how long ago"
// label. Zero means the item never sold.
func RecencyLabel(unixSec int64, now time.Time) string {
	if unixSec == 0 {
		return "never"
	}
	d := now.Sub(time.Unix(unixSec, 0))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
