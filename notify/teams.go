package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	adaptiveCardSchema  = "http://adaptivecards.io/schemas/adaptive-card.json"
	adaptiveCardVersion = "1.4"
)

// =============================================================================
// ADAPTIVE CARD PAYLOAD
// =============================================================================
//
// Power Automate "Post card" flows parse the whole HTTP body as the card, so
// the card object is sent directly rather than wrapped in attachments.

type AdaptiveCard struct {
	Type    string        `json:"type"`
	Body    []CardElement `json:"body"`
	Actions []CardAction  `json:"actions"`
	Schema  string        `json:"$schema"`
	Version string        `json:"version"`
}

type CardElement struct {
	Type   string     `json:"type"`
	Size   string     `json:"size,omitempty"`
	Weight string     `json:"weight,omitempty"`
	Text   string     `json:"text,omitempty"`
	Wrap   bool       `json:"wrap,omitempty"`
	Facts  []CardFact `json:"facts,omitempty"`
}

type CardFact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type CardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// BuildAdaptiveCard renders c as a title, a message and a fact set.
func BuildAdaptiveCard(c Card) AdaptiveCard {
	return AdaptiveCard{
		Type: "AdaptiveCard",
		Body: []CardElement{
			{Type: "TextBlock", Size: "Medium", Weight: "Bolder", Text: c.Title},
			{Type: "TextBlock", Text: c.Message, Wrap: true},
			{Type: "FactSet", Facts: []CardFact{
				{Title: "User:", Value: c.User},
				{Title: "Reason:", Value: c.Reason},
				{Title: "Start:", Value: c.Start},
				{Title: "End:", Value: c.End},
			}},
		},
		Actions: []CardAction{
			{Type: "Action.OpenUrl", Title: "View Request", URL: c.Link},
		},
		Schema:  adaptiveCardSchema,
		Version: adaptiveCardVersion,
	}
}

// =============================================================================
// WEBHOOK CLIENT
// =============================================================================

// TeamsWebhook posts cards to an incoming webhook URL.
type TeamsWebhook struct {
	URL    string
	Client *http.Client
}

func NewTeamsWebhook(url string, timeout time.Duration) *TeamsWebhook {
	return &TeamsWebhook{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

// Send returns an error for transport failures and non-2xx replies.
func (t *TeamsWebhook) Send(ctx context.Context, c Card) error {
	body, err := json.Marshal(BuildAdaptiveCard(c))
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post teams webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("teams webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(text))
	}
	return nil
}
