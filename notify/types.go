/*
Package notify delivers in-app notifications and Microsoft Teams cards.

PURPOSE:
  Request changes fan out to managers and owners. Delivery is fire-and-forget:
  callers enqueue an Event and return; failures are logged and counted, never
  surfaced to the operation that triggered them.

CHANNELS:
  in_app:  Notification rows written through an Inbox (the store)
  teams:   Adaptive Card POSTed to an incoming webhook (optional)

SEE ALSO:
  - dispatcher.go: Background queue and delivery
  - teams.go: Adaptive Card payload and webhook client
  - timeoff/service.go: Emits events
*/
package notify

import (
	"context"
	"time"
)

// Notification is one in-app message for one user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
}

// Audience selects recipients. Managers expands to every manager at delivery
// time; Except removes one user (usually the actor) from the final set.
type Audience struct {
	UserIDs  []string
	Managers bool
	Except   string
}

// Card is the data rendered into a Teams Adaptive Card.
type Card struct {
	Title   string
	Message string
	User    string
	Reason  string
	Start   string
	End     string
	Link    string
}

// Event is a single fan-out.
type Event struct {
	To      Audience
	Title   string
	Message string
	Link    string
	Card    *Card
}

// Inbox persists in-app notifications and resolves the manager audience.
type Inbox interface {
	SaveNotifications(ctx context.Context, notes []Notification) error
	ManagerIDs(ctx context.Context) ([]string, error)
}

// Feed reads and acknowledges a user's in-app notifications.
type Feed interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID string, ids []string) error
}

// Sender pushes a card to an external channel.
type Sender interface {
	Send(ctx context.Context, card Card) error
}

// Recorder receives delivery outcomes for metrics.
type Recorder interface {
	NotificationResult(channel, status string)
}

// Notifier is what producers depend on.
type Notifier interface {
	Notify(e Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(Event) {}
