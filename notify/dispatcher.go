package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	ChannelInApp = "in_app"
	ChannelTeams = "teams"

	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
	StatusSkipped = "skipped"
)

// Options tune the dispatcher. Zero values fall back to defaults.
type Options struct {
	QueueSize    int
	WebhookRPS   float64
	WebhookBurst int
	SendTimeout  time.Duration
	Recorder     Recorder
}

// Dispatcher owns one background goroutine that drains queued events.
type Dispatcher struct {
	inbox    Inbox
	webhook  Sender
	logger   zerolog.Logger
	recorder Recorder
	limiter  *rate.Limiter
	timeout  time.Duration

	queue   chan Event
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	stopped bool

	newID func() string
	now   func() time.Time
}

// NewDispatcher creates a dispatcher. webhook may be nil to disable Teams.
func NewDispatcher(inbox Inbox, webhook Sender, logger zerolog.Logger, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.WebhookRPS <= 0 {
		opts.WebhookRPS = 2
	}
	if opts.WebhookBurst <= 0 {
		opts.WebhookBurst = 5
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		inbox:    inbox,
		webhook:  webhook,
		logger:   logger.With().Str("component", "notify").Logger(),
		recorder: opts.Recorder,
		limiter:  rate.NewLimiter(rate.Limit(opts.WebhookRPS), opts.WebhookBurst),
		timeout:  opts.SendTimeout,
		queue:    make(chan Event, opts.QueueSize),
		stop:     make(chan struct{}),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Start begins the delivery loop.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running || d.stopped {
		return
	}
	d.running = true
	d.wg.Add(1)
	go d.run()

	d.logger.Info().Int("queue_size", cap(d.queue)).Bool("teams", d.webhook != nil).Msg("dispatcher started")
}

// Stop signals the loop and waits for it to drain queued events or for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	running := d.running
	close(d.stop)
	d.mu.Unlock()

	if !running {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher stop: %w", ctx.Err())
	}
}

// Notify enqueues e without blocking. A full or stopped queue drops the event.
func (d *Dispatcher) Notify(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.record(ChannelInApp, StatusDropped)
		d.logger.Warn().Str("title", e.Title).Msg("dispatcher stopped, dropping event")
		return
	}

	select {
	case d.queue <- e:
	default:
		d.record(ChannelInApp, StatusDropped)
		d.logger.Warn().Str("title", e.Title).Msg("notification queue full, dropping event")
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case e := <-d.queue:
			d.deliverLogged(e)
		case <-d.stop:
			for {
				select {
				case e := <-d.queue:
					d.deliverLogged(e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliverLogged(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.Deliver(ctx, e); err != nil {
		d.logger.Error().Err(err).Str("title", e.Title).Msg("notification delivery failed")
	}
}

// Deliver performs one fan-out synchronously. Both channels are attempted even
// if the first fails.
func (d *Dispatcher) Deliver(ctx context.Context, e Event) error {
	var firstErr error

	if err := d.deliverInApp(ctx, e); err != nil {
		d.record(ChannelInApp, StatusFailed)
		firstErr = err
	}

	if e.Card != nil {
		if err := d.deliverCard(ctx, *e.Card); err != nil {
			d.record(ChannelTeams, StatusFailed)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (d *Dispatcher) deliverInApp(ctx context.Context, e Event) error {
	recipients, err := d.resolve(ctx, e.To)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	now := d.now().UTC()
	notes := make([]Notification, 0, len(recipients))
	for _, userID := range recipients {
		notes = append(notes, Notification{
			ID:        d.newID(),
			UserID:    userID,
			Title:     e.Title,
			Message:   e.Message,
			Link:      e.Link,
			CreatedAt: now,
		})
	}
	if err := d.inbox.SaveNotifications(ctx, notes); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	d.record(ChannelInApp, StatusSent)
	return nil
}

func (d *Dispatcher) deliverCard(ctx context.Context, card Card) error {
	if d.webhook == nil {
		d.record(ChannelTeams, StatusSkipped)
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("teams rate limit: %w", err)
	}
	if err := d.webhook.Send(ctx, card); err != nil {
		return err
	}
	d.record(ChannelTeams, StatusSent)
	d.logger.Debug().Str("title", card.Title).Msg("teams notification sent")
	return nil
}

func (d *Dispatcher) resolve(ctx context.Context, a Audience) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || id == a.Except || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, id := range a.UserIDs {
		add(id)
	}
	if a.Managers {
		managers, err := d.inbox.ManagerIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load managers: %w", err)
		}
		for _, id := range managers {
			add(id)
		}
	}
	return ids, nil
}

func (d *Dispatcher) record(channel, status string) {
	if d.recorder != nil {
		d.recorder.NotificationResult(channel, status)
	}
}
