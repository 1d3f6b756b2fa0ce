// Package memory provides an in-memory store for tests and local demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
	"github.com/warp/pto-tracker/timeoff"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	users         map[string]timeoff.User
	requests      map[string]timeoff.Request
	notifications []notify.Notification
}

var (
	_ timeoff.Store = (*Memory)(nil)
	_ notify.Inbox  = (*Memory)(nil)
	_ notify.Feed   = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{
		users:    make(map[string]timeoff.User),
		requests: make(map[string]timeoff.Request),
	}
}

// Reset drops all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]timeoff.User)
	m.requests = make(map[string]timeoff.Request)
	m.notifications = nil
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) GetUser(_ context.Context, id string) (*timeoff.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*timeoff.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]timeoff.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]timeoff.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CountUsers(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *Memory) SaveUser(_ context.Context, u timeoff.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.users {
		if id != u.ID && other.Email == u.Email {
			return generic.ErrDuplicate
		}
	}
	m.users[u.ID] = u
	return nil
}

// DeleteUser cascades to the user's requests and notifications.
func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for rid, r := range m.requests {
		if r.OwnerID == id {
			delete(m.requests, rid)
		}
	}
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.UserID != id {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	return nil
}

func (m *Memory) SetBalance(_ context.Context, userID string, allowance generic.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return &generic.NotFoundError{Kind: "user", ID: userID}
	}
	u.WorkRemoteBalance = allowance
	m.users[userID] = u
	return nil
}

func (m *Memory) SetAllBalances(_ context.Context, allowance generic.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		u.WorkRemoteBalance = allowance
		m.users[id] = u
	}
	return nil
}

func (m *Memory) ManagerIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, u := range m.users {
		if u.Role == auth.RoleManager {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) SaveRequest(_ context.Context, r timeoff.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[r.OwnerID]; !ok {
		return &generic.NotFoundError{Kind: "user", ID: r.OwnerID}
	}
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*timeoff.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, id)
	return nil
}

// ListRequests returns matches newest first.
func (m *Memory) ListRequests(_ context.Context, f timeoff.RequestFilter) ([]timeoff.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []timeoff.Request
	for _, r := range m.requests {
		if f.OwnerID != "" && r.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Window != nil && !r.Period().Overlaps(*f.Window) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (m *Memory) SaveNotifications(_ context.Context, notes []notify.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notes...)
	return nil
}

func (m *Memory) ListNotifications(_ context.Context, userID string, limit int) ([]notify.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []notify.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID != userID {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkRead marks ids (or every unread one when ids is nil) as read for userID.
func (m *Memory) MarkRead(_ context.Context, userID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if ids == nil || want[n.ID] {
			m.notifications[i].Read = true
		}
	}
	return nil
}
