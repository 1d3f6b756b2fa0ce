/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists users, leave requests and in-app notifications. Work-remote
  consumption is never stored; only the allowance lives on the user row.

INTERFACES IMPLEMENTED:
  timeoff.Store:  Users, balances and requests
  notify.Inbox:   Notification writes and manager lookup
  notify.Feed:    Notification reads and read-marking

KEY TABLES:
  users:          Accounts, role, team, work-remote allowance (decimal text)
  requests:       Leave requests, dates stored as YYYY-MM-DD
  notifications:  In-app messages, newest first

INDEXES:
  - idx_requests_user_dates: Owner lookups during admission (hot path)
  - idx_requests_dates: Calendar and export window queries
  - idx_notifications_user_created: Notification feed

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Admission is read-then-write at the
  service layer; the mutex only serializes individual statements.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/pto.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - timeoff/service.go: Store interface definition
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
	"github.com/warp/pto-tracker/timeoff"
)

// Timestamps are fixed-width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ timeoff.Store = (*Store)(nil)
	_ notify.Inbox  = (*Store)(nil)
	_ notify.Feed   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		team TEXT,
		avatar_color TEXT NOT NULL DEFAULT '',
		work_remote_balance TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		reason TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		approved_by TEXT,
		approval_note TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user_dates
		ON requests(user_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_requests_dates
		ON requests(start_date, end_date);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		link TEXT,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user_created
		ON notifications(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all tables (demo scenarios only).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"notifications", "requests", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

const userColumns = `id, name, email, password_hash, role, team, avatar_color, work_remote_balance, created_at`

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u timeoff.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			password_hash = excluded.password_hash,
			role = excluded.role,
			team = excluded.team,
			avatar_color = excluded.avatar_color,
			work_remote_balance = excluded.work_remote_balance
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), nullString(u.Team),
		u.AvatarColor, u.WorkRemoteBalance.Value.String(), formatTimestamp(u.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicate
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID. Returns nil, nil when missing.
func (s *Store) GetUser(ctx context.Context, id string) (*timeoff.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUserRow(row)
}

// GetUserByEmail looks up a user by lowercase email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*timeoff.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUserRow(row)
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]timeoff.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []timeoff.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// DeleteUser removes a user; requests and notifications cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

func (s *Store) SetBalance(ctx context.Context, userID string, allowance generic.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET work_remote_balance = ? WHERE id = ?",
		allowance.Value.String(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &generic.NotFoundError{Kind: "user", ID: userID}
	}
	return nil
}

func (s *Store) SetAllBalances(ctx context.Context, allowance generic.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "UPDATE users SET work_remote_balance = ?", allowance.Value.String())
	return err
}

// ManagerIDs returns every manager's id.
func (s *Store) ManagerIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM users WHERE role = ? ORDER BY id", string(auth.RoleManager))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row *sql.Row) (*timeoff.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUser(row rowScanner) (timeoff.User, error) {
	var u timeoff.User
	var role, balance, createdAt string
	var team sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &team,
		&u.AvatarColor, &balance, &createdAt); err != nil {
		return timeoff.User{}, err
	}
	u.Role = auth.Role(role)
	u.Team = team.String
	amount, err := generic.ParseAmount(balance, generic.UnitDays)
	if err != nil {
		return timeoff.User{}, fmt.Errorf("user %s: bad balance %q: %w", u.ID, balance, err)
	}
	u.WorkRemoteBalance = amount
	u.CreatedAt = parseTimestamp(createdAt)
	return u, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, user_id, reason, start_date, end_date, notes, status,
	approved_by, approval_note, created_at, updated_at`

// SaveRequest inserts or updates a request.
func (s *Store) SaveRequest(ctx context.Context, r timeoff.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reason = excluded.reason,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			notes = excluded.notes,
			status = excluded.status,
			approved_by = excluded.approved_by,
			approval_note = excluded.approval_note,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.OwnerID, string(r.Reason), r.Start.String(), r.End.String(), r.Notes,
		string(r.Status), nullString(r.ApproverID), nullString(r.ApprovalNote),
		formatTimestamp(r.CreatedAt), formatTimestamp(r.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return &generic.NotFoundError{Kind: "user", ID: r.OwnerID}
		}
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// GetRequest retrieves a request by ID. Returns nil, nil when missing.
func (s *Store) GetRequest(ctx context.Context, id string) (*timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM requests WHERE id = ?", id)
	return err
}

// ListRequests returns matching requests, newest first.
func (s *Store) ListRequests(ctx context.Context, f timeoff.RequestFilter) ([]timeoff.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.OwnerID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Window != nil {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, f.Window.End.String(), f.Window.Start.String())
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []timeoff.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (timeoff.Request, error) {
	var r timeoff.Request
	var reason, start, end, status, createdAt, updatedAt string
	var approvedBy, approvalNote sql.NullString
	if err := row.Scan(&r.ID, &r.OwnerID, &reason, &start, &end, &r.Notes, &status,
		&approvedBy, &approvalNote, &createdAt, &updatedAt); err != nil {
		return timeoff.Request{}, err
	}

	var err error
	if r.Start, err = generic.ParseDate(start); err != nil {
		return timeoff.Request{}, fmt.Errorf("request %s: %w", r.ID, err)
	}
	if r.End, err = generic.ParseDate(end); err != nil {
		return timeoff.Request{}, fmt.Errorf("request %s: %w", r.ID, err)
	}
	r.Reason = timeoff.Reason(reason)
	r.Status = timeoff.Status(status)
	r.ApproverID = approvedBy.String
	r.ApprovalNote = approvalNote.String
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return r, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// SaveNotifications inserts a batch atomically.
func (s *Store) SaveNotifications(ctx context.Context, notes []notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, link, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range notes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.UserID, n.Title, n.Message,
			nullString(n.Link), n.Read, formatTimestamp(n.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}
	return tx.Commit()
}

// ListNotifications returns the newest limit notifications for a user.
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]notify.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, link, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []notify.Notification
	for rows.Next() {
		var n notify.Notification
		var link sql.NullString
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &link, &n.Read, &createdAt); err != nil {
			return nil, err
		}
		n.Link = link.String
		n.CreatedAt = parseTimestamp(createdAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks ids as read, or every unread notification when ids is nil.
func (s *Store) MarkRead(ctx context.Context, userID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids == nil {
		_, err := s.db.ExecContext(ctx,
			"UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0", userID)
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE user_id = ? AND id IN ("+placeholders+")", args...)
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
