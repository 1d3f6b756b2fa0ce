package timeoff

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
)

// =============================================================================
// MEMBERS - Signup, login, profile and team administration
// =============================================================================

var avatarColors = []string{
	"#6366f1", "#ec4899", "#14b8a6", "#f97316", "#8b5cf6",
	"#06b6d4", "#ef4444", "#22c55e", "#eab308", "#3b82f6",
}

// Signup registers a user. The first account becomes a manager.
func (s *Service) Signup(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return User{}, fmt.Errorf("%w: an account with this email already exists", generic.ErrDuplicate)
	}

	count, err := s.Store.CountUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("count users: %w", err)
	}
	role := auth.RoleUser
	if count == 0 {
		role = auth.RoleManager
	}

	u := User{
		ID:                s.NewID(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		AvatarColor:       avatarColors[rand.Intn(len(avatarColors))],
		WorkRemoteBalance: generic.ZeroDays(),
		CreatedAt:         s.Now().UTC(),
	}
	if err := s.Store.SaveUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	s.Logger.Info().Str("user_id", u.ID).Str("role", string(role)).Msg("user signed up")
	return u, nil
}

// Authenticate checks credentials and returns the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil {
		return User{}, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return User{}, err
	}
	return *u, nil
}

// Profile returns the caller's own record.
func (s *Service) Profile(ctx context.Context, actor auth.Principal) (User, error) {
	u, err := s.requireUser(ctx, actor.ID)
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

// ProfileUpdate carries optional changes. Team set to a pointer to "" clears it.
type ProfileUpdate struct {
	Name *string
	Team *string
}

func (s *Service) UpdateProfile(ctx context.Context, actor auth.Principal, upd ProfileUpdate) (User, error) {
	if upd.Name == nil && upd.Team == nil {
		return User{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	u, err := s.requireUser(ctx, actor.ID)
	if err != nil {
		return User{}, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if len([]rune(name)) < 2 {
			return User{}, fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
		}
		u.Name = name
	}
	if upd.Team != nil {
		if *upd.Team != "" && !ValidTeam(*upd.Team) {
			return User{}, fmt.Errorf("%w: invalid team", ErrInvalidInput)
		}
		u.Team = *upd.Team
	}
	if err := s.Store.SaveUser(ctx, *u); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return *u, nil
}

// MemberUpdate is a manager's change to another user.
type MemberUpdate struct {
	Role        auth.Role
	NewPassword string
}

func (s *Service) UpdateMember(ctx context.Context, actor auth.Principal, id string, upd MemberUpdate) (User, error) {
	if !actor.IsManager() {
		return User{}, ErrForbidden
	}
	u, err := s.requireUser(ctx, id)
	if err != nil {
		return User{}, err
	}

	roleChanged := false
	if upd.Role != "" {
		if !upd.Role.Valid() {
			return User{}, fmt.Errorf("%w: role must be USER or MANAGER", ErrInvalidInput)
		}
		roleChanged = true
		u.Role = upd.Role
	}
	if upd.NewPassword != "" {
		hash, err := auth.HashPassword(upd.NewPassword)
		if err != nil {
			return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		u.PasswordHash = hash
	}
	if err := s.Store.SaveUser(ctx, *u); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}

	if roleChanged {
		s.Notifier.Notify(notify.Event{
			To:      notify.Audience{UserIDs: []string{u.ID}},
			Title:   "Role Updated",
			Message: fmt.Sprintf("Your role has been changed to %s by %s", u.Role, actor.Name),
			Link:    "/team",
		})
	}
	return *u, nil
}

// RemoveMember deletes a user with their requests and notifications.
func (s *Service) RemoveMember(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.IsManager() {
		return ErrForbidden
	}
	if id == actor.ID {
		return fmt.Errorf("%w: cannot remove yourself", ErrInvalidInput)
	}
	if _, err := s.requireUser(ctx, id); err != nil {
		return err
	}
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.Logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("member removed")
	return nil
}

// Directory returns users keyed by id, used to decorate request listings.
func (s *Service) Directory(ctx context.Context) (map[string]User, error) {
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make(map[string]User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
