/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Accounts:
    SignupRequest, LoginRequest, LoginResponse, UserDTO, ProfileUpdateRequest

  Team:
    TeamBalanceDTO, SetBalanceRequest, MemberUpdateRequest

  Requests:
    DraftRequest, UpdateRequest, RequestDTO

  Notifications:
    NotificationDTO, MarkReadRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

BALANCES:
  Balances are decimals internally and float64 on the wire. Every value is a
  multiple of 0.5 so the conversion is exact.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/notify"
	"github.com/warp/pto-tracker/timeoff"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	Team              *string   `json:"team"`
	AvatarColor       string    `json:"avatarColor"`
	WorkRemoteBalance float64   `json:"workRemoteBalance"`
	CreatedAt         time.Time `json:"createdAt"`
}

// optionalString distinguishes an absent field from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ProfileUpdateRequest: "team": null clears the team, an absent team leaves it.
type ProfileUpdateRequest struct {
	Name *string        `json:"name"`
	Team optionalString `json:"team"`
}

func (p ProfileUpdateRequest) toUpdate() timeoff.ProfileUpdate {
	upd := timeoff.ProfileUpdate{Name: p.Name}
	if p.Team.Set {
		team := ""
		if p.Team.Value != nil {
			team = *p.Team.Value
		}
		upd.Team = &team
	}
	return upd
}

// =============================================================================
// TEAM
// =============================================================================

type TeamBalanceDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Role              string  `json:"role"`
	Team              *string `json:"team"`
	AvatarColor       string  `json:"avatarColor"`
	WorkRemoteBalance float64 `json:"workRemoteBalance"`
	UsedDays          float64 `json:"usedDays"`
	Remaining         float64 `json:"remaining"`
}

type SetBalanceRequest struct {
	UserID  string           `json:"userId"`
	Balance *decimal.Decimal `json:"balance"`
	SetAll  bool             `json:"setAll"`
}

type MemberUpdateRequest struct {
	Role        string `json:"role"`
	NewPassword string `json:"newPassword"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// DraftRequest is the body for creating or editing a request.
type DraftRequest struct {
	Reason    string `json:"reason"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Notes     string `json:"notes"`
}

// toDraft parses dates; empty strings stay zero so admission reports them missing.
func (d DraftRequest) toDraft() (timeoff.Draft, error) {
	draft := timeoff.Draft{Reason: timeoff.Reason(d.Reason), Notes: d.Notes}
	if d.StartDate != "" {
		start, err := generic.ParseDate(d.StartDate)
		if err != nil {
			return timeoff.Draft{}, fmt.Errorf("%w: startDate %q is not a date", timeoff.ErrInvalidInput, d.StartDate)
		}
		draft.Start = start.Time
	}
	if d.EndDate != "" {
		end, err := generic.ParseDate(d.EndDate)
		if err != nil {
			return timeoff.Draft{}, fmt.Errorf("%w: endDate %q is not a date", timeoff.ErrInvalidInput, d.EndDate)
		}
		draft.End = end.Time
	}
	return draft, nil
}

// UpdateRequest is a manager decision when Status is set, otherwise an owner edit.
type UpdateRequest struct {
	DraftRequest
	Status       string `json:"status"`
	ApprovalNote string `json:"approvalNote"`
}

type RequestOwnerDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarColor string `json:"avatarColor"`
}

type ApproverDTO struct {
	Name string `json:"name"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	Reason       string           `json:"reason"`
	StartDate    string           `json:"startDate"`
	EndDate      string           `json:"endDate"`
	Notes        string           `json:"notes"`
	Status       string           `json:"status"`
	ApprovedByID *string          `json:"approvedById"`
	ApprovalNote *string          `json:"approvalNote"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	User         *RequestOwnerDTO `json:"user,omitempty"`
	Approver     *ApproverDTO     `json:"approver"`
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

type NotificationDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Link      *string   `json:"link"`
	CreatedAt time.Time `json:"createdAt"`
}

// MarkReadRequest: absent ids marks everything read.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toUserDTO(u timeoff.User) UserDTO {
	return UserDTO{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              string(u.Role),
		Team:              optional(u.Team),
		AvatarColor:       u.AvatarColor,
		WorkRemoteBalance: u.WorkRemoteBalance.Float64(),
		CreatedAt:         u.CreatedAt,
	}
}

func toTeamBalanceDTO(mb timeoff.MemberBalance) TeamBalanceDTO {
	return TeamBalanceDTO{
		ID:                mb.User.ID,
		Name:              mb.User.Name,
		Email:             mb.User.Email,
		Role:              string(mb.User.Role),
		Team:              optional(mb.User.Team),
		AvatarColor:       mb.User.AvatarColor,
		WorkRemoteBalance: mb.Balance.Allowance.Float64(),
		UsedDays:          mb.Balance.Consumed.Float64(),
		Remaining:         mb.Balance.Remaining.Float64(),
	}
}

// toRequestDTO decorates r with owner and approver names from users (may be nil).
func toRequestDTO(r timeoff.Request, users map[string]timeoff.User) RequestDTO {
	dto := RequestDTO{
		ID:           r.ID,
		UserID:       r.OwnerID,
		Reason:       string(r.Reason),
		StartDate:    r.Start.String(),
		EndDate:      r.End.String(),
		Notes:        r.Notes,
		Status:       string(r.Status),
		ApprovedByID: optional(r.ApproverID),
		ApprovalNote: optional(r.ApprovalNote),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if owner, ok := users[r.OwnerID]; ok {
		dto.User = &RequestOwnerDTO{ID: owner.ID, Name: owner.Name, Email: owner.Email, AvatarColor: owner.AvatarColor}
	}
	if approver, ok := users[r.ApproverID]; ok && r.ApproverID != "" {
		dto.Approver = &ApproverDTO{Name: approver.Name}
	}
	return dto
}

func toRequestDTOs(reqs []timeoff.Request, users map[string]timeoff.User) []RequestDTO {
	out := make([]RequestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestDTO(r, users))
	}
	return out
}

func toNotificationDTOs(notes []notify.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, NotificationDTO{
			ID:        n.ID,
			UserID:    n.UserID,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			Link:      optional(n.Link),
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
