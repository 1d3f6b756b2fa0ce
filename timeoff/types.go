// Package timeoff implements PTO and work-remote requests: the leave taxonomy,
// conflict detection, work-remote balance accounting and request admission.
package timeoff

import (
	"strings"
	"time"

	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/generic"
)

// =============================================================================
// LEAVE TAXONOMY
// =============================================================================

// Reason is the leave type code stored on every request.
type Reason string

const (
	ReasonWorkRemote           Reason = "WORK_REMOTE"
	ReasonFirstHalfWorkRemote  Reason = "FIRST_HALF_WORK_REMOTE"
	ReasonSecondHalfWorkRemote Reason = "SECOND_HALF_WORK_REMOTE"
	ReasonPTO                  Reason = "PTO"
	ReasonFirstHalfPTO         Reason = "FIRST_HALF_PTO"
	ReasonSecondHalfPTO        Reason = "SECOND_HALF_PTO"
)

type DayType string

const (
	FullDay DayType = "FULL_DAY"
	HalfDay DayType = "HALF_DAY"
)

// HalfSlot is set only for half-day reasons.
type HalfSlot string

const (
	SlotNone   HalfSlot = ""
	SlotFirst  HalfSlot = "FIRST"
	SlotSecond HalfSlot = "SECOND"
)

// ReasonInfo is the derived classification of a Reason.
type ReasonInfo struct {
	Reason     Reason
	DayType    DayType
	Slot       HalfSlot
	WorkRemote bool
	Label      string
}

func (ri ReasonInfo) IsHalfDay() bool { return ri.DayType == HalfDay }

var reasonTable = map[Reason]ReasonInfo{
	ReasonWorkRemote:           {ReasonWorkRemote, FullDay, SlotNone, true, "Work Remote"},
	ReasonFirstHalfWorkRemote:  {ReasonFirstHalfWorkRemote, HalfDay, SlotFirst, true, "1st Half WFH"},
	ReasonSecondHalfWorkRemote: {ReasonSecondHalfWorkRemote, HalfDay, SlotSecond, true, "2nd Half WFH"},
	ReasonPTO:                  {ReasonPTO, FullDay, SlotNone, false, "PTO"},
	ReasonFirstHalfPTO:         {ReasonFirstHalfPTO, HalfDay, SlotFirst, false, "First Half PTO"},
	ReasonSecondHalfPTO:        {ReasonSecondHalfPTO, HalfDay, SlotSecond, false, "Second Half PTO"},
}

// Reasons lists every known reason in display order.
func Reasons() []Reason {
	return []Reason{
		ReasonWorkRemote, ReasonFirstHalfWorkRemote, ReasonSecondHalfWorkRemote,
		ReasonPTO, ReasonFirstHalfPTO, ReasonSecondHalfPTO,
	}
}

// LookupReason classifies a reason code. Unknown codes are rejected.
func LookupReason(r Reason) (ReasonInfo, error) {
	info, ok := reasonTable[r]
	if !ok {
		return ReasonInfo{}, &UnknownReasonError{Code: string(r)}
	}
	return info, nil
}

// Phrase renders the code for sentences: "FIRST_HALF_PTO" becomes "first half pto".
func (r Reason) Phrase() string {
	return strings.ToLower(strings.ReplaceAll(string(r), "_", " "))
}

// =============================================================================
// REQUESTS
// =============================================================================

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Request is a stored leave request. Start and End are inclusive calendar days.
type Request struct {
	ID           string
	OwnerID      string
	Reason       Reason
	Start        generic.TimePoint
	End          generic.TimePoint
	Notes        string
	Status       Status
	ApproverID   string
	ApprovalNote string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r Request) Period() generic.Period {
	return generic.Period{Start: r.Start, End: r.End}
}

// =============================================================================
// USERS
// =============================================================================

// Teams a user may belong to.
var Teams = []string{
	"DBC",
	"Technical Architecture",
	"SPW",
	"Surepods",
	"Div-7",
	"Virtual Mockup",
}

func ValidTeam(team string) bool {
	for _, t := range Teams {
		if t == team {
			return true
		}
	}
	return false
}

// User is a team member. WorkRemoteBalance is the allowance; consumption is
// always derived from requests.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              auth.Role
	Team              string
	AvatarColor       string
	WorkRemoteBalance generic.Amount
	CreatedAt         time.Time
}

func (u User) Principal() auth.Principal {
	return auth.Principal{ID: u.ID, Name: u.Name, Role: u.Role}
}
