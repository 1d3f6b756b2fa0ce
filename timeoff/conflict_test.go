package timeoff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pto-tracker/timeoff"
)

func TestLookupReason_Taxonomy(t *testing.T) {
	tests := []struct {
		reason     timeoff.Reason
		dayType    timeoff.DayType
		slot       timeoff.HalfSlot
		workRemote bool
		label      string
	}{
		{timeoff.ReasonWorkRemote, timeoff.FullDay, timeoff.SlotNone, true, "Work Remote"},
		{timeoff.ReasonFirstHalfWorkRemote, timeoff.HalfDay, timeoff.SlotFirst, true, "1st Half WFH"},
		{timeoff.ReasonSecondHalfWorkRemote, timeoff.HalfDay, timeoff.SlotSecond, true, "2nd Half WFH"},
		{timeoff.ReasonPTO, timeoff.FullDay, timeoff.SlotNone, false, "PTO"},
		{timeoff.ReasonFirstHalfPTO, timeoff.HalfDay, timeoff.SlotFirst, false, "First Half PTO"},
		{timeoff.ReasonSecondHalfPTO, timeoff.HalfDay, timeoff.SlotSecond, false, "Second Half PTO"},
	}

	require.Len(t, timeoff.Reasons(), len(tests))
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			info, err := timeoff.LookupReason(tt.reason)
			require.NoError(t, err)
			assert.Equal(t, tt.dayType, info.DayType)
			assert.Equal(t, tt.slot, info.Slot)
			assert.Equal(t, tt.workRemote, info.WorkRemote)
			assert.Equal(t, tt.label, info.Label)
		})
	}
}

func TestLookupReason_Unknown(t *testing.T) {
	for _, code := range []timeoff.Reason{"", "pto", "SICK", "HALF_PTO"} {
		_, err := timeoff.LookupReason(code)
		assert.ErrorIs(t, err, timeoff.ErrUnknownReason, "code %q", code)
	}
}

func TestReasonPhrase(t *testing.T) {
	assert.Equal(t, "first half work remote", timeoff.ReasonFirstHalfWorkRemote.Phrase())
	assert.Equal(t, "pto", timeoff.ReasonPTO.Phrase())
}

// =============================================================================
// CONFLICT MATRIX
// =============================================================================

func TestDetectConflict_Matrix(t *testing.T) {
	tests := []struct {
		name      string
		candidate timeoff.Reason
		existing  timeoff.Reason
		conflict  bool
		kind      timeoff.ConflictKind
	}{
		{"full vs full", timeoff.ReasonPTO, timeoff.ReasonWorkRemote, true, timeoff.ConflictHard},
		{"full vs half", timeoff.ReasonWorkRemote, timeoff.ReasonSecondHalfPTO, true, timeoff.ConflictHard},
		{"half vs full", timeoff.ReasonFirstHalfPTO, timeoff.ReasonPTO, true, timeoff.ConflictHard},
		{"same half same code", timeoff.ReasonFirstHalfPTO, timeoff.ReasonFirstHalfPTO, true, timeoff.ConflictSameHalfDuplicate},
		{"same half different code", timeoff.ReasonSecondHalfPTO, timeoff.ReasonSecondHalfWorkRemote, true, timeoff.ConflictHard},
		{"first vs second", timeoff.ReasonFirstHalfWorkRemote, timeoff.ReasonSecondHalfWorkRemote, false, ""},
		{"second vs first", timeoff.ReasonSecondHalfPTO, timeoff.ReasonFirstHalfWorkRemote, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := timeoff.Candidate{Reason: tt.candidate, Start: tp(1), End: tp(1)}
			prior := existing("req-1", tt.existing, 1, 1, timeoff.StatusPending)

			result, err := timeoff.DetectConflict(candidate, []timeoff.Request{prior})

			require.NoError(t, err)
			assert.Equal(t, tt.conflict, result.Conflict)
			assert.Equal(t, tt.kind, result.Kind)
		})
	}
}

func TestDetectConflict_InclusiveEdges(t *testing.T) {
	// GIVEN: A PTO request covering days 0 to 2
	// WHEN: Candidates touching and following it
	// THEN: A shared last day conflicts and the next day is free

	prior := existing("req-1", timeoff.ReasonPTO, 0, 2, timeoff.StatusApproved)

	touching := timeoff.Candidate{Reason: timeoff.ReasonPTO, Start: tp(2), End: tp(3)}
	result, err := timeoff.DetectConflict(touching, []timeoff.Request{prior})
	require.NoError(t, err)
	assert.True(t, result.Conflict, "shared last day overlaps")

	after := timeoff.Candidate{Reason: timeoff.ReasonPTO, Start: tp(3), End: tp(4)}
	result, err = timeoff.DetectConflict(after, []timeoff.Request{prior})
	require.NoError(t, err)
	assert.False(t, result.Conflict)
	assert.NoError(t, result.Err())
}

func TestDetectConflict_ReportsFirstMatch(t *testing.T) {
	// GIVEN: Three requests, two overlapping the candidate
	// WHEN: Detecting conflicts
	// THEN: The first overlapping request in order is reported

	reqs := []timeoff.Request{
		existing("req-a", timeoff.ReasonPTO, 7, 7, timeoff.StatusPending),
		existing("req-b", timeoff.ReasonFirstHalfPTO, 1, 1, timeoff.StatusPending),
		existing("req-c", timeoff.ReasonWorkRemote, 2, 2, timeoff.StatusPending),
	}
	candidate := timeoff.Candidate{Reason: timeoff.ReasonWorkRemote, Start: tp(0), End: tp(4)}

	result, err := timeoff.DetectConflict(candidate, reqs)

	require.NoError(t, err)
	require.True(t, result.Conflict)
	assert.Equal(t, "req-b", result.Against.ID)

	var conflict *timeoff.SchedulingConflictError
	require.ErrorAs(t, result.Err(), &conflict)
	assert.Equal(t, "First Half PTO", conflict.Label)
	assert.True(t, conflict.Start.Equal(tp(1)))
}

func TestActiveRequests(t *testing.T) {
	// GIVEN: Pending, rejected and approved requests
	// WHEN: Filtering active requests excluding one id
	// THEN: Rejected and excluded requests drop out

	reqs := []timeoff.Request{
		existing("req-1", timeoff.ReasonPTO, 0, 0, timeoff.StatusPending),
		existing("req-2", timeoff.ReasonPTO, 1, 1, timeoff.StatusRejected),
		existing("req-3", timeoff.ReasonPTO, 2, 2, timeoff.StatusApproved),
	}

	active := timeoff.ActiveRequests(reqs, "req-3")

	require.Len(t, active, 1)
	assert.Equal(t, "req-1", active[0].ID)
	assert.Len(t, timeoff.ActiveRequests(reqs, ""), 2)
}
