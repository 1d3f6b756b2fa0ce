package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pto-tracker/auth"
	"github.com/warp/pto-tracker/export"
	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/timeoff"
	"github.com/xuri/excelize/v2"
)

func date(day int) generic.TimePoint {
	return generic.NewTimePoint(2024, time.March, day)
}

func fixtures() ([]timeoff.Request, map[string]timeoff.User) {
	users := map[string]timeoff.User{
		"emp-1": {ID: "emp-1", Name: "Ada", Email: "ada@example.com", Role: auth.RoleUser},
		"mgr-1": {ID: "mgr-1", Name: "Grace", Email: "grace@example.com", Role: auth.RoleManager},
	}
	reqs := []timeoff.Request{
		{ID: "r2", OwnerID: "emp-1", Reason: timeoff.ReasonFirstHalfWorkRemote, Start: date(8), End: date(8),
			Status: timeoff.StatusPending, Notes: "plumber"},
		{ID: "r1", OwnerID: "emp-1", Reason: timeoff.ReasonPTO, Start: date(4), End: date(5),
			Status: timeoff.StatusApproved, ApproverID: "mgr-1", Notes: "trip"},
		{ID: "r3", OwnerID: "gone", Reason: timeoff.ReasonPTO, Start: date(1), End: date(1)},
	}
	return reqs, users
}

func TestBuildRows(t *testing.T) {
	reqs, users := fixtures()

	rows := export.BuildRows(reqs, users)

	require.Len(t, rows, 2)
	assert.Equal(t, export.Row{
		Name: "Ada", Email: "ada@example.com", Role: "USER", LeaveType: "PTO",
		Start: "2024-03-04", End: "2024-03-05", Status: "APPROVED", ApprovedBy: "Grace", Notes: "trip",
	}, rows[0])
	assert.Equal(t, "FIRST HALF WORK REMOTE", rows[1].LeaveType)
	assert.Equal(t, "-", rows[1].ApprovedBy)
}

func TestWriteReport(t *testing.T) {
	reqs, users := fixtures()
	var buf bytes.Buffer

	require.NoError(t, export.WriteReport(&buf, export.BuildRows(reqs, users)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Employee Name", "Email", "Role", "Leave Type", "Start Date",
		"End Date", "Status", "Approved By", "Notes",
	}, rows[0])
	assert.Equal(t, "Ada", rows[1][0])
	assert.Equal(t, "plumber", rows[2][8])
}

func TestFilename(t *testing.T) {
	window := generic.Period{Start: date(1), End: date(31)}
	assert.Equal(t, "PTO_Report_2024-03-01_to_2024-03-31.xlsx", export.Filename(window))
}
