// Package export renders leave requests into an Excel workbook for managers.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/warp/pto-tracker/generic"
	"github.com/warp/pto-tracker/timeoff"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Time Off Report"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	header string
	width  float64
}

var columns = []column{
	{"Employee Name", 25},
	{"Email", 30},
	{"Role", 15},
	{"Leave Type", 25},
	{"Start Date", 15},
	{"End Date", 15},
	{"Status", 15},
	{"Approved By", 20},
	{"Notes", 40},
}

// Row is one line of the report.
type Row struct {
	Name       string
	Email      string
	Role       string
	LeaveType  string
	Start      string
	End        string
	Status     string
	ApprovedBy string
	Notes      string
}

func (r Row) values() []interface{} {
	return []interface{}{r.Name, r.Email, r.Role, r.LeaveType, r.Start, r.End, r.Status, r.ApprovedBy, r.Notes}
}

// Filename is the attachment name for a report over window.
func Filename(window generic.Period) string {
	return fmt.Sprintf("PTO_Report_%s_to_%s.xlsx", window.Start, window.End)
}

// BuildRows joins requests with their owners and approvers, ordered by start date.
// Requests whose owner is missing from users are skipped.
func BuildRows(requests []timeoff.Request, users map[string]timeoff.User) []Row {
	sorted := make([]timeoff.Request, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	rows := make([]Row, 0, len(sorted))
	for _, r := range sorted {
		owner, ok := users[r.OwnerID]
		if !ok {
			continue
		}
		approver := "-"
		if a, ok := users[r.ApproverID]; ok && r.ApproverID != "" {
			approver = a.Name
		}
		rows = append(rows, Row{
			Name:       owner.Name,
			Email:      owner.Email,
			Role:       string(owner.Role),
			LeaveType:  strings.ReplaceAll(string(r.Reason), "_", " "),
			Start:      r.Start.String(),
			End:        r.End.String(),
			Status:     string(r.Status),
			ApprovedBy: approver,
			Notes:      r.Notes,
		})
	}
	return rows
}

// Workbook wraps an excelize file holding a single report sheet.
type Workbook struct {
	file *excelize.File
	row  int
}

// NewWorkbook creates the report sheet with its styled header row.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	wb := &Workbook{file: f, row: 1}
	headers := make([]interface{}, len(columns))
	for i, c := range columns {
		headers[i] = c.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, c.width); err != nil {
			f.Close()
			return nil, fmt.Errorf("set width %s: %w", name, err)
		}
	}
	if err := wb.writeRow(headers); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", end, style)
	}
	return wb, nil
}

// Append writes rows below the last written row.
func (wb *Workbook) Append(rows []Row) error {
	for _, r := range rows {
		if err := wb.writeRow(r.values()); err != nil {
			return err
		}
	}
	return nil
}

func (wb *Workbook) writeRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, wb.row)
	if err != nil {
		return err
	}
	if err := wb.file.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", wb.row, err)
	}
	wb.row++
	return nil
}

// Write serializes the workbook.
func (wb *Workbook) Write(w io.Writer) error {
	return wb.file.Write(w)
}

func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// WriteReport is the one-shot form used by the HTTP handler.
func WriteReport(w io.Writer, rows []Row) error {
	wb, err := NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.Append(rows); err != nil {
		return err
	}
	return wb.Write(w)
}
