package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/pto-tracker/export"
	"github.com/warp/pto-tracker/timeoff"
)

// ExportExcel streams an .xlsx report of requests overlapping [startDate, endDate].
func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("startDate") == "" || q.Get("endDate") == "" {
		h.HandleError(w, r, fmt.Errorf("%w: start and end dates are required", timeoff.ErrInvalidInput))
		return
	}
	window, err := parseWindow(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	ctx := r.Context()
	reqs, err := h.Service.List(ctx, principalFrom(r), timeoff.ListQuery{Calendar: true, Window: &window})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	users, err := h.Service.Directory(ctx)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, export.BuildRows(reqs, users)); err != nil {
		h.HandleError(w, r, fmt.Errorf("generate report: %w", err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(window)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
