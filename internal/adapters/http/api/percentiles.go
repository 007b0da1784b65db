package api

import (
	"context"
	"net/http"

	"github.com/okian/trackrank/internal/domain/percentile"
)

// PercentileDependencies defines the interface for percentile tables.
type PercentileDependencies interface {
	Percentiles(ctx context.Context, req percentile.Request) (*percentile.Table, error)
	PercentileOptions(ctx context.Context) (percentile.Options, error)
}

// PercentileHandler serves percentile tables and their filter options.
type PercentileHandler struct {
	deps PercentileDependencies
}

// NewPercentileHandler creates a new percentile handler.
func NewPercentileHandler(deps PercentileDependencies) *PercentileHandler {
	return &PercentileHandler{deps: deps}
}

// HandlePercentiles handles GET /percentiles. Every filter is a
// multi-value parameter: events, genders, percentiles, years, meet_types
// and grade_levels.
func (h *PercentileHandler) HandlePercentiles(w http.ResponseWriter, r *http.Request) {
	req, err := percentileRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	table, err := h.deps.Percentiles(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// HandleOptions handles GET /percentiles/options.
func (h *PercentileHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.deps.PercentileOptions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func percentileRequest(r *http.Request) (percentile.Request, error) {
	req := percentile.Request{
		Events:      listParam(r, "events"),
		GradeLevels: listParam(r, "grade_levels"),
	}
	var err error
	if req.Genders, err = genderList(r, "genders"); err != nil {
		return req, err
	}
	if req.Percentiles, err = floatList(r, "percentiles"); err != nil {
		return req, err
	}
	if req.Years, err = intList(r, "years"); err != nil {
		return req, err
	}
	req.MeetTypes = meetTypeList(r, "meet_types")
	return req, nil
}
