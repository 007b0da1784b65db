package api

import (
	"context"
	"fmt"
	"net/http"

	service "github.com/okian/trackrank/internal/app"
	"github.com/okian/trackrank/internal/domain/model"
)

// AthleteDependencies defines the interface for athlete scoped reads.
type AthleteDependencies interface {
	ResultRankings(ctx context.Context, athleteID, meetID int64, event string, kind model.Kind) (*service.ResultRankings, error)
	Dashboard(ctx context.Context, athleteID int64) (*service.Dashboard, error)
	Dashboards(ctx context.Context, ids []int64) ([]service.BatchItem, error)
}

// AthleteHandler handles dashboard and result ranking requests.
type AthleteHandler struct {
	deps AthleteDependencies
}

// NewAthleteHandler creates a new athlete handler.
func NewAthleteHandler(deps AthleteDependencies) *AthleteHandler {
	return &AthleteHandler{deps: deps}
}

// HandleDashboard handles GET /athletes/{id}/dashboard requests.
func (h *AthleteHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"), "athlete id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.Dashboard(r.Context(), id)
	respond(w, out, err)
}

// HandleResultRankings handles
// GET /athletes/{id}/result-rankings?meet_id=&event=&result_type= requests.
func (h *AthleteHandler) HandleResultRankings(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"), "athlete id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	meet, err := requiredParam(r, "meet_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	meetID, err := parseID(meet, "meet_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	event, err := requiredParam(r, "event")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	kind, err := kindParam(r, "result_type")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.ResultRankings(r.Context(), id, meetID, event, kind)
	respond(w, out, err)
}

type batchResponse struct {
	Items []service.BatchItem `json:"items"`
}

// HandleDashboards handles GET /dashboards?ids=1,2,3 requests.
func (h *AthleteHandler) HandleDashboards(w http.ResponseWriter, r *http.Request) {
	raw := listParam(r, "ids")
	if len(raw) == 0 {
		writeServiceError(w, fmt.Errorf("missing ids: %w", ErrBadRequest))
		return
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := parseID(v, "athlete id")
		if err != nil {
			writeServiceError(w, err)
			return
		}
		ids = append(ids, id)
	}
	items, err := h.deps.Dashboards(r.Context(), ids)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Items: items})
}
