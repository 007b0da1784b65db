package api

import (
	"context"
	"net/http"

	service "github.com/okian/trackrank/internal/app"
	"github.com/okian/trackrank/internal/domain/projection"
)

// RankDependencies defines the interface for ranking marks that are not
// stored results.
type RankDependencies interface {
	WhereDoIRank(ctx context.Context, req service.WhereDoIRankRequest) (*projection.Projection, error)
	HypotheticalRankings(ctx context.Context, req service.HypotheticalRequest) (*service.HypotheticalRankings, error)
}

// RankHandler handles where-do-I-rank and hypothetical ranking requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleWhereDoIRank handles
// GET /where-do-i-rank?event=&value=&gender=&year=&meet_type= requests.
func (h *RankHandler) HandleWhereDoIRank(w http.ResponseWriter, r *http.Request) {
	req, err := whereRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.WhereDoIRank(r.Context(), req)
	respond(w, out, err)
}

// HandleHypothetical handles GET /hypothetical-rank requests. It takes the
// where-do-i-rank parameters plus result_type, enrollment and grade_level.
func (h *RankHandler) HandleHypothetical(w http.ResponseWriter, r *http.Request) {
	where, err := whereRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	req := service.HypotheticalRequest{
		Event:    where.Event,
		Value:    where.Value,
		Gender:   where.Gender,
		Year:     where.Year,
		MeetType: where.MeetType,
		Grade:    stringParam(r, "grade_level"),
	}
	if req.Kind, err = kindParam(r, "result_type"); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Enrollment, err = intParam(r, "enrollment"); err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.HypotheticalRankings(r.Context(), req)
	respond(w, out, err)
}

func whereRequest(r *http.Request) (service.WhereDoIRankRequest, error) {
	var req service.WhereDoIRankRequest
	var err error
	if req.Event, err = requiredParam(r, "event"); err != nil {
		return req, err
	}
	if req.Value, err = requiredParam(r, "value"); err != nil {
		return req, err
	}
	if req.Gender, err = genderParam(r, "gender"); err != nil {
		return req, err
	}
	if req.Year, err = intParam(r, "year"); err != nil {
		return req, err
	}
	req.MeetType = meetTypeParam(stringParam(r, "meet_type"))
	return req, nil
}
