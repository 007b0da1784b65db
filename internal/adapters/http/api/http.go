// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/trackrank/internal/app"
	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/percentile"
	"github.com/okian/trackrank/internal/domain/projection"
)

// Dependencies required by HTTP handlers. A nil result with a nil error
// means the requested athlete, meet, event or result does not exist.
type Dependencies interface {
	Convert(ctx context.Context, event string, category model.Category, text string) (*service.Conversion, error)
	ResultRankings(ctx context.Context, athleteID, meetID int64, event string, kind model.Kind) (*service.ResultRankings, error)
	WhereDoIRank(ctx context.Context, req service.WhereDoIRankRequest) (*projection.Projection, error)
	HypotheticalRankings(ctx context.Context, req service.HypotheticalRequest) (*service.HypotheticalRankings, error)
	Percentiles(ctx context.Context, req percentile.Request) (*percentile.Table, error)
	PercentileOptions(ctx context.Context) (percentile.Options, error)
	Dashboard(ctx context.Context, athleteID int64) (*service.Dashboard, error)
	Dashboards(ctx context.Context, ids []int64) ([]service.BatchItem, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	convertHandler    *ConvertHandler
	percentileHandler *PercentileHandler
	athleteHandler    *AthleteHandler
	rankHandler       *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		convertHandler:    NewConvertHandler(deps),
		percentileHandler: NewPercentileHandler(deps),
		athleteHandler:    NewAthleteHandler(deps),
		rankHandler:       NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)
	route("GET /convert", "convert", s.convertHandler.HandleConvert)
	route("GET /percentiles", "percentiles", s.percentileHandler.HandlePercentiles)
	route("GET /percentiles/options", "percentile_options", s.percentileHandler.HandleOptions)
	route("GET /athletes/{id}/dashboard", "dashboard", s.athleteHandler.HandleDashboard)
	route("GET /athletes/{id}/result-rankings", "result_rankings", s.athleteHandler.HandleResultRankings)
	route("GET /dashboards", "dashboards", s.athleteHandler.HandleDashboards)
	route("GET /where-do-i-rank", "where_do_i_rank", s.rankHandler.HandleWhereDoIRank)
	route("GET /hypothetical-rank", "hypothetical_rank", s.rankHandler.HandleHypothetical)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// respond writes v, or the error err maps to. A nil v is a 404.
func respond[T any](w http.ResponseWriter, v *T, err error) {
	switch {
	case err != nil:
		writeServiceError(w, err)
	case v == nil:
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

// writeServiceError translates service errors into HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, codec.ErrFormat):
		writeError(w, http.StatusBadRequest, "invalid_format", err)
	case errors.Is(err, model.ErrInvalidScope):
		writeError(w, http.StatusBadRequest, "invalid_scope", err)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
