package api

import (
	"context"
	"net/http"

	service "github.com/okian/trackrank/internal/app"
	"github.com/okian/trackrank/internal/domain/model"
)

// ConvertDependencies defines the interface for mark conversion.
type ConvertDependencies interface {
	Convert(ctx context.Context, event string, category model.Category, text string) (*service.Conversion, error)
}

// ConvertHandler handles mark conversion requests.
type ConvertHandler struct {
	deps ConvertDependencies
}

// NewConvertHandler creates a new convert handler.
func NewConvertHandler(deps ConvertDependencies) *ConvertHandler {
	return &ConvertHandler{deps: deps}
}

// HandleConvert handles GET /convert?event=&event_type=&value= requests.
func (h *ConvertHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	value, err := requiredParam(r, "value")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	category, err := categoryParam(r, "event_type")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.Convert(r.Context(), stringParam(r, "event"), category, value)
	respond(w, out, err)
}
