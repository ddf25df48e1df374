package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// IntelHandler serves aggregated deal intelligence
type IntelHandler struct {
	intelService interfaces.IntelService
	logger       arbor.ILogger
}

// NewIntelHandler creates a new IntelHandler
func NewIntelHandler(intelService interfaces.IntelService, logger arbor.ILogger) *IntelHandler {
	return &IntelHandler{
		intelService: intelService,
		logger:       logger,
	}
}

// ListHandler handles GET /api/intelligence
func (h *IntelHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	tier := models.IntelTier(r.URL.Query().Get("tier"))
	if tier == "" {
		tier = models.TierActive
	}
	if err := tier.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid tier filter")
		return
	}

	records, err := h.intelService.List(r.Context(), tier, GetLimitParam(r, 50, 200))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list intelligence")
		WriteError(w, http.StatusInternalServerError, "Failed to list intelligence")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tier":    string(tier),
		"count":   len(records),
		"records": records,
	})
}

// GetHandler handles GET /api/intelligence/{id}
func (h *IntelHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/intelligence/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Intelligence id is required")
		return
	}

	record, err := h.intelService.Get(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("intel_id", id).Msg("Failed to load intelligence")
		WriteError(w, http.StatusInternalServerError, "Failed to load intelligence")
		return
	}
	if record == nil {
		WriteError(w, http.StatusNotFound, "Intelligence record not found")
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// SweepHandler handles POST /api/intelligence/sweep, running the staleness
// decay sweep outside its schedule
func (h *IntelHandler) SweepHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	demoted, err := h.intelService.SweepStale(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Staleness sweep failed")
		WriteError(w, http.StatusInternalServerError, "Staleness sweep failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"demoted": demoted,
	})
}
