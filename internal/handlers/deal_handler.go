package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// DealHandler serves approved production deals
type DealHandler struct {
	storage interfaces.DealStorage
	logger  arbor.ILogger
}

// NewDealHandler creates a new DealHandler
func NewDealHandler(storage interfaces.DealStorage, logger arbor.ILogger) *DealHandler {
	return &DealHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler handles GET /api/deals
func (h *DealHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	deals, err := h.storage.ListOpenDeals(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list deals")
		WriteError(w, http.StatusInternalServerError, "Failed to list deals")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(deals),
		"deals": deals,
	})
}

// GetHandler handles GET /api/deals/{id}
func (h *DealHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/deals/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Deal id is required")
		return
	}

	deal, err := h.storage.GetDeal(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("deal_id", id).Msg("Failed to load deal")
		WriteError(w, http.StatusInternalServerError, "Failed to load deal")
		return
	}
	if deal == nil {
		WriteError(w, http.StatusNotFound, "Deal not found")
		return
	}

	WriteJSON(w, http.StatusOK, deal)
}
