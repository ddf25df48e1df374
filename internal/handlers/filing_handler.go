package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// FilingHandler serves stored filing records and their classifications
type FilingHandler struct {
	storage interfaces.FilingStorage
	logger  arbor.ILogger
}

// NewFilingHandler creates a new FilingHandler
func NewFilingHandler(storage interfaces.FilingStorage, logger arbor.ILogger) *FilingHandler {
	return &FilingHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler handles GET /api/filings
func (h *FilingHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := r.URL.Query()
	opts := models.FilingListOptions{
		FormType:     q.Get("form_type"),
		RelevantOnly: q.Get("relevant") == "true",
		Since:        GetSinceParam(r),
		Limit:        GetLimitParam(r, 50, 200),
	}
	if tier := q.Get("tier"); tier != "" {
		opts.Tier = models.FilingTier(tier)
		if err := opts.Tier.Validate(); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid tier filter")
			return
		}
	}

	filings, err := h.storage.ListFilings(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list filings")
		WriteError(w, http.StatusInternalServerError, "Failed to list filings")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(filings),
		"filings": filings,
	})
}

// GetHandler handles GET /api/filings/{id}
func (h *FilingHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/filings/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Filing id is required")
		return
	}

	filing, err := h.storage.GetFiling(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("filing_id", id).Msg("Failed to load filing")
		WriteError(w, http.StatusInternalServerError, "Failed to load filing")
		return
	}
	if filing == nil {
		WriteError(w, http.StatusNotFound, "Filing not found")
		return
	}

	WriteJSON(w, http.StatusOK, filing)
}
