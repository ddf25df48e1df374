package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// HaltHandler serves recorded trading halts
type HaltHandler struct {
	storage interfaces.HaltStorage
	logger  arbor.ILogger
}

// NewHaltHandler creates a new HaltHandler
func NewHaltHandler(storage interfaces.HaltStorage, logger arbor.ILogger) *HaltHandler {
	return &HaltHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler handles GET /api/halts. A ticker query parameter narrows to
// one symbol; otherwise halts since the given time (default 24h) are
// returned newest first.
func (h *HaltHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if ticker := strings.ToUpper(r.URL.Query().Get("ticker")); ticker != "" {
		halts, err := h.storage.ListHaltsByTicker(r.Context(), ticker)
		if err != nil {
			h.logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to list halts")
			WriteError(w, http.StatusInternalServerError, "Failed to list halts")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"ticker": ticker,
			"count":  len(halts),
			"halts":  halts,
		})
		return
	}

	since := GetSinceParam(r)
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	halts, err := h.storage.ListHalts(r.Context(), since, GetLimitParam(r, 100, 500))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list halts")
		WriteError(w, http.StatusInternalServerError, "Failed to list halts")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(halts),
		"halts": halts,
	})
}
