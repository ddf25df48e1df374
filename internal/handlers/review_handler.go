package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
	"github.com/ternarybob/arbitror/internal/models"
)

// ReviewHandler handles the staged deal queue and the review state machine
type ReviewHandler struct {
	stagingService interfaces.StagingService
	logger         arbor.ILogger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(stagingService interfaces.StagingService, logger arbor.ILogger) *ReviewHandler {
	return &ReviewHandler{
		stagingService: stagingService,
		logger:         logger,
	}
}

type reviewRequest struct {
	ID       string `json:"id"`
	Action   string `json:"action"`
	Reviewer string `json:"reviewer"`
}

type reviewResponse struct {
	Staged *models.StagedDeal `json:"staged_deal"`
	Deal   *models.Deal       `json:"deal,omitempty"`
}

// ReviewHandler handles POST /api/review
func (h *ReviewHandler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	action := models.ReviewAction(req.Action)
	if err := action.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	staged, deal, err := h.stagingService.Review(r.Context(), req.ID, action, req.Reviewer)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			WriteError(w, http.StatusNotFound, "Staged deal not found")
		case errors.Is(err, models.ErrInvalidTransition):
			WriteError(w, http.StatusConflict, "Staged deal already reviewed")
		default:
			h.logger.Error().Err(err).Str("staged_deal_id", req.ID).Msg("Review failed")
			WriteError(w, http.StatusInternalServerError, "Review failed")
		}
		return
	}

	h.logger.Info().
		Str("staged_deal_id", staged.ID).
		Str("action", string(action)).
		Str("reviewer", req.Reviewer).
		Msg("Staged deal reviewed")

	WriteJSON(w, http.StatusOK, reviewResponse{Staged: staged, Deal: deal})
}

// ListStagedHandler handles GET /api/staged
func (h *ReviewHandler) ListStagedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := models.StagedDealStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StagedStatusPending
	}
	switch status {
	case models.StagedStatusPending, models.StagedStatusApproved, models.StagedStatusRejected:
	default:
		WriteError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	limit := GetLimitParam(r, 50, 200)
	deals, err := h.stagingService.List(r.Context(), status, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list staged deals")
		WriteError(w, http.StatusInternalServerError, "Failed to list staged deals")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": string(status),
		"count":  len(deals),
		"deals":  deals,
	})
}

// StagedDealRoutes handles GET /api/staged/{id} and PUT /api/staged/{id}/research
func (h *ReviewHandler) StagedDealRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/staged/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "Staged deal id is required")
		return
	}

	if id, ok := strings.CutSuffix(path, "/research"); ok {
		h.updateResearchStatus(w, r, id)
		return
	}

	h.getStagedDeal(w, r, path)
}

func (h *ReviewHandler) getStagedDeal(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	deal, err := h.stagingService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Staged deal not found")
			return
		}
		h.logger.Error().Err(err).Str("staged_deal_id", id).Msg("Failed to load staged deal")
		WriteError(w, http.StatusInternalServerError, "Failed to load staged deal")
		return
	}

	WriteJSON(w, http.StatusOK, deal)
}

type researchRequest struct {
	ResearchStatus string `json:"research_status"`
}

func (h *ReviewHandler) updateResearchStatus(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := models.ResearchStatus(req.ResearchStatus)
	switch status {
	case models.ResearchStatusUnstarted, models.ResearchStatusInProgress, models.ResearchStatusComplete:
	default:
		WriteError(w, http.StatusBadRequest, "Invalid research status")
		return
	}

	if err := h.stagingService.SetResearchStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Staged deal not found")
			return
		}
		h.logger.Error().Err(err).Str("staged_deal_id", id).Msg("Failed to update research status")
		WriteError(w, http.StatusInternalServerError, "Failed to update research status")
		return
	}

	WriteSuccess(w, "Research status updated")
}
