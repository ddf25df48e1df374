package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health and status
	mux.HandleFunc("/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// Review queue
	mux.HandleFunc("/api/review", s.app.ReviewHandler.ReviewHandler)  // POST - approve/reject
	mux.HandleFunc("/api/staged", s.app.ReviewHandler.ListStagedHandler) // GET - list by status
	mux.HandleFunc("/api/staged/", s.app.ReviewHandler.StagedDealRoutes) // GET /{id}, PUT /{id}/research

	// Filings
	mux.HandleFunc("/api/filings", s.app.FilingHandler.ListHandler)
	mux.HandleFunc("/api/filings/", s.app.FilingHandler.GetHandler)

	// Trading halts
	mux.HandleFunc("/api/halts", s.app.HaltHandler.ListHandler)

	// Production deals
	mux.HandleFunc("/api/deals", s.app.DealHandler.ListHandler)
	mux.HandleFunc("/api/deals/", s.app.DealHandler.GetHandler)

	// Intelligence
	mux.HandleFunc("/api/intelligence", s.app.IntelHandler.ListHandler)
	mux.HandleFunc("/api/intelligence/sweep", s.app.IntelHandler.SweepHandler) // POST - manual decay sweep
	mux.HandleFunc("/api/intelligence/", s.handleIntelligenceRoutes)

	// Monitor control
	mux.HandleFunc("/api/monitors", s.app.MonitorHandler.ListHandler)
	mux.HandleFunc("/api/monitors/", s.app.MonitorHandler.ControlRoutes) // POST /{name}/start|stop|run

	return mux
}

// handleIntelligenceRoutes keeps /api/intelligence/sweep out of the id
// lookup path
func (s *Server) handleIntelligenceRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/sweep") {
		s.app.IntelHandler.SweepHandler(w, r)
		return
	}
	s.app.IntelHandler.GetHandler(w, r)
}
