package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbitror/internal/interfaces"
)

// MonitorHandler exposes runtime control over the polling monitors
type MonitorHandler struct {
	registry interfaces.MonitorRegistry
	logger   arbor.ILogger
}

// NewMonitorHandler creates a new MonitorHandler
func NewMonitorHandler(registry interfaces.MonitorRegistry, logger arbor.ILogger) *MonitorHandler {
	return &MonitorHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListHandler handles GET /api/monitors
func (h *MonitorHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	monitors := h.registry.All()
	statuses := make([]interfaces.MonitorStatus, 0, len(monitors))
	for _, m := range monitors {
		statuses = append(statuses, m.Status())
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(statuses),
		"monitors": statuses,
	})
}

// ControlRoutes handles POST /api/monitors/{name}/start|stop|run
func (h *MonitorHandler) ControlRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/monitors/")
	name, action, ok := strings.Cut(path, "/")
	if !ok || name == "" {
		WriteError(w, http.StatusBadRequest, "Expected /api/monitors/{name}/{action}")
		return
	}

	monitor, exists := h.registry.Get(name)
	if !exists {
		WriteError(w, http.StatusNotFound, "Unknown monitor: "+name)
		return
	}

	switch action {
	case "start":
		// The loop must outlive this request
		if err := monitor.Start(context.Background()); err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Info().Str("monitor", name).Msg("Monitor started via API")
		WriteSuccess(w, "Monitor started")
	case "stop":
		if err := monitor.Stop(); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.logger.Info().Str("monitor", name).Msg("Monitor stopped via API")
		WriteSuccess(w, "Monitor stopped")
	case "run":
		if err := monitor.RunOnce(r.Context()); err != nil {
			WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
		WriteSuccess(w, "Cycle completed")
	default:
		WriteError(w, http.StatusBadRequest, "Unknown action: "+action)
	}
}
