package httpadapter

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/flood-alert-dashboard/internal/console"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type mapPage struct {
	View     console.View
	Settings pageSettings
}

// pageSettings is handed to the page script as JSON.
type pageSettings struct {
	MapSettings
	RelayoutDelayMS int64 `json:"relayoutDelayMs"`
}

func (s *Server) settings() pageSettings {
	return pageSettings{
		MapSettings:     s.deps.Map,
		RelayoutDelayMS: s.deps.Map.RelayoutDelay.Milliseconds(),
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request, c *console.Console) {
	v, err := c.Render(r.Context())
	if err != nil {
		s.logger.Error("render console failed", "error", err)
		s.render(w, http.StatusServiceUnavailable, "error.html", errorPage{Message: "Risk data is unavailable, try again shortly."})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, http.StatusOK, "map.html", mapPage{View: v, Settings: s.settings()})
}

// handleAlert starts a dispatch and waits for its outcome before sending the
// operator back to the map, where the notice is shown. A submission made
// while a dispatch is in flight changes nothing.
func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request, c *console.Console) {
	outcome, err := c.Dispatch(r.Context())
	switch {
	case err == nil:
		select {
		case <-outcome:
		case <-r.Context().Done():
		}
	case errors.Is(err, console.ErrDispatchInProgress):
		s.logger.Debug("alert submission ignored, dispatch in progress")
	default:
		s.logger.Warn("alert dispatch refused", "error", err)
	}
	http.Redirect(w, r, "/map", http.StatusSeeOther)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request, c *console.Console) {
	if _, err := c.TogglePanel(); err != nil {
		s.logger.Warn("toggle panel failed", "error", err)
	}
	http.Redirect(w, r, "/map", http.StatusSeeOther)
}

// handleConsoleJSON reports the console without consuming a dispatch notice.
func (s *Server) handleConsoleJSON(w http.ResponseWriter, r *http.Request, c *console.Console) {
	v, err := c.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("console snapshot failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "risk data unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAlertJSON(w http.ResponseWriter, r *http.Request, c *console.Console) {
	_, err := c.Dispatch(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"state": string(console.StateSending)})
	case errors.Is(err, console.ErrDispatchInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"state": string(console.StateSending), "error": err.Error()})
	default:
		writeJSON(w, http.StatusGone, map[string]string{"error": err.Error()})
	}
}

func (s *Server) handlePanelJSON(w http.ResponseWriter, _ *http.Request, c *console.Console) {
	open, err := c.TogglePanel()
	if err != nil {
		writeJSON(w, http.StatusGone, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"panelOpen":       open,
		"relayoutDelayMs": s.deps.Map.RelayoutDelay.Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Cache-Control", "no-store")
	sharedobs.WriteJSON(w, status, v)
}
