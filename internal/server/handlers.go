package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/failguard/failguard/internal/usecase/jail"
)

// Handler serves the jail management API.
type Handler struct {
	manager *jail.Manager
	hub     *Hub
	log     *slog.Logger
	started time.Time
}

// NewHandler creates the API handler.
func NewHandler(manager *jail.Manager, hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		hub:     hub,
		log:     logger,
		started: time.Now(),
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
		"jails":  len(h.manager.Names()),
	})
}

// ListJails handles GET /api/v1/jails
func (h *Handler) ListJails(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"jails": h.manager.Statuses(time.Now()),
	})
}

// GetJail handles GET /api/v1/jails/{name}
func (h *Handler) GetJail(w http.ResponseWriter, r *http.Request) {
	j, ok := h.jailFromURL(w, r)
	if !ok {
		return
	}
	JSONResponse(w, http.StatusOK, j.Status(time.Now()))
}

// ListBans handles GET /api/v1/jails/{name}/bans
func (h *Handler) ListBans(w http.ResponseWriter, r *http.Request) {
	j, ok := h.jailFromURL(w, r)
	if !ok {
		return
	}
	status := j.Status(time.Now())
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"jail": status.Name,
		"bans": status.Banned,
	})
}

// BanRequest is the body of a manual ban request.
type BanRequest struct {
	IP     string `json:"ip"`
	Reason string `json:"reason,omitempty"`
}

// CreateBan handles POST /api/v1/jails/{name}/bans
func (h *Handler) CreateBan(w http.ResponseWriter, r *http.Request) {
	j, ok := h.jailFromURL(w, r)
	if !ok {
		return
	}

	var req BanRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.IP == "" {
		ErrorResponse(w, http.StatusBadRequest, "ip is required", nil)
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "manual ban via API"
	}

	entry, err := j.BanIP(req.IP, time.Now(), reason)
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Cannot ban address", err)
		return
	}

	h.log.Info("manual ban created", "jail", j.Name(), "ip", entry.IP)
	JSONResponse(w, http.StatusCreated, entry)
}

// DeleteBan handles DELETE /api/v1/jails/{name}/bans/{ip}
func (h *Handler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	j, ok := h.jailFromURL(w, r)
	if !ok {
		return
	}

	ip := chi.URLParam(r, "ip")
	j.Unban(ip)
	SuccessResponse(w, "Address unbanned", map[string]string{
		"jail": j.Name(),
		"ip":   ip,
	})
}

// MatchRequest is the body of an offline match test.
type MatchRequest struct {
	Line string `json:"line"`
}

// MatchLine handles POST /api/v1/match: it runs one line through every
// jail's patterns without recording failures or touching ban state.
func (h *Handler) MatchLine(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Line == "" {
		ErrorResponse(w, http.StatusBadRequest, "line is required", nil)
		return
	}

	results := make(map[string]interface{})
	for _, name := range h.manager.Names() {
		j, _ := h.manager.Get(name)
		results[name] = j.MatchLine(req.Line)
	}
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"line":    req.Line,
		"results": results,
	})
}

// LiveEvents handles GET /api/v1/events/live
func (h *Handler) LiveEvents(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

func (h *Handler) jailFromURL(w http.ResponseWriter, r *http.Request) (*jail.Jail, bool) {
	name := chi.URLParam(r, "name")
	j, ok := h.manager.Get(name)
	if !ok {
		ErrorResponse(w, http.StatusNotFound, "Jail not found", nil)
		return nil, false
	}
	return j, true
}
