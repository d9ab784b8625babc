package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andres10976/homework-bot/internal/model"
)

// staleGrace is added to twice the poll interval before a missing cycle
// marks the process unhealthy.
const staleGrace = time.Minute

type pollerState interface {
	Snapshot() model.PollerState
}

type StatusHandler struct {
	poller pollerState
	now    func() time.Time
}

func NewStatusHandler(p pollerState) *StatusHandler {
	return &StatusHandler{poller: p, now: time.Now}
}

func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/api/v1/status", h.Status)
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.poller.Snapshot())
}

// Health reports unhealthy when no cycle has finished within two poll
// intervals plus staleGrace.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	s := h.poller.Snapshot()
	if s.LastCycleAt == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no poll cycle completed yet")
		return
	}

	age := h.now().Sub(*s.LastCycleAt)
	if age > 2*s.Interval+staleGrace {
		writeError(w, r, http.StatusServiceUnavailable, "poll loop is stale")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"last_cycle_age": age.Round(time.Second).String(),
	})
}
