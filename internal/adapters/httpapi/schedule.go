package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/app"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/httpjson"
)

type ScheduleHandler struct {
	scheduler *app.Scheduler
}

func NewScheduleHandler(scheduler *app.Scheduler) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler}
}

func (h *ScheduleHandler) Routes(r chi.Router) {
	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.arm)
		r.Delete("/", h.disarm)
	})
}

type scheduleView struct {
	Entry     *app.ScheduleDTO `json:"entry,omitempty"`
	NextRun   *time.Time       `json:"nextRun,omitempty"`
	LastFired string           `json:"lastFired,omitempty"`
}

func (h *ScheduleHandler) get(w http.ResponseWriter, r *http.Request) {
	view := scheduleView{LastFired: h.scheduler.LastFired()}
	if entry, ok := h.scheduler.Current(); ok {
		dto := app.ToScheduleDTO(entry)
		view.Entry = &dto
		if next, ok := h.scheduler.NextRun(); ok {
			view.NextRun = &next
		}
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *ScheduleHandler) arm(w http.ResponseWriter, r *http.Request) {
	var dto app.ScheduleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	entry := dto.ToDomain()
	// Armer sans préciser enabled n'aurait aucun sens: on force à vrai.
	entry.Enabled = true
	armed, err := h.scheduler.Arm(entry)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTimeOfDay) {
			httpjson.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, app.ToScheduleDTO(armed))
}

func (h *ScheduleHandler) disarm(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Disarm()
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "disarmed"})
}
