package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/app"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/httpjson"
)

type WatchHandler struct {
	watch *app.WatchService
}

func NewWatchHandler(watch *app.WatchService) *WatchHandler {
	return &WatchHandler{watch: watch}
}

func (h *WatchHandler) Routes(r chi.Router) {
	r.Route("/watch", func(r chi.Router) {
		r.Post("/", h.start)
		r.Get("/", h.status)
		r.Post("/stop", h.stop)
	})
	r.Get("/sessions", h.history)
}

func (h *WatchHandler) start(w http.ResponseWriter, r *http.Request) {
	var req app.StartWatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Channel == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing channel")
		return
	}

	sess, err := h.watch.StartNow(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrAlreadyRunning) {
			httpjson.Write(w, http.StatusConflict, map[string]any{
				"error":     "a watch session is already running",
				"errorCode": app.CodeAlreadyRunning,
				"active":    sess,
			})
			return
		}
		var coded *app.CodedError
		if errors.As(err, &coded) {
			httpjson.Write(w, http.StatusBadGateway, map[string]string{"error": coded.Error(), "errorCode": coded.Code})
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusCreated, sess)
}

func (h *WatchHandler) status(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, h.watch.Status(r.Context()))
}

func (h *WatchHandler) stop(w http.ResponseWriter, r *http.Request) {
	st, err := h.watch.Stop(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

func (h *WatchHandler) history(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.watch.History(r.Context(), limit)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, sessions)
}
