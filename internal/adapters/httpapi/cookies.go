package httpapi

import (
	"net/http"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/cookies"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/httpjson"
)

// handleCookiesCheck valide le cookie jar configuré sans lancer de session.
func (s *Server) handleCookiesCheck(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Get(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := cookies.Check(cfg.CookieFile, time.Now())
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, report)
}
