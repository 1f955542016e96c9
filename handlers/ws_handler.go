package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/middleware"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/services"
)

type WSHandler struct {
	hub      *services.ProgressHub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler accepts same-origin upgrades plus any origin listed in allowedOrigins ("*" allows all).
func NewWSHandler(hub *services.ProgressHub, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	h := &WSHandler{hub: hub, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// ProgressStream upgrades the connection and streams the user's progress events until it closes.
func (h *WSHandler) ProgressStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("could not upgrade connection", slog.String("user_id", userID), slog.String("error", err.Error()))
		return
	}
	h.hub.Serve(conn, userID)
}
