package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/middleware"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/services"
)

type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(authService *services.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req user.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	resp, err := h.authService.Register(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.logger.Info("user registered", slog.String("user_id", resp.User.ID))
	h.setTokenCookie(w, resp.Token, resp.ExpiresAt)
	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req user.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.setTokenCookie(w, resp.Token, resp.ExpiresAt)
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.authService.Logout(ctx, claims); err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.setTokenCookie(w, "", time.Unix(0, 0))
	respondWithMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}
