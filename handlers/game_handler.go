package handlers

import (
	"context"
	"net/http"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/middleware"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/services"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req game.SubmitScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	res, err := h.gameService.SubmitScore(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, res)
}

func (h *GameHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	scores, err := h.gameService.ListScores(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, scores)
}
