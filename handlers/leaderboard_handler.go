package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/live-scoring/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(ls services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: ls}
}

// GetHandler обрабатывает GET /leaderboard?sport=football
func (h *LeaderboardHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	sport := strings.TrimSpace(r.URL.Query().Get("sport"))
	if sport == "" {
		badRequestResponse(w, r, errors.New("query parameter sport is required"))
		return
	}

	board, err := h.leaderboardService.Get(r.Context(), sport)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AllHandler обрабатывает GET /leaderboard/all
func (h *LeaderboardHandler) AllHandler(w http.ResponseWriter, r *http.Request) {
	boards, err := h.leaderboardService.All(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboards": boards}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
