package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/live-scoring/services"
)

type PerformanceHandler struct {
	performanceService services.PerformanceService
}

func NewPerformanceHandler(ps services.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performanceService: ps}
}

// PlayerHandler обрабатывает GET /players/{playerID}/performance?sport=tennis&range=30
func (h *PerformanceHandler) PlayerHandler(w http.ResponseWriter, r *http.Request) {
	q, err := performanceQuery(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	perf, err := h.performanceService.Player(r.Context(), q)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"performance": perf}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TeamHandler обрабатывает GET /teams/{teamID}/performance?sport=football
func (h *PerformanceHandler) TeamHandler(w http.ResponseWriter, r *http.Request) {
	q, err := performanceQuery(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	perf, err := h.performanceService.Team(r.Context(), q)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"performance": perf}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// performanceQuery: range - число дней или "all" (по умолчанию все матчи).
func performanceQuery(r *http.Request, idParam string) (services.PerformanceQuery, error) {
	var q services.PerformanceQuery
	id, err := urlParam(r, idParam)
	if err != nil {
		return q, err
	}
	q.ID = id

	q.Sport = strings.TrimSpace(r.URL.Query().Get("sport"))
	if q.Sport == "" {
		return q, errors.New("query parameter sport is required")
	}

	switch rng := strings.TrimSpace(r.URL.Query().Get("range")); rng {
	case "", "all":
	default:
		days, err := strconv.Atoi(rng)
		if err != nil || days < 1 {
			return q, fmt.Errorf("query parameter range must be a positive number of days or \"all\", got %q", rng)
		}
		q.RangeDays = days
	}
	return q, nil
}
