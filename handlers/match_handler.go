package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/services"
)

type MatchHandler struct {
	matchService   services.MatchService
	scoringService services.ScoringService
}

func NewMatchHandler(ms services.MatchService, ss services.ScoringService) *MatchHandler {
	return &MatchHandler{
		matchService:   ms,
		scoringService: ss,
	}
}

// CreateHandler обрабатывает POST /matches
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Create(r.Context(), identity, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /matches/{sport}/{matchID}
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	sport, matchID, err := sportAndMatch(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Get(r.Context(), sport, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /matches/{sport}?status=live
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	sport, err := urlParam(r, "sport")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.MatchStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.MatchStatus(s)
		status = &st
	}

	matches, err := h.matchService.ListBySport(r.Context(), sport, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type submitEventInput struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubmitEventHandler обрабатывает POST /matches/{sport}/{matchID}/events -
// HTTP-вариант match_event для клиентов без websocket.
func (h *MatchHandler) SubmitEventHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	sport, matchID, err := sportAndMatch(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoringService.HandleEvent(r.Context(), services.EventInput{
		MatchID: matchID,
		Sport:   sport,
		Type:    input.Type,
		Payload: input.Payload,
		ActorID: identity.UserID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelHandler обрабатывает POST /matches/{sport}/{matchID}/cancel
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	sport, matchID, err := sportAndMatch(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Cancel(r.Context(), identity, sport, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type setScorersInput struct {
	Scorers []string `json:"scorers"`
}

// SetScorersHandler обрабатывает PUT /matches/{sport}/{matchID}/scorers
func (h *MatchHandler) SetScorersHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	sport, matchID, err := sportAndMatch(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setScorersInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SetScorers(r.Context(), identity, sport, matchID, input.Scorers)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func sportAndMatch(r *http.Request) (sport, matchID string, err error) {
	if sport, err = urlParam(r, "sport"); err != nil {
		return "", "", err
	}
	if matchID, err = urlParam(r, "matchID"); err != nil {
		return "", "", err
	}
	return sport, matchID, nil
}
