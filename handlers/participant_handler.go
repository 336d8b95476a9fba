package handlers

import (
	"net/http"

	"github.com/Dosada05/double-elimination/models"
	"github.com/Dosada05/double-elimination/services"
)

type ParticipantHandler struct {
	tournamentService services.TournamentService
}

func NewParticipantHandler(ts services.TournamentService) *ParticipantHandler {
	return &ParticipantHandler{tournamentService: ts}
}

type rosterInput struct {
	Participants []models.Participant `json:"participants"`
}

func (h *ParticipantHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	roster, err := h.tournamentService.GetRoster(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReplaceParticipants overwrites the roster used by the next start.
func (h *ParticipantHandler) ReplaceParticipants(w http.ResponseWriter, r *http.Request) {
	var input rosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	roster, err := h.tournamentService.SaveRoster(r.Context(), input.Participants)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
