package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dtran/focus-rival/internal/api/middleware"
	"github.com/dtran/focus-rival/internal/engine"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/google/uuid"
)

type ChallengeHandler struct {
	manager  *engine.Manager
	resolver *service.ChallengeResolver
}

func NewChallengeHandler(manager *engine.Manager, resolver *service.ChallengeResolver) *ChallengeHandler {
	return &ChallengeHandler{
		manager:  manager,
		resolver: resolver,
	}
}

type ChallengeStateResponse struct {
	CurrentOpponentID        *string `json:"currentOpponentId"`
	RotationRemainingSeconds int     `json:"rotationRemainingSeconds"`
	LastResolution           string  `json:"lastResolution"`
}

type OutcomeResponse struct {
	ID               string `json:"id"`
	OpponentID       string `json:"opponentId"`
	UserNetScore     int    `json:"userNetScore"`
	OpponentNetScore int    `json:"opponentNetScore"`
	Outcome          string `json:"outcome"`
	Day              string `json:"day"`
}

func (h *ChallengeHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	eng, err := h.manager.Engine(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	remaining := eng.TickRotation(r.Context())
	_, rotation := eng.Snapshot()

	resp := ChallengeStateResponse{
		RotationRemainingSeconds: int(remaining.Seconds()),
		LastResolution:           rotation.LastResolution.Format("2006-01-02T15:04:05Z07:00"),
	}
	if rotation.CurrentOpponentID != uuid.Nil {
		id := rotation.CurrentOpponentID.String()
		resp.CurrentOpponentID = &id
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ForceRotate rotates to a new opponent on demand, resolving the current
// challenge window first.
func (h *ChallengeHandler) ForceRotate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	eng, err := h.manager.Engine(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := eng.ForceRotation(r.Context()); err != nil {
		http.Error(w, "Rotation failed", http.StatusInternalServerError)
		return
	}

	h.Current(w, r)
}

func (h *ChallengeHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	outcomes, err := h.resolver.History(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]OutcomeResponse, len(outcomes))
	for i, o := range outcomes {
		resp[i] = OutcomeResponse{
			ID:               o.ID.String(),
			OpponentID:       o.OpponentID.String(),
			UserNetScore:     o.UserNetScore,
			OpponentNetScore: o.OpponentNetScore,
			Outcome:          string(o.Outcome),
			Day:              o.Day,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
