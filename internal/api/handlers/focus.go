package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtran/focus-rival/internal/api/middleware"
	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/engine"
	"github.com/google/uuid"
)

type FocusHandler struct {
	manager *engine.Manager
}

func NewFocusHandler(manager *engine.Manager) *FocusHandler {
	return &FocusHandler{manager: manager}
}

type StartFocusRequest struct {
	DurationSeconds int `json:"durationSeconds"`
	CoinsReward     int `json:"coinsReward"`
}

type FocusSessionResponse struct {
	ID               string `json:"id"`
	DurationSeconds  int    `json:"durationSeconds"`
	CoinsReward      int    `json:"coinsReward"`
	State            string `json:"state"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

type FocusStatusResponse struct {
	Session                  *FocusSessionResponse `json:"session"`
	CurrentOpponentID        *string               `json:"currentOpponentId"`
	RotationRemainingSeconds int                   `json:"rotationRemainingSeconds"`
}

func (h *FocusHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req StartFocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DurationSeconds <= 0 {
		http.Error(w, "Duration must be positive", http.StatusBadRequest)
		return
	}
	if req.CoinsReward < 0 {
		http.Error(w, "Reward must be non-negative", http.StatusBadRequest)
		return
	}

	eng, err := h.manager.Engine(r.Context(), userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	session, err := eng.StartFocusSession(r.Context(), req.DurationSeconds, req.CoinsReward)
	if err != nil {
		if errors.Is(err, domain.ErrSessionConflict) {
			http.Error(w, "A focus session is already running", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	resp := FocusSessionResponse{
		ID:               session.ID.String(),
		DurationSeconds:  session.DurationSeconds,
		CoinsReward:      session.CoinsReward,
		State:            string(session.State),
		RemainingSeconds: session.DurationSeconds,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *FocusHandler) Cancel(w http.ResponseWriter, r *http.Request) {
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

	eng.CancelFocusSession(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *FocusHandler) Status(w http.ResponseWriter, r *http.Request) {
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

	remaining := eng.TickFocusSession(r.Context())
	session, rotation := eng.Snapshot()

	resp := FocusStatusResponse{
		RotationRemainingSeconds: int(eng.TickRotation(r.Context()).Seconds()),
	}
	if session != nil {
		resp.Session = &FocusSessionResponse{
			ID:               session.ID.String(),
			DurationSeconds:  session.DurationSeconds,
			CoinsReward:      session.CoinsReward,
			State:            string(session.State),
			RemainingSeconds: int(remaining.Seconds()),
		}
	}
	if rotation.CurrentOpponentID != uuid.Nil {
		id := rotation.CurrentOpponentID.String()
		resp.CurrentOpponentID = &id
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Recheck runs the foreground reconciliation pass for the caller.
func (h *FocusHandler) Recheck(w http.ResponseWriter, r *http.Request) {
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

	if err := eng.Recheck(r.Context()); err != nil {
		http.Error(w, "Recheck failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
