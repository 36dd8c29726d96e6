package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dtran/focus-rival/internal/api/middleware"
	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GroupHandler struct {
	groupService   *service.GroupService
	pairingService *service.PairingService
}

func NewGroupHandler(groupService *service.GroupService, pairingService *service.PairingService) *GroupHandler {
	return &GroupHandler{
		groupService:   groupService,
		pairingService: pairingService,
	}
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type GroupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"createdBy"`
	Members   []string `json:"members"`
}

type PairResponse struct {
	MemberA     string `json:"memberA"`
	MemberB     string `json:"memberB"`
	IsExtraPair bool   `json:"isExtraPair"`
}

func newGroupResponse(group *domain.Group) GroupResponse {
	resp := GroupResponse{
		ID:        group.ID.String(),
		Name:      group.Name,
		CreatedBy: group.CreatedBy.String(),
		Members:   make([]string, len(group.Members)),
	}
	for i, m := range group.Members {
		resp.Members[i] = m.ID.String()
	}
	return resp
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Group name is required", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.Create(r.Context(), req.Name, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyInGroup) {
			http.Error(w, "Already in a group", http.StatusConflict)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newGroupResponse(group))
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.Join(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGroupNotFound):
			http.Error(w, "Group not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrAlreadyInGroup):
			http.Error(w, "Already in a group", http.StatusConflict)
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newGroupResponse(group))
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.Get(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newGroupResponse(group))
}

// Pairs returns the group's pairing set for a day, generating it if absent.
func (h *GroupHandler) Pairs(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}

	day := r.URL.Query().Get("day")
	if day == "" {
		day = domain.DayOf(time.Now())
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		http.Error(w, "Invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	pairs, err := h.pairingService.PairsForDay(r.Context(), groupID, day)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]PairResponse, len(pairs))
	for i, p := range pairs {
		resp[i] = PairResponse{
			MemberA:     p.MemberA.String(),
			MemberB:     p.MemberB.String(),
			IsExtraPair: p.IsExtraPair,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RegeneratePairs discards the day's pairing set and builds a new one.
func (h *GroupHandler) RegeneratePairs(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}

	day := domain.DayOf(time.Now())
	pairs, err := h.pairingService.GeneratePairsForGroup(r.Context(), groupID, day)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]PairResponse, len(pairs))
	for i, p := range pairs {
		resp[i] = PairResponse{
			MemberA:     p.MemberA.String(),
			MemberB:     p.MemberB.String(),
			IsExtraPair: p.IsExtraPair,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
