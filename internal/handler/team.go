package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/internal/service"
)

// TeamHandler handles team, roster and join request HTTP requests
type TeamHandler struct {
	workflow *service.Workflow
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(workflow *service.Workflow) *TeamHandler {
	return &TeamHandler{workflow: workflow}
}

// Team Management Endpoints

// Create handles POST /v1/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateTeamRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	team, err := h.workflow.CreateTeam(r.Context(), userID, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, team, map[string]string{"self": "/v1/teams/" + team.ID})
}

// Mine handles GET /v1/teams/mine
func (h *TeamHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	teams, err := h.workflow.ListUserTeams(r.Context(), userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, teams, nil)
}

// Get handles GET /v1/teams/{teamId}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.workflow.GetTeam(r.Context(), chi.URLParam(r, "teamId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, detail, nil)
}

// Rename handles PATCH /v1/teams/{teamId}
func (h *TeamHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RenameTeamRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	team, err := h.workflow.RenameTeam(r.Context(), userID, chi.URLParam(r, "teamId"), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, team, nil)
}

// Delete handles DELETE /v1/teams/{teamId}
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.workflow.DeleteTeam(r.Context(), userID, chi.URLParam(r, "teamId")); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}

// Roster Endpoints

// AddMember handles POST /v1/teams/{teamId}/members
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.AddTeamMemberRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	member, err := h.workflow.AddMember(r.Context(), userID, chi.URLParam(r, "teamId"), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, member, nil)
}

// RemoveMember handles DELETE /v1/teams/{teamId}/members/{memberId}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.workflow.RemoveMember(r.Context(), userID, chi.URLParam(r, "teamId"), chi.URLParam(r, "memberId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}

// Join Request Endpoints

// RequestToJoin handles POST /v1/teams/{teamId}/join-requests
func (h *TeamHandler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RequestToJoinRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	joinReq, err := h.workflow.RequestToJoin(r.Context(), userID, chi.URLParam(r, "teamId"), req.CompetitionID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, joinReq, map[string]string{
		"accept": "/v1/join-requests/" + joinReq.ID + "/accept",
		"reject": "/v1/join-requests/" + joinReq.ID + "/reject",
	})
}

// ListJoinRequests handles GET /v1/teams/{teamId}/join-requests
func (h *TeamHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var status *model.JoinRequestStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := model.JoinRequestStatus(v)
		if !s.IsValid() {
			WriteError(w, model.NewValidationError([]model.FieldError{
				{Field: "status", Message: "status must be one of pending, accepted, rejected"},
			}))
			return
		}
		status = &s
	}

	requests, err := h.workflow.ListJoinRequests(r.Context(), userID, chi.URLParam(r, "teamId"), status)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, requests, nil)
}

// Accept handles POST /v1/join-requests/{requestId}/accept
func (h *TeamHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.JoinRequestAccept)
}

// Reject handles POST /v1/join-requests/{requestId}/reject
func (h *TeamHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.JoinRequestReject)
}

func (h *TeamHandler) resolve(w http.ResponseWriter, r *http.Request, action model.JoinRequestAction) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	member, err := h.workflow.ResolveJoinRequest(r.Context(), userID, chi.URLParam(r, "requestId"), action)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	if member == nil {
		WriteNoContent(w)
		return
	}
	WriteData(w, http.StatusOK, member, nil)
}
