package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sportfed/arena/internal/middleware"
	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/internal/service"
)

// CompetitionHandler handles competition HTTP requests
type CompetitionHandler struct {
	workflow *service.Workflow
}

// NewCompetitionHandler creates a new competition handler
func NewCompetitionHandler(workflow *service.Workflow) *CompetitionHandler {
	return &CompetitionHandler{workflow: workflow}
}

// Create handles POST /v1/competitions
func (h *CompetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateCompetitionRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	role := model.UserRole(middleware.GetUserRole(ctx))
	competition, err := h.workflow.CreateCompetition(ctx, userID, role, &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, competition, map[string]string{
		"self":         "/v1/competitions/" + competition.ID,
		"applications": "/v1/competitions/" + competition.ID + "/applications",
	})
}

// Get handles GET /v1/competitions/{competitionId}
func (h *CompetitionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.workflow.GetCompetition(r.Context(), chi.URLParam(r, "competitionId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, view, nil)
}

// Delete handles DELETE /v1/competitions/{competitionId}
func (h *CompetitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.workflow.DeleteCompetition(r.Context(), userID, chi.URLParam(r, "competitionId")); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}

// ListRecruitingTeams handles GET /v1/competitions/{competitionId}/recruiting-teams
func (h *CompetitionHandler) ListRecruitingTeams(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	teams, err := h.workflow.ListRecruitingTeams(r.Context(), userID, chi.URLParam(r, "competitionId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, teams, nil)
}

// requireUser returns the authenticated user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return userID, true
}
