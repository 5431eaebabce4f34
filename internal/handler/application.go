package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/internal/service"
)

// ApplicationHandler handles application and recruiting HTTP requests
type ApplicationHandler struct {
	workflow *service.Workflow
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(workflow *service.Workflow) *ApplicationHandler {
	return &ApplicationHandler{workflow: workflow}
}

// Submit handles POST /v1/competitions/{competitionId}/applications
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SubmitApplicationRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	app, err := h.workflow.SubmitApplication(r.Context(), userID, chi.URLParam(r, "competitionId"), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, app, map[string]string{
		"self":     "/v1/applications/" + app.ID,
		"withdraw": "/v1/applications/" + app.ID + "/withdraw",
	})
}

// List handles GET /v1/competitions/{competitionId}/applications
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter, fieldErrs := parseApplicationFilter(r)
	if len(fieldErrs) > 0 {
		WriteError(w, model.NewValidationError(fieldErrs))
		return
	}

	apps, err := h.workflow.ListApplications(r.Context(), userID, chi.URLParam(r, "competitionId"), filter)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, apps, nil)
}

// ChangeStatus handles PATCH /v1/applications/{applicationId}/status
func (h *ApplicationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChangeApplicationStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	app, err := h.workflow.ChangeApplicationStatus(r.Context(), userID, chi.URLParam(r, "applicationId"), model.ApplicationStatus(req.Status))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, app, nil)
}

// Withdraw handles POST /v1/applications/{applicationId}/withdraw
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	app, err := h.workflow.WithdrawApplication(r.Context(), userID, chi.URLParam(r, "applicationId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, app, nil)
}

// AdvertiseRecruiting handles PUT /v1/applications/{applicationId}/recruiting
func (h *ApplicationHandler) AdvertiseRecruiting(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var info model.RecruitingInfo
	if err := DecodeJSON(r, &info); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	app, err := h.workflow.AdvertiseRecruiting(r.Context(), userID, chi.URLParam(r, "applicationId"), &info)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, app, nil)
}

// CloseRecruiting handles DELETE /v1/applications/{applicationId}/recruiting
func (h *ApplicationHandler) CloseRecruiting(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	app, err := h.workflow.CloseRecruiting(r.Context(), userID, chi.URLParam(r, "applicationId"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, app, nil)
}

func parseApplicationFilter(r *http.Request) (model.ApplicationFilter, []model.FieldError) {
	var filter model.ApplicationFilter
	var errs []model.FieldError

	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		status := model.ApplicationStatus(v)
		if !status.IsValid() {
			errs = append(errs, model.FieldError{Field: "status", Message: "unknown application status"})
		} else {
			filter.Status = &status
		}
	}
	if v := q.Get("type"); v != "" {
		kind := model.ApplicationType(v)
		if !kind.IsValid() {
			errs = append(errs, model.FieldError{Field: "type", Message: "type must be individual or team"})
		} else {
			filter.Type = &kind
		}
	}
	return filter, errs
}
