package handler

import (
	"github.com/sportfed/arena/internal/model"
	"github.com/sportfed/arena/internal/service"
)

// MapServiceError converts a workflow error to a ProblemDetails response.
// The detail is always the Failure's caller-safe message.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	f := service.Classify(err)
	switch f.Kind {
	// ===== Authorization → 403 =====
	case service.KindUnauthorized:
		return model.NewForbiddenError(f.Message, model.ErrCodeForbidden)

	// ===== Not Found → 404 =====
	case service.KindNotFound:
		pd := model.NewNotFoundError("resource")
		pd.Detail = f.Message
		return pd

	// ===== Conflict → 409 =====
	case service.KindDuplicateApplication:
		return model.NewConflictError("duplicate-application", f.Message, model.ErrCodeDuplicateApplication)
	case service.KindDuplicateRequest:
		return model.NewConflictError("duplicate-request", f.Message, model.ErrCodeDuplicateRequest)
	case service.KindAlreadyMember:
		return model.NewConflictError("already-member", f.Message, model.ErrCodeAlreadyMember)
	case service.KindHasActiveApplications:
		return model.NewConflictError("has-active-applications", f.Message, model.ErrCodeHasActiveApplications)
	case service.KindInvalidTransition:
		return model.NewConflictError("invalid-transition", f.Message, model.ErrCodeInvalidTransition)

	// ===== Unprocessable → 422 =====
	case service.KindValidation:
		return model.NewValidationError(f.Fields)
	case service.KindCapacityExceeded:
		return model.NewUnprocessableError("capacity-exceeded", "Capacity Exceeded", f.Message, model.ErrCodeCapacityExceeded)
	case service.KindNotEligible:
		return model.NewUnprocessableError("not-eligible", "Not Eligible", f.Message, model.ErrCodeNotEligible)

	// ===== Store → 503 =====
	case service.KindStoreUnavailable:
		return model.NewServiceUnavailableError(f.Message)

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
