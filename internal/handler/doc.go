// Package handler provides the HTTP surface of the arena API.
//
// Handlers are thin: they decode the request, call the service.Workflow and
// translate its result. Each handler struct wraps the Workflow for one area
// (competitions, applications, teams and join requests).
//
// # Response Format
//
//   - WriteData: single resource or list under "data", with optional links
//   - WriteJSON: raw JSON response
//   - WriteError: RFC 9457 Problem Details error response
//
// Workflow failures are converted by MapServiceError, which switches on the
// failure kind and never exposes the underlying cause.
//
// # Authentication
//
// Everything under /v1 requires a bearer token. The auth middleware stores the
// user ID and role in the request context; handlers read them back with
// middleware.GetUserID and middleware.GetUserRole.
//
// # Example Usage
//
//	router := handler.NewRouter(handler.RouterConfig{
//	    Workflow: workflow,
//	    Verifier: tokens,
//	    Logger:   logger,
//	})
//	http.ListenAndServe(":8080", router)
package handler
