// Package middleware provides HTTP middleware for the arena API.
//
// The server stacks them as:
//
//	RequestID -> Recovery -> Logger -> CORS -> metrics -> Auth -> RateLimit
//
// Auth verifies the bearer token and stores the acting user in the request
// context; handlers read it back with GetUserID. RateLimit keys its token
// buckets by that user, or by client IP for anonymous requests.
package middleware
