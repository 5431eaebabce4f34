// Package helpers provides common test utilities for HTTP-level tests.
//
// It includes a JWT helper signing with a fixed test secret, an HTTP
// request builder, and assertions for the data envelope and RFC 9457
// problem responses.
package helpers
