// Package middleware provides optional HTTP middleware for portico servers:
// Prometheus request metrics and OpenTelemetry tracing.
//
// Both middlewares are standard func(http.Handler) http.Handler wrappers and
// compose with chi or any other net/http router.
package middleware
