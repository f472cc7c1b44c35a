// Package middleware holds the HTTP middleware chain of the dashboard server:
// request IDs, structured request logging, panic recovery, timeouts, CORS,
// security headers, rate limiting, OpenTelemetry instrumentation and request
// payload validation.
package middleware
