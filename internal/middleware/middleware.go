// Package middleware holds the global and route-level middleware: request
// ids, request-scoped logging, tracing, rate limiting, Clerk auth and
// permissions, the response cache, and the global error handler.
package middleware
