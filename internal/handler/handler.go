// Package handler is the HTTP layer. Each endpoint binds and validates a
// typed request, calls the service layer and renders the result.
package handler
