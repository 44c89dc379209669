// Package errs defines the error envelope returned by every endpoint.
//
// Handlers and services return *HTTPError values (or plain errors that the
// global error handler translates), so clients always receive the same
// JSON shape: code, message, status, optional field errors and an optional
// client action.
package errs
