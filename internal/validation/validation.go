// Package validation binds request payloads and turns validator failures
// into field-level errors clients can display.
//
// Request types declare their rules with go-playground/validator struct tags
// and implement Validatable; BindAndValidate is the single entry point the
// handler pipeline calls.
package validation
