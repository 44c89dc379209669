// Package lib holds integrations that sit beside the main layers:
// background jobs on asynq (lib/job) and transactional email through
// Resend (lib/email).
package lib
