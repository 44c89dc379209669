package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/deppfellow/portfolio/internal/config"
	"github.com/deppfellow/portfolio/internal/lib/email"
)

// ProjectNotifier delivers project notifications. *email.Client implements it.
type ProjectNotifier interface {
	SendProjectCreatedEmail(ctx context.Context, to string, data email.ProjectCreatedData) error
}

// InitHandlers builds the dependencies task handlers need.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.notifier = email.NewClient(cfg, logger)
}

func (j *JobService) handleProjectCreatedTask(ctx context.Context, t *asynq.Task) error {
	var p ProjectCreatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// A malformed payload never gets better, so don't retry it.
		return fmt.Errorf("failed to unmarshal project created payload: %v: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskProjectCreated).
		Str("project_id", p.ProjectID).
		Str("to", p.To).
		Logger()

	if j.notifier == nil {
		return fmt.Errorf("no notifier configured for %s", TaskProjectCreated)
	}

	log.Info().Msg("Processing project created task")

	err := j.notifier.SendProjectCreatedEmail(ctx, p.To, email.ProjectCreatedData{
		ProjectID:   p.ProjectID,
		ProjectName: p.ProjectName,
		About:       p.About,
		Github:      p.Github,
		Date:        p.Date,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send project created email")
		return err
	}

	log.Info().Msg("Successfully sent project created email")
	return nil
}
