package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskProjectCreated is emitted after a project is stored.
	TaskProjectCreated = "project:created"
)

// ProjectCreatedPayload is the JSON body of a project:created task.
type ProjectCreatedPayload struct {
	To          string `json:"to"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	About       string `json:"about"`
	Github      string `json:"github"`
	Date        string `json:"date"`
}

// NewProjectCreatedTask builds the task: default queue, 3 retries, 30s timeout.
func NewProjectCreatedTask(p ProjectCreatedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TaskProjectCreated, err)
	}

	return asynq.NewTask(
		TaskProjectCreated,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
