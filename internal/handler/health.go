package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/middleware"
	"github.com/deppfellow/portfolio/internal/server"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck pings one dependency. A failing Required check turns the
// whole report unhealthy.
type HealthCheck struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

type HealthHandler struct {
	Handler
	checks []HealthCheck
}

// NewHealthHandler checks the database (required) and Redis (optional,
// the cache and job queue degrade without it).
func NewHealthHandler(s *server.Server, extra ...HealthCheck) *HealthHandler {
	var checks []HealthCheck
	if s.DB != nil {
		checks = append(checks, HealthCheck{Name: "database", Required: true, Ping: s.DB.Ping})
	}
	if s.Redis != nil {
		checks = append(checks, HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}})
	}

	return &HealthHandler{Handler: NewHandler(s), checks: append(checks, extra...)}
}

type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// CheckHealth answers 200 when every required check passes, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]CheckResult, len(h.checks)),
	}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		checkStart := time.Now()
		err := check.Ping(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err != nil {
			response.Checks[check.Name] = CheckResult{Status: "unhealthy", ResponseTime: elapsed.String(), Error: err.Error()}
			if check.Required {
				response.Status = "unhealthy"
			}

			logger.Error().Err(err).Str("check", check.Name).Dur("response_time", elapsed).Msg("health check failed")
			h.recordFailure(check.Name, elapsed, err)
			continue
		}

		response.Checks[check.Name] = CheckResult{Status: "healthy", ResponseTime: elapsed.String()}
		logger.Debug().Str("check", check.Name).Dur("response_time", elapsed).Msg("health check passed")
	}

	if response.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]any{
		"check_type":       check,
		"operation":        "health_check",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
