// Package executor implements the Executor agent's three A2A skills —
// list_tools, get_drone_state, and execute — against a single
// toolendpoint.Endpoint connection it owns for the life of the process.
package executor

import (
	"context"
	"time"

	"github.com/praxis/droneflow/internal/apperror"
	"github.com/praxis/droneflow/internal/toolendpoint"
	"github.com/sirupsen/logrus"
)

const getStateTool = "drone.get_state"

// Step is one planned tool invocation, mirroring planner.Step without
// importing that package.
type Step struct {
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	Description string                 `json:"description,omitempty"`
}

// StepResult is the outcome of executing one Step.
type StepResult struct {
	Index       int                    `json:"index"`
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	Description string                 `json:"description,omitempty"`
	Success     bool                   `json:"success"`
	Result      toolendpoint.Result    `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	DurationMs  int64                  `json:"duration_ms"`
}

// ExecuteResult is the output of the execute skill.
type ExecuteResult struct {
	Results         []StepResult `json:"results"`
	AllSuccess      bool         `json:"all_success"`
	CompletedSteps  int          `json:"completed_steps"`
	TotalSteps      int          `json:"total_steps"`
	TotalDurationMs int64        `json:"total_duration_ms"`
}

// ToolEndpoint is the subset of toolendpoint.Endpoint the Executor
// depends on, narrowed so tests can stub the child-process connection.
type ToolEndpoint interface {
	ListTools(ctx context.Context) ([]toolendpoint.Descriptor, error)
	Has(name string) bool
	Call(ctx context.Context, name string, args map[string]interface{}) (toolendpoint.Result, error)
}

// Skills implements the Executor agent's handlers.
type Skills struct {
	endpoint ToolEndpoint
	logger   *logrus.Logger
}

// New creates a Skills handler set owning the given endpoint connection.
func New(endpoint ToolEndpoint, logger *logrus.Logger) *Skills {
	if logger == nil {
		logger = logrus.New()
	}
	return &Skills{endpoint: endpoint, logger: logger}
}

// ListTools refreshes the tool cache and returns its descriptors.
func (s *Skills) ListTools(ctx context.Context) ([]toolendpoint.Descriptor, error) {
	return s.endpoint.ListTools(ctx)
}

// GetDroneState calls drone.get_state after verifying its presence in the
// cache, attempting a single automatic refresh if it's missing.
func (s *Skills) GetDroneState(ctx context.Context) (toolendpoint.Result, error) {
	if !s.endpoint.Has(getStateTool) {
		if _, err := s.endpoint.ListTools(ctx); err != nil {
			return nil, err
		}
		if !s.endpoint.Has(getStateTool) {
			return nil, apperror.MissingTool(getStateTool)
		}
	}
	return s.endpoint.Call(ctx, getStateTool, nil)
}

// Execute runs steps in order, recording a StepResult for each. If
// stopOnError and a step fails, the remaining steps are abandoned.
func (s *Skills) Execute(ctx context.Context, steps []Step, stopOnError bool) (ExecuteResult, error) {
	start := time.Now()
	results := make([]StepResult, 0, len(steps))
	allSuccess := true

	for i, step := range steps {
		if !s.endpoint.Has(step.Tool) {
			if _, err := s.endpoint.ListTools(ctx); err != nil {
				return ExecuteResult{}, err
			}
		}
		if !s.endpoint.Has(step.Tool) {
			results = append(results, s.failureResult(i, step, apperror.UnknownTool(step.Tool)))
			allSuccess = false
			if stopOnError {
				break
			}
			continue
		}

		stepStart := time.Now()
		out, err := s.endpoint.Call(ctx, step.Tool, step.Args)
		duration := time.Since(stepStart).Milliseconds()

		if err != nil {
			s.logger.Warnf("step %d (%s) failed: %v", i, step.Tool, err)
			results = append(results, StepResult{
				Index: i, Tool: step.Tool, Args: step.Args, Description: step.Description,
				Success: false, Error: apperror.ToolInvocation(step.Tool, err).Error(),
				DurationMs: duration,
			})
			allSuccess = false
			if stopOnError {
				break
			}
			continue
		}

		results = append(results, StepResult{
			Index: i, Tool: step.Tool, Args: step.Args, Description: step.Description,
			Success: true, Result: out, DurationMs: duration,
		})
	}

	return ExecuteResult{
		Results:         results,
		AllSuccess:      allSuccess,
		CompletedSteps:  len(results),
		TotalSteps:      len(steps),
		TotalDurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (s *Skills) failureResult(index int, step Step, err error) StepResult {
	return StepResult{
		Index: index, Tool: step.Tool, Args: step.Args, Description: step.Description,
		Success: false, Error: err.Error(),
	}
}
