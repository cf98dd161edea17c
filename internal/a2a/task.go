package a2a

import "time"

// Task is a single skill invocation carried over the A2A transport.
// Produced at dispatch, consumed once by the receiving agent, never
// mutated afterwards.
type Task struct {
	ID        string                 `json:"id"`
	Skill     string                 `json:"skill"`
	Input     map[string]interface{} `json:"input"`
	SessionID string                 `json:"sessionId,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// TaskResult is the outcome of executing a Task.
type TaskResult struct {
	TaskID      string      `json:"taskId"`
	Success     bool        `json:"success"`
	Output      interface{} `json:"output,omitempty"`
	Error       string      `json:"error,omitempty"`
	DurationMs  int64       `json:"durationMs"`
	CompletedAt time.Time   `json:"completedAt"`
}

// Failure builds a failed TaskResult from an error, the shape every
// transport-level failure (network, timeout, unknown skill, handler panic)
// collapses into.
func Failure(taskID string, err error, durationMs int64) TaskResult {
	return TaskResult{
		TaskID:      taskID,
		Success:     false,
		Error:       err.Error(),
		DurationMs:  durationMs,
		CompletedAt: time.Now().UTC(),
	}
}

// Success builds a successful TaskResult.
func Success(taskID string, output interface{}, durationMs int64) TaskResult {
	return TaskResult{
		TaskID:      taskID,
		Success:     true,
		Output:      output,
		DurationMs:  durationMs,
		CompletedAt: time.Now().UTC(),
	}
}
