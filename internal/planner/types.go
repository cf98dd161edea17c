// Package planner implements the Planner agent's two A2A skills, plan and
// reflect, grounded on the teacher's internal/llm/client.go prompt-building
// (buildSystemPrompt) and JSON-validation (ValidateWorkflowPlan) pair.
package planner

// ToolDescriptor describes one tool the Executor has discovered, the same
// shape the Executor's list_tools skill returns.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

// RetrievalHit mirrors retriever.RetrievalHit without importing that
// package, keeping the Planner's dependency surface to just the shapes it
// needs from a retrieval result.
type RetrievalHit struct {
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"similarity_score"`
}

// DroneState is an opaque snapshot of the drone's reported state, passed
// through to the prompt and echoed back in responses.
type DroneState map[string]interface{}

// Step is one planned tool invocation.
type Step struct {
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	Description string                 `json:"description,omitempty"`
}

// Plan is the output of the plan skill.
type Plan struct {
	Reasoning             string   `json:"reasoning"`
	NeedsClarification    bool     `json:"needs_clarification"`
	ClarificationQuestion string   `json:"clarification_question,omitempty"`
	MissingLocations      []string `json:"missing_locations,omitempty"`
	Steps                 []Step   `json:"steps"`
}

// ExecutionResult mirrors executor.ExecuteResult without importing that
// package, for the same reason as RetrievalHit above.
type ExecutionResult struct {
	AllSuccess      bool  `json:"all_success"`
	CompletedSteps  int   `json:"completed_steps"`
	TotalSteps      int   `json:"total_steps"`
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Reflection is the output of the reflect skill.
type Reflection struct {
	Observation  string  `json:"observation"`
	Reasoning    string  `json:"reasoning"`
	GoalAchieved bool    `json:"goal_achieved"`
	Confidence   float64 `json:"confidence"`
	NextSteps    []Step  `json:"next_steps,omitempty"`
	Summary      string  `json:"summary"`
}
