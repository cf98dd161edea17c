// Package orchestrator implements the Orchestrator agent's core ReAct
// loop: prep (retrieve, drone state, tools) then plan→clarify-retry→
// act→observe→reflect, bounded by max_react_iterations and
// max_rag_retries, fanning out to the Retriever, Planner, and Executor
// over the A2A transport.
package orchestrator

// ChatRequest is the Chat entry point's input.
type ChatRequest struct {
	Message   string                 `json:"message"`
	SessionID string                 `json:"session_id,omitempty"`
	MapID     string                 `json:"map_id,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

// Hit is a retrieval hit as surfaced in a ChatResponse.
type Hit struct {
	ChunkID   string  `json:"chunk_id"`
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"similarity_score"`
}

// Plan mirrors planner.Plan for the orchestrator's own JSON decoding of
// A2A task outputs, avoiding an import cycle back into internal/planner.
type Plan struct {
	Reasoning             string   `json:"reasoning"`
	NeedsClarification    bool     `json:"needs_clarification"`
	ClarificationQuestion string   `json:"clarification_question,omitempty"`
	MissingLocations      []string `json:"missing_locations,omitempty"`
	Steps                 []Step   `json:"steps"`
}

// Step is one planned tool invocation.
type Step struct {
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	Description string                 `json:"description,omitempty"`
}

// Reflection mirrors planner.Reflection.
type Reflection struct {
	Observation  string  `json:"observation"`
	Reasoning    string  `json:"reasoning"`
	GoalAchieved bool    `json:"goal_achieved"`
	Confidence   float64 `json:"confidence"`
	NextSteps    []Step  `json:"next_steps,omitempty"`
	Summary      string  `json:"summary"`
}

// StepResult mirrors executor.StepResult.
type StepResult struct {
	Index       int                    `json:"index"`
	Tool        string                 `json:"tool"`
	Args        map[string]interface{} `json:"args"`
	Description string                 `json:"description,omitempty"`
	Success     bool                   `json:"success"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	DurationMs  int64                  `json:"duration_ms"`
}

// ExecuteResult mirrors executor.ExecuteResult.
type ExecuteResult struct {
	Results         []StepResult `json:"results"`
	AllSuccess      bool         `json:"all_success"`
	CompletedSteps  int          `json:"completed_steps"`
	TotalSteps      int          `json:"total_steps"`
	TotalDurationMs int64        `json:"total_duration_ms"`
}

// ChatResponse is the Chat entry point's output. Success and failure share
// this one shape; needs_clarification and error are omitted from the JSON
// when unset.
type ChatResponse struct {
	SessionID          string       `json:"session_id"`
	RequestID          string       `json:"request_id"`
	Answer             string       `json:"answer"`
	Plan               Plan         `json:"plan"`
	Reasoning          string       `json:"reasoning"`
	ToolCalls          []StepResult `json:"tool_calls"`
	RAGHits            []Hit        `json:"rag_hits"`
	ExecutionSuccess   bool         `json:"execution_success"`
	GoalAchieved       bool         `json:"goal_achieved"`
	ReactIterations    int          `json:"react_iterations"`
	RAGRetries         int          `json:"rag_retries"`
	NeedsClarification bool         `json:"needs_clarification,omitempty"`
	Reflections        []Reflection `json:"reflections"`
	DurationMs         int64        `json:"duration_ms"`
	Error              string       `json:"error,omitempty"`
}
