package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

const planSystemPreamble = `You are the mission planner for a drone-control system.

CONSTRAINTS:
- You may only use tool names from the AVAILABLE TOOLS list below. Never invent a tool.
- Arguments you provide for a tool must match that tool's input schema.
- Coordinate frame: +X is right, +Z is down, +Y is up.
- Default flight altitude is 1.0 when not otherwise specified.
- Default side length for an unspecified shape is 2.0.
- The drone must take off before any move command is issued.

Respond with strict JSON only, no prose outside the JSON object, in exactly this shape:
{"reasoning": "...", "needs_clarification": false, "clarification_question": "", "missing_locations": [], "steps": [{"tool": "...", "args": {}, "description": "..."}]}`

const reflectSystemPreamble = `You are the mission reflector for a drone-control system, judging whether the
most recent execution achieved the user's original request.

Respond with strict JSON only, no prose outside the JSON object, in exactly this shape:
{"observation": "...", "reasoning": "...", "goal_achieved": false, "confidence": 0.0, "next_steps": [{"tool": "...", "args": {}, "description": "..."}], "summary": "..."}`

func formatTools(tools []ToolDescriptor) string {
	if len(tools) == 0 {
		return "AVAILABLE TOOLS: (none)"
	}
	var b strings.Builder
	b.WriteString("AVAILABLE TOOLS:\n")
	for _, t := range tools {
		b.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
		if len(t.InputSchema) > 0 {
			schema, _ := json.Marshal(t.InputSchema)
			b.WriteString(fmt.Sprintf("  schema: %s\n", schema))
		}
	}
	return b.String()
}

func formatHits(hits []RetrievalHit) string {
	if len(hits) == 0 {
		return "RETRIEVAL HITS: (none)"
	}
	var b strings.Builder
	b.WriteString("RETRIEVAL HITS:\n")
	for _, h := range hits {
		b.WriteString(fmt.Sprintf("- (%.0f%%) %s\n", h.Score*100, h.ChunkText))
	}
	return b.String()
}

func formatDroneState(state DroneState) string {
	if len(state) == 0 {
		return "DRONE STATE: unknown"
	}
	raw, _ := json.Marshal(state)
	return fmt.Sprintf("DRONE STATE: %s", raw)
}

func buildPlanPrompt(userRequest string, hits []RetrievalHit, state DroneState, tools []ToolDescriptor) string {
	var b strings.Builder
	b.WriteString(formatTools(tools))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("USER REQUEST: %s\n\n", userRequest))
	b.WriteString(formatHits(hits))
	b.WriteString("\n")
	b.WriteString(formatDroneState(state))
	return b.String()
}

func buildReflectPrompt(originalRequest string, previousPlan Plan, execResult ExecutionResult, state DroneState, hits []RetrievalHit, tools []ToolDescriptor) string {
	var b strings.Builder
	b.WriteString(formatTools(tools))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("ORIGINAL REQUEST: %s\n\n", originalRequest))

	planJSON, _ := json.Marshal(previousPlan)
	b.WriteString(fmt.Sprintf("PREVIOUS PLAN: %s\n\n", planJSON))

	execJSON, _ := json.Marshal(execResult)
	b.WriteString(fmt.Sprintf("EXECUTION RESULT: %s\n\n", execJSON))

	b.WriteString(formatDroneState(state))
	b.WriteString("\n")
	b.WriteString(formatHits(hits))
	return b.String()
}
