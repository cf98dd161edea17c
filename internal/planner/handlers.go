package planner

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/praxis/droneflow/internal/a2a"
)

// Card describes the Planner agent's A2A capability descriptor.
func Card(url string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:    "planner",
		URL:     url,
		Version: "1.0.0",
		Skills: []a2a.AgentSkill{
			{ID: "plan", Description: "produce a tool-call plan for a user request"},
			{ID: "reflect", Description: "judge whether the previous plan's execution achieved the goal"},
		},
	}
}

// RegisterHandlers binds the Planner's two skills onto an a2a.Server.
func RegisterHandlers(server *a2a.Server, skills *Skills) {
	server.Register("plan", handlePlan(skills))
	server.Register("reflect", handleReflect(skills))
}

func handlePlan(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		userRequest, _ := task.Input["user_request"].(string)
		hits := decodeHits(task.Input["rag_hits"])
		state := decodeDroneState(task.Input["drone_state"])
		tools := decodeTools(task.Input["available_tools"])
		return skills.Plan(c.Request.Context(), userRequest, hits, state, tools)
	}
}

func handleReflect(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		originalRequest, _ := task.Input["original_request"].(string)
		previousPlan := decodePlan(task.Input["previous_plan"])
		execResult := decodeExecutionResult(task.Input["execution_result"])
		state := decodeDroneState(task.Input["current_drone_state"])
		hits := decodeHits(task.Input["rag_hits"])
		tools := decodeTools(task.Input["available_tools"])
		return skills.Reflect(c.Request.Context(), originalRequest, previousPlan, execResult, state, hits, tools)
	}
}

func reencode[T any](v interface{}, out *T) {
	if v == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, out)
}

func decodeHits(v interface{}) []RetrievalHit {
	var out []RetrievalHit
	reencode(v, &out)
	return out
}

func decodeDroneState(v interface{}) DroneState {
	var out DroneState
	reencode(v, &out)
	return out
}

func decodeTools(v interface{}) []ToolDescriptor {
	var out []ToolDescriptor
	reencode(v, &out)
	return out
}

func decodePlan(v interface{}) Plan {
	var out Plan
	reencode(v, &out)
	return out
}

func decodeExecutionResult(v interface{}) ExecutionResult {
	var out ExecutionResult
	reencode(v, &out)
	return out
}
