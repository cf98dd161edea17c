package executor

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/praxis/droneflow/internal/a2a"
)

// Card describes the Executor agent's A2A capability descriptor.
func Card(url string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:    "executor",
		URL:     url,
		Version: "1.0.0",
		Skills: []a2a.AgentSkill{
			{ID: "list_tools", Description: "refresh and return the tool catalog"},
			{ID: "get_drone_state", Description: "fetch the drone's current state"},
			{ID: "execute", Description: "run a sequence of planned tool calls"},
		},
	}
}

// RegisterHandlers binds the Executor's three skills onto an a2a.Server.
func RegisterHandlers(server *a2a.Server, skills *Skills) {
	server.Register("list_tools", handleListTools(skills))
	server.Register("get_drone_state", handleGetDroneState(skills))
	server.Register("execute", handleExecute(skills))
}

func handleListTools(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		return skills.ListTools(c.Request.Context())
	}
}

func handleGetDroneState(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		return skills.GetDroneState(c.Request.Context())
	}
}

func handleExecute(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		steps := decodeSteps(task.Input["steps"])
		stopOnError := true
		if v, ok := task.Input["stop_on_error"].(bool); ok {
			stopOnError = v
		}
		return skills.Execute(c.Request.Context(), steps, stopOnError)
	}
}

func decodeSteps(v interface{}) []Step {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var steps []Step
	_ = json.Unmarshal(raw, &steps)
	return steps
}
