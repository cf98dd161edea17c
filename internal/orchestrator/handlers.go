package orchestrator

import (
	"github.com/gin-gonic/gin"
	"github.com/praxis/droneflow/internal/a2a"
)

// Card describes the Orchestrator agent's A2A capability descriptor. The
// Orchestrator is itself A2A-reachable (e.g. for a supervising agent) in
// addition to being the target of the user-facing HTTP API.
func Card(url string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:    "orchestrator",
		URL:     url,
		Version: "1.0.0",
		Skills: []a2a.AgentSkill{
			{ID: "chat", Description: "run the bounded plan/act/observe/reflect loop for a user request"},
		},
	}
}

// RegisterHandlers binds the Orchestrator's chat skill onto an a2a.Server.
func RegisterHandlers(server *a2a.Server, o *Orchestrator) {
	server.Register("chat", handleChat(o))
}

func handleChat(o *Orchestrator) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		message, _ := task.Input["message"].(string)
		mapID, _ := task.Input["map_id"].(string)
		filters, _ := task.Input["filters"].(map[string]interface{})
		req := ChatRequest{
			Message:   message,
			SessionID: task.SessionID,
			MapID:     mapID,
			Filters:   filters,
		}
		resp := o.Chat(c.Request.Context(), req)
		return resp, nil
	}
}
