package retriever

import (
	"github.com/gin-gonic/gin"
	"github.com/praxis/droneflow/internal/a2a"
)

// Card describes the Retriever agent's A2A capability descriptor.
func Card(url string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:    "retriever",
		URL:     url,
		Version: "1.0.0",
		Skills: []a2a.AgentSkill{
			{ID: "retrieve", Description: "direct vector similarity retrieval"},
			{ID: "smart_retrieve", Description: "intent-decomposing retrieval"},
			{ID: "retrieve_missing", Description: "targeted re-retrieval with broadened criteria"},
		},
	}
}

// RegisterHandlers binds the Retriever's three skills onto an a2a.Server.
func RegisterHandlers(server *a2a.Server, skills *Skills) {
	server.Register("retrieve", handleRetrieve(skills))
	server.Register("smart_retrieve", handleSmartRetrieve(skills))
	server.Register("retrieve_missing", handleRetrieveMissing(skills))
}

func handleRetrieve(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		query, _ := task.Input["query"].(string)
		topK := intField(task.Input, "top_k", 5)
		filters := filtersFromInput(task.Input)
		return skills.Retrieve(c.Request.Context(), query, topK, filters)
	}
}

func handleSmartRetrieve(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		query, _ := task.Input["query"].(string)
		filters := filtersFromInput(task.Input)
		return skills.SmartRetrieve(c.Request.Context(), query, filters)
	}
}

func handleRetrieveMissing(skills *Skills) a2a.SkillHandler {
	return func(c *gin.Context, task a2a.Task) (interface{}, error) {
		targets := stringSliceField(task.Input, "missing_targets")
		filters := filtersFromInput(task.Input)
		return skills.RetrieveMissing(c.Request.Context(), targets, filters)
	}
}

func filtersFromInput(input map[string]interface{}) Filters {
	raw, ok := input["filters"].(map[string]interface{})
	if !ok {
		return Filters{}
	}
	f := Filters{}
	if mapID, ok := raw["map_id"].(string); ok {
		f.MapID = mapID
	}
	f.Tags = stringSliceField(raw, "tags")
	return f
}

func intField(input map[string]interface{}, key string, def int) int {
	v, ok := input[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return int(f)
}

func stringSliceField(input map[string]interface{}, key string) []string {
	raw, ok := input[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
