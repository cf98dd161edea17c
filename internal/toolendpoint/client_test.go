package toolendpoint

import (
	"testing"

	mcpprotocol "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestParseContent_JSONText(t *testing.T) {
	result := &mcpprotocol.CallToolResult{
		Content: []mcpprotocol.Content{
			mcpprotocol.TextContent{Type: "text", Text: `{"x": 1, "y": 2}`},
		},
	}
	parsed := parseContent(result)
	assert.Equal(t, float64(1), parsed["x"])
	assert.Equal(t, float64(2), parsed["y"])
}

func TestParseContent_PlainText(t *testing.T) {
	result := &mcpprotocol.CallToolResult{
		Content: []mcpprotocol.Content{
			mcpprotocol.TextContent{Type: "text", Text: "not json"},
		},
	}
	parsed := parseContent(result)
	assert.Equal(t, "not json", parsed["text"])
}

func TestParseContent_Empty(t *testing.T) {
	assert.Empty(t, parseContent(nil))
	assert.Empty(t, parseContent(&mcpprotocol.CallToolResult{}))
}

func TestEndpoint_HasBeforeConnect(t *testing.T) {
	e := New("/bin/true", 0, 0, nil)
	assert.False(t, e.Has("drone.get_state"))
}
