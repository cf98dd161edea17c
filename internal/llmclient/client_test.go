package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdownJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for input, want := range cases {
		assert.Equal(t, want, cleanMarkdownJSON(input))
	}
}

func TestNew_BuildsClient(t *testing.T) {
	c := New("fake-key", "https://example.com/v1/", "gemini-2.5-flash", "gemini-embedding-001", nil)
	assert.NotNil(t, c.client)
	assert.Equal(t, "gemini-2.5-flash", c.model)
	assert.Equal(t, "gemini-embedding-001", c.embeddingModel)
}
