package a2a

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCard() AgentCard {
	return AgentCard{
		Name:    "test-agent",
		URL:     "http://localhost:9999",
		Version: "0.1.0",
		Skills: []AgentSkill{
			{ID: "echo", Description: "echoes its input"},
			{ID: "boom", Description: "panics"},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(testCard(), nil)
	s.Register("echo", func(c *gin.Context, task Task) (interface{}, error) {
		return task.Input, nil
	})
	s.Register("boom", func(c *gin.Context, task Task) (interface{}, error) {
		panic("kaboom")
	})
	require.NoError(t, s.Validate())
	return s
}

func TestServerValidate_MissingHandler(t *testing.T) {
	s := NewServer(testCard(), nil)
	s.Register("echo", func(c *gin.Context, task Task) (interface{}, error) { return nil, nil })
	err := s.Validate()
	assert.Error(t, err)
}

func TestServerValidate_UnadvertisedHandler(t *testing.T) {
	card := AgentCard{Name: "x", Skills: []AgentSkill{{ID: "echo"}}}
	s := NewServer(card, nil)
	s.Register("echo", func(c *gin.Context, task Task) (interface{}, error) { return nil, nil })
	s.Register("extra", func(c *gin.Context, task Task) (interface{}, error) { return nil, nil })
	err := s.Validate()
	assert.Error(t, err)
}

func TestHandleTask_Echo(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := NewClient(2*time.Second, nil)
	client.Register("test-agent", srv.URL)

	result := client.Submit(context.Background(), "test-agent", "echo", map[string]interface{}{"hello": "world"}, SubmitOptions{})
	require.True(t, result.Success)
	out, ok := result.Output.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "world", out["hello"])
}

func TestHandleTask_UnknownSkill(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := NewClient(2*time.Second, nil)
	client.Register("test-agent", srv.URL)

	result := client.Submit(context.Background(), "test-agent", "nonexistent", nil, SubmitOptions{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "nonexistent")
}

func TestHandleTask_PanicRecovered(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := NewClient(2*time.Second, nil)
	client.Register("test-agent", srv.URL)

	result := client.Submit(context.Background(), "test-agent", "boom", nil, SubmitOptions{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestSubmit_UnknownAgent(t *testing.T) {
	client := NewClient(time.Second, nil)
	result := client.Submit(context.Background(), "ghost", "echo", nil, SubmitOptions{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown agent")
}

func TestSubmit_Timeout(t *testing.T) {
	s := NewServer(testCard(), nil)
	s.Register("echo", func(c *gin.Context, task Task) (interface{}, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, nil
	})
	s.Register("boom", func(c *gin.Context, task Task) (interface{}, error) { return nil, nil })
	require.NoError(t, s.Validate())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := NewClient(time.Second, nil)
	client.Register("test-agent", srv.URL)

	result := client.Submit(context.Background(), "test-agent", "echo", nil, SubmitOptions{Timeout: 5 * time.Millisecond})
	assert.False(t, result.Success)
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := NewClient(time.Second, nil)
	client.Register("test-agent", srv.URL)
	assert.True(t, client.Ping(context.Background(), "test-agent"))
	assert.False(t, client.Ping(context.Background(), "ghost"))
}

func TestAgentCard_HasSkill(t *testing.T) {
	card := testCard()
	assert.True(t, card.HasSkill("echo"))
	assert.False(t, card.HasSkill("nope"))
}
