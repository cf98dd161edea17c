package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/obs"
	"github.com/praxis/droneflow/internal/orchestrator"
	"github.com/praxis/droneflow/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	responses map[string]a2a.TaskResult
}

func (s *stubSubmitter) Submit(ctx context.Context, agent, skill string, input map[string]interface{}, opts a2a.SubmitOptions) a2a.TaskResult {
	if r, ok := s.responses[agent+"/"+skill]; ok {
		return r
	}
	return a2a.TaskResult{Success: false, Error: "no stub"}
}

type stubPinger struct {
	up map[string]bool
}

func (p *stubPinger) Ping(ctx context.Context, agent string) bool {
	return p.up[agent]
}

func newTestServer() *Server {
	sub := &stubSubmitter{responses: map[string]a2a.TaskResult{
		"retriever/smart_retrieve": {Success: true, Output: map[string]interface{}{"hits": []interface{}{}}},
		"executor/get_drone_state": {Success: true, Output: map[string]interface{}{}},
		"executor/list_tools":      {Success: true, Output: []interface{}{}},
		"planner/plan": {Success: true, Output: map[string]interface{}{
			"needs_clarification": false, "steps": []interface{}{},
		}},
	}}
	sessions := session.NewStore(10)
	bus := obs.NewBus(nil, 32)
	orch := orchestrator.New(sub, sessions, bus, 3, 2, nil)
	pinger := &stubPinger{up: map[string]bool{"planner": true, "retriever": true, "executor": true}}
	return NewServer(orch, sessions, bus, nil, pinger, []string{"planner", "retriever", "executor"})
}

func TestGetHealth(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string          `json:"status"`
		Agents map[string]bool `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, map[string]bool{"planner": true, "retriever": true, "executor": true}, body.Agents)
}

func TestGetHealth_Degraded(t *testing.T) {
	sessions := session.NewStore(10)
	bus := obs.NewBus(nil, 32)
	orch := orchestrator.New(&stubSubmitter{}, sessions, bus, 3, 2, nil)
	pinger := &stubPinger{up: map[string]bool{"planner": true}}
	s := NewServer(orch, sessions, bus, nil, pinger, []string{"planner", "retriever", "executor"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.router.ServeHTTP(rec, req)

	var body struct {
		Status string          `json:"status"`
		Agents map[string]bool `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.False(t, body.Agents["retriever"])
}

func TestPostChat(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(chatRequestBody{Message: "hello"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orchestrator.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.True(t, resp.GoalAchieved)
}

func TestPostChat_MissingMessage(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(chatRequestBody{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.SessionID)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.SessionID+"/history", nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/sessions/"+created.SessionID, nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var deleted struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.True(t, deleted.Success)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.SessionID+"/history", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var afterDelete struct {
		SessionID string          `json:"session_id"`
		History   []session.Turn `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &afterDelete))
	assert.Empty(t, afterDelete.History)
}

func TestGetSessionHistory_NotFound(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/does-not-exist/history", nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
