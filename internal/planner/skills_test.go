package planner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	raw json.RawMessage
	err error
}

func (s *stubGenerator) GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (json.RawMessage, error) {
	return s.raw, s.err
}

var tools = []ToolDescriptor{
	{Name: "drone.take_off", Description: "take off"},
	{Name: "drone.move_to", Description: "move to a coordinate"},
}

func TestPlan_NoToolsAvailable(t *testing.T) {
	s := New(&stubGenerator{}, nil)
	_, err := s.Plan(context.Background(), "fly", nil, nil, nil)
	assert.Error(t, err)
}

func TestPlan_FiltersDisallowedAndMalformedSteps(t *testing.T) {
	raw := json.RawMessage(`{
		"reasoning": "go",
		"needs_clarification": false,
		"missing_locations": [" 3号 ", ""],
		"steps": [
			{"tool": "drone.take_off", "args": {}},
			{"tool": "drone.hack", "args": {}},
			{"tool": "drone.move_to", "args": "not-an-object"}
		]
	}`)
	s := New(&stubGenerator{raw: raw}, nil)
	plan, err := s.Plan(context.Background(), "fly", nil, nil, tools)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "drone.take_off", plan.Steps[0].Tool)
	assert.Equal(t, []string{"3号"}, plan.MissingLocations)
}

func TestPlan_ModelError(t *testing.T) {
	s := New(&stubGenerator{err: assertErr("down")}, nil)
	_, err := s.Plan(context.Background(), "fly", nil, nil, tools)
	assert.Error(t, err)
}

func TestReflect_ClampsConfidence(t *testing.T) {
	raw := json.RawMessage(`{"observation":"ok","reasoning":"r","goal_achieved":true,"confidence":1.5,"next_steps":[],"summary":"done"}`)
	s := New(&stubGenerator{raw: raw}, nil)
	reflection, err := s.Reflect(context.Background(), "fly", Plan{}, ExecutionResult{}, nil, nil, tools)
	require.NoError(t, err)
	assert.Equal(t, 1.0, reflection.Confidence)
	assert.True(t, reflection.GoalAchieved)
}

func TestReflect_NegativeConfidenceClamped(t *testing.T) {
	raw := json.RawMessage(`{"observation":"ok","reasoning":"r","goal_achieved":false,"confidence":-0.5,"next_steps":[],"summary":"no"}`)
	s := New(&stubGenerator{raw: raw}, nil)
	reflection, err := s.Reflect(context.Background(), "fly", Plan{}, ExecutionResult{}, nil, nil, tools)
	require.NoError(t, err)
	assert.Equal(t, 0.0, reflection.Confidence)
}

func TestReflect_FiltersNextStepsByAllowlist(t *testing.T) {
	raw := json.RawMessage(`{"observation":"o","reasoning":"r","goal_achieved":false,"confidence":0.5,"next_steps":[{"tool":"drone.unknown","args":{}},{"tool":"drone.move_to","args":{"x":1}}],"summary":"s"}`)
	s := New(&stubGenerator{raw: raw}, nil)
	reflection, err := s.Reflect(context.Background(), "fly", Plan{}, ExecutionResult{}, nil, nil, tools)
	require.NoError(t, err)
	require.Len(t, reflection.NextSteps, 1)
	assert.Equal(t, "drone.move_to", reflection.NextSteps[0].Tool)
}

type errString string

func (e errString) Error() string { return string(e) }
func assertErr(msg string) error  { return errString(msg) }
