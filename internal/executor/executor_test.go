package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/praxis/droneflow/internal/apperror"
	"github.com/praxis/droneflow/internal/toolendpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEndpoint struct {
	tools       map[string]bool
	callResults map[string]toolendpoint.Result
	callErrs    map[string]error
	listErr     error
	listCalls   int
}

func (f *fakeEndpoint) ListTools(ctx context.Context) ([]toolendpoint.Descriptor, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []toolendpoint.Descriptor
	for name := range f.tools {
		out = append(out, toolendpoint.Descriptor{Name: name})
	}
	return out, nil
}

func (f *fakeEndpoint) Has(name string) bool {
	return f.tools[name]
}

func (f *fakeEndpoint) Call(ctx context.Context, name string, args map[string]interface{}) (toolendpoint.Result, error) {
	if err, ok := f.callErrs[name]; ok {
		return nil, err
	}
	return f.callResults[name], nil
}

func TestGetDroneState_Success(t *testing.T) {
	ep := &fakeEndpoint{tools: map[string]bool{"drone.get_state": true}, callResults: map[string]toolendpoint.Result{
		"drone.get_state": {"x": 1.0},
	}}
	s := New(ep, nil)
	state, err := s.GetDroneState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, state["x"])
}

func TestGetDroneState_RefreshesOnMiss(t *testing.T) {
	ep := &fakeEndpoint{tools: map[string]bool{}, callResults: map[string]toolendpoint.Result{}}
	s := New(ep, nil)
	_, err := s.GetDroneState(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, ep.listCalls)
	kind, ok := apperror.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.KindMissingTool, kind)
}

func TestExecute_StopsOnErrorByDefault(t *testing.T) {
	ep := &fakeEndpoint{
		tools:    map[string]bool{"a": true, "b": true},
		callErrs: map[string]error{"a": fmt.Errorf("boom")},
	}
	s := New(ep, nil)
	result, err := s.Execute(context.Background(), []Step{{Tool: "a"}, {Tool: "b"}}, true)
	require.NoError(t, err)
	assert.False(t, result.AllSuccess)
	assert.Equal(t, 1, result.CompletedSteps)
	assert.Equal(t, 2, result.TotalSteps)
}

func TestExecute_ContinuesWhenStopOnErrorFalse(t *testing.T) {
	ep := &fakeEndpoint{
		tools:       map[string]bool{"a": true, "b": true},
		callErrs:    map[string]error{"a": fmt.Errorf("boom")},
		callResults: map[string]toolendpoint.Result{"b": {"ok": true}},
	}
	s := New(ep, nil)
	result, err := s.Execute(context.Background(), []Step{{Tool: "a"}, {Tool: "b"}}, false)
	require.NoError(t, err)
	assert.False(t, result.AllSuccess)
	assert.Equal(t, 2, result.CompletedSteps)
	assert.True(t, result.Results[1].Success)
}

func TestExecute_UnknownToolRecordsFailure(t *testing.T) {
	ep := &fakeEndpoint{tools: map[string]bool{}}
	s := New(ep, nil)
	result, err := s.Execute(context.Background(), []Step{{Tool: "ghost"}}, true)
	require.NoError(t, err)
	assert.False(t, result.AllSuccess)
	assert.Contains(t, result.Results[0].Error, "ghost")
}

func TestExecute_AllSuccess(t *testing.T) {
	ep := &fakeEndpoint{
		tools:       map[string]bool{"drone.take_off": true},
		callResults: map[string]toolendpoint.Result{"drone.take_off": {"ok": true}},
	}
	s := New(ep, nil)
	result, err := s.Execute(context.Background(), []Step{{Tool: "drone.take_off"}}, true)
	require.NoError(t, err)
	assert.True(t, result.AllSuccess)
	assert.Equal(t, 1, result.CompletedSteps)
}
