package orchestrator

import (
	"context"
	"time"

	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/apperror"
	"github.com/praxis/droneflow/internal/obs"
)

// prepSmartRetrieve is the prep phase's retrieval step. Best-effort: a
// failure yields no hits rather than aborting the request.
func (o *Orchestrator) prepSmartRetrieve(ctx context.Context, requestID, sessionID, query string, filters map[string]interface{}) []Hit {
	start := time.Now()
	o.publish(obs.EventRetrieveStart, requestID, sessionID, 0, nil)

	result := o.client.Submit(ctx, "retriever", "smart_retrieve", map[string]interface{}{
		"query":   query,
		"filters": filters,
	}, a2a.SubmitOptions{})

	if !result.Success {
		o.logger.Warnf("smart_retrieve failed: %s", result.Error)
		o.publishEnd(obs.EventRetrieveEnd, requestID, sessionID, 0, start, map[string]interface{}{"success": false, "hit_count": 0})
		return nil
	}

	var out struct {
		Hits []Hit `json:"hits"`
	}
	if err := decodeOutput(result.Output, &out); err != nil {
		o.logger.Warnf("decode smart_retrieve output: %v", err)
		o.publishEnd(obs.EventRetrieveEnd, requestID, sessionID, 0, start, map[string]interface{}{"success": false, "hit_count": 0})
		return nil
	}
	o.publishEnd(obs.EventRetrieveEnd, requestID, sessionID, 0, start, map[string]interface{}{"success": true, "hit_count": len(out.Hits)})
	return out.Hits
}

// prepDroneState is the prep phase's drone-state fetch. Best-effort: a
// failure yields a nil state, letting the planner proceed without it.
func (o *Orchestrator) prepDroneState(ctx context.Context, requestID, sessionID string) map[string]interface{} {
	start := time.Now()
	o.publish(obs.EventStateStart, requestID, sessionID, 0, nil)
	state := o.fetchDroneState(ctx, requestID)
	o.publishEnd(obs.EventStateEnd, requestID, sessionID, 0, start, map[string]interface{}{"has_state": state != nil})
	return state
}

// prepListTools is the prep phase's tool-catalog fetch. Best-effort: a
// failure yields an empty catalog, which the planner treats as
// NoToolsAvailable.
func (o *Orchestrator) prepListTools(ctx context.Context, requestID, sessionID string) []map[string]interface{} {
	start := time.Now()
	o.publish(obs.EventToolsStart, requestID, sessionID, 0, nil)

	result := o.client.Submit(ctx, "executor", "list_tools", nil, a2a.SubmitOptions{})
	if !result.Success {
		o.logger.Warnf("list_tools failed: %s", result.Error)
		o.publishEnd(obs.EventToolsEnd, requestID, sessionID, 0, start, map[string]interface{}{"tool_count": 0})
		return nil
	}
	var tools []map[string]interface{}
	_ = decodeOutput(result.Output, &tools)
	o.publishEnd(obs.EventToolsEnd, requestID, sessionID, 0, start, map[string]interface{}{"tool_count": len(tools)})
	return tools
}

// callPlan invokes the Planner's plan skill. Unlike the prep-phase calls,
// a failure here aborts the request: without a plan there is nothing to
// act on.
func (o *Orchestrator) callPlan(ctx context.Context, requestID, sessionID string, iteration int, userRequest string, hits []Hit, state map[string]interface{}, tools []map[string]interface{}) (Plan, error) {
	start := time.Now()
	o.publish(obs.EventPlanStart, requestID, sessionID, iteration, nil)

	result := o.client.Submit(ctx, "planner", "plan", map[string]interface{}{
		"user_request":    userRequest,
		"rag_hits":        hits,
		"drone_state":     state,
		"available_tools": tools,
	}, a2a.SubmitOptions{})

	if !result.Success {
		o.publishEnd(obs.EventPlanEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false})
		return Plan{}, apperror.Model("plan", errString(result.Error))
	}
	var plan Plan
	if err := decodeOutput(result.Output, &plan); err != nil {
		o.publishEnd(obs.EventPlanEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false})
		return Plan{}, err
	}
	o.publishEnd(obs.EventPlanEnd, requestID, sessionID, iteration, start, map[string]interface{}{
		"success":             true,
		"needs_clarification": plan.NeedsClarification,
		"step_count":          len(plan.Steps),
	})
	return plan, nil
}

// callRetrieveMissing invokes the Retriever's retrieve_missing skill for
// the planner's reported missing_locations, wrapped as the loop's
// clarify-retry stage.
func (o *Orchestrator) callRetrieveMissing(ctx context.Context, requestID, sessionID string, iteration int, missingTargets []string, filters map[string]interface{}) []Hit {
	start := time.Now()
	o.publish(obs.EventClarifyRetryStart, requestID, sessionID, iteration, map[string]interface{}{"missing_locations": missingTargets})

	result := o.client.Submit(ctx, "retriever", "retrieve_missing", map[string]interface{}{
		"missing_targets": missingTargets,
		"filters":         filters,
	}, a2a.SubmitOptions{})

	if !result.Success {
		o.logger.Warnf("retrieve_missing failed: %s", result.Error)
		o.publishEnd(obs.EventClarifyRetryEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false, "hit_count": 0})
		return nil
	}
	var out struct {
		Hits []Hit `json:"hits"`
	}
	if err := decodeOutput(result.Output, &out); err != nil {
		o.publishEnd(obs.EventClarifyRetryEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false, "hit_count": 0})
		return nil
	}
	o.publishEnd(obs.EventClarifyRetryEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": true, "hit_count": len(out.Hits)})
	return out.Hits
}

// callExecute invokes the Executor's execute skill for one plan's steps.
func (o *Orchestrator) callExecute(ctx context.Context, requestID, sessionID string, iteration int, steps []Step) ExecuteResult {
	start := time.Now()
	o.publish(obs.EventActStart, requestID, sessionID, iteration, map[string]interface{}{"step_count": len(steps)})

	result := o.client.Submit(ctx, "executor", "execute", map[string]interface{}{
		"steps":         steps,
		"stop_on_error": true,
	}, a2a.SubmitOptions{})

	if !result.Success {
		o.logger.Warnf("execute failed: %s", result.Error)
		o.publishEnd(obs.EventActEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false, "step_count": len(steps)})
		return ExecuteResult{TotalSteps: len(steps)}
	}
	var execResult ExecuteResult
	if err := decodeOutput(result.Output, &execResult); err != nil {
		o.publishEnd(obs.EventActEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false, "step_count": len(steps)})
		return ExecuteResult{TotalSteps: len(steps)}
	}
	o.publishEnd(obs.EventActEnd, requestID, sessionID, iteration, start, map[string]interface{}{
		"success":         execResult.AllSuccess,
		"completed_steps": execResult.CompletedSteps,
		"total_steps":     execResult.TotalSteps,
	})
	return execResult
}

// observeDroneState re-fetches drone state after acting, feeding the next
// reflect/plan call. A distinct stage from the prep phase's state fetch,
// even though both call the same executor skill.
func (o *Orchestrator) observeDroneState(ctx context.Context, requestID, sessionID string, iteration int) map[string]interface{} {
	start := time.Now()
	o.publish(obs.EventObserveStart, requestID, sessionID, iteration, nil)
	state := o.fetchDroneState(ctx, requestID)
	o.publishEnd(obs.EventObserveEnd, requestID, sessionID, iteration, start, map[string]interface{}{"has_state": state != nil})
	return state
}

// fetchDroneState is the shared, unpublished get_drone_state call used by
// both prepDroneState and observeDroneState, which each wrap it in their
// own start/end event pair.
func (o *Orchestrator) fetchDroneState(ctx context.Context, requestID string) map[string]interface{} {
	result := o.client.Submit(ctx, "executor", "get_drone_state", nil, a2a.SubmitOptions{})
	if !result.Success {
		o.logger.Warnf("get_drone_state failed: %s", result.Error)
		return nil
	}
	var state map[string]interface{}
	_ = decodeOutput(result.Output, &state)
	return state
}

// callReflect invokes the Planner's reflect skill to judge whether the
// previous plan's execution achieved the user's goal.
func (o *Orchestrator) callReflect(ctx context.Context, requestID, sessionID string, iteration int, originalRequest string, plan Plan, execResult ExecuteResult, state map[string]interface{}, hits []Hit, tools []map[string]interface{}) (Reflection, error) {
	start := time.Now()
	o.publish(obs.EventReflectStart, requestID, sessionID, iteration, nil)

	result := o.client.Submit(ctx, "planner", "reflect", map[string]interface{}{
		"original_request":    originalRequest,
		"previous_plan":       plan,
		"execution_result":    execResult,
		"current_drone_state": state,
		"rag_hits":            hits,
		"available_tools":     tools,
	}, a2a.SubmitOptions{})

	if !result.Success {
		o.publishEnd(obs.EventReflectEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false})
		return Reflection{}, apperror.Model("reflect", errString(result.Error))
	}
	var reflection Reflection
	if err := decodeOutput(result.Output, &reflection); err != nil {
		o.publishEnd(obs.EventReflectEnd, requestID, sessionID, iteration, start, map[string]interface{}{"success": false})
		return Reflection{}, err
	}
	o.publishEnd(obs.EventReflectEnd, requestID, sessionID, iteration, start, map[string]interface{}{
		"success":       true,
		"goal_achieved": reflection.GoalAchieved,
		"confidence":    reflection.Confidence,
	})
	return reflection, nil
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

func errString(s string) error {
	if s == "" {
		s = "unknown error"
	}
	return simpleError(s)
}
