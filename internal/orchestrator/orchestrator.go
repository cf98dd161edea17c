package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/obs"
	"github.com/praxis/droneflow/internal/session"
	"github.com/sirupsen/logrus"
)

// Submitter is the subset of a2a.Client the Orchestrator depends on,
// narrowed so tests can stub the Retriever/Planner/Executor without
// running real HTTP servers.
type Submitter interface {
	Submit(ctx context.Context, agent, skill string, input map[string]interface{}, opts a2a.SubmitOptions) a2a.TaskResult
}

// Orchestrator drives the bounded ReAct loop for chat requests, owning
// the process's session store and event bus.
type Orchestrator struct {
	client             Submitter
	sessions           *session.Store
	bus                *obs.Bus
	logger             *logrus.Logger
	maxReactIterations int
	maxRAGRetries      int
}

// New creates an Orchestrator.
func New(client Submitter, sessions *session.Store, bus *obs.Bus, maxReactIterations, maxRAGRetries int, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Orchestrator{
		client:             client,
		sessions:           sessions,
		bus:                bus,
		logger:             logger,
		maxReactIterations: maxReactIterations,
		maxRAGRetries:      maxRAGRetries,
	}
}

// Chat is the Orchestrator's entry point. It never returns a Go error:
// every failure surfaces as a well-formed ChatResponse with a non-empty
// Error field, per the failure-semantics contract every caller relies on.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) ChatResponse {
	start := time.Now()
	requestID := uuid.New().String()

	sessionID := req.SessionID
	if sessionID == "" || !o.sessions.Exists(sessionID) {
		sessionID = o.sessions.Create()
	}
	o.sessions.AppendUser(sessionID, req.Message)

	o.publish(obs.EventRequestStart, requestID, sessionID, 0, nil)

	resp := o.run(ctx, requestID, sessionID, req, start)

	o.sessions.AppendAssistant(sessionID, resp.Answer)
	if resp.Error != "" {
		o.publish(obs.EventRequestError, requestID, sessionID, resp.ReactIterations, map[string]interface{}{"error": resp.Error})
	} else {
		o.publishEnd(obs.EventRequestEnd, requestID, sessionID, resp.ReactIterations, start, nil)
	}
	return resp
}

func (o *Orchestrator) run(ctx context.Context, requestID, sessionID string, req ChatRequest, start time.Time) ChatResponse {
	filters := req.Filters
	if filters == nil {
		filters = map[string]interface{}{}
	}
	if req.MapID != "" {
		filters["map_id"] = req.MapID
	}

	ragHits := o.prepSmartRetrieve(ctx, requestID, sessionID, req.Message, filters)
	droneState := o.prepDroneState(ctx, requestID, sessionID)
	tools := o.prepListTools(ctx, requestID, sessionID)

	iteration := 0
	ragRetryCount := 0
	goalAchieved := false
	var lastPlan Plan
	var lastExec ExecuteResult
	var reflections []Reflection

	for iteration < o.maxReactIterations && !goalAchieved {
		iteration++

		plan, err := o.callPlan(ctx, requestID, sessionID, iteration, req.Message, ragHits, droneState, tools)
		if err != nil {
			return o.failedResponse(sessionID, requestID, iteration, ragRetryCount, ragHits, err, start)
		}
		lastPlan = plan

		if plan.NeedsClarification {
			if len(plan.MissingLocations) > 0 && ragRetryCount < o.maxRAGRetries {
				ragRetryCount++
				newHits := o.callRetrieveMissing(ctx, requestID, sessionID, iteration, plan.MissingLocations, filters)
				merged, addedCount := mergeHits(ragHits, newHits)
				ragHits = merged
				if addedCount > 0 {
					continue
				}
			}
			return o.clarificationResponse(sessionID, requestID, iteration, ragRetryCount, ragHits, plan, start)
		}

		if len(plan.Steps) == 0 {
			goalAchieved = true
			break
		}

		execResult := o.callExecute(ctx, requestID, sessionID, iteration, plan.Steps)
		lastExec = execResult

		droneState = o.observeDroneState(ctx, requestID, sessionID, iteration)

		reflection, err := o.callReflect(ctx, requestID, sessionID, iteration, req.Message, plan, execResult, droneState, ragHits, tools)
		if err != nil {
			o.logger.Warnf("reflection failed, ending loop assuming completion: %v", err)
			break
		}
		reflections = append(reflections, reflection)

		if reflection.GoalAchieved && reflection.Confidence >= 0.8 {
			goalAchieved = true
			break
		}
		if len(reflection.NextSteps) == 0 {
			break
		}
	}

	answer := buildAnswer(lastPlan, lastExec, reflections, iteration)
	return ChatResponse{
		SessionID:        sessionID,
		RequestID:        requestID,
		Answer:           answer,
		Plan:             lastPlan,
		Reasoning:        lastPlan.Reasoning,
		ToolCalls:        lastExec.Results,
		RAGHits:          ragHits,
		ExecutionSuccess: lastExec.AllSuccess,
		GoalAchieved:     goalAchieved,
		ReactIterations:  iteration,
		RAGRetries:       ragRetryCount,
		Reflections:      reflections,
		DurationMs:       time.Since(start).Milliseconds(),
	}
}

func (o *Orchestrator) failedResponse(sessionID, requestID string, iteration, ragRetries int, hits []Hit, err error, start time.Time) ChatResponse {
	return ChatResponse{
		SessionID:       sessionID,
		RequestID:       requestID,
		Answer:          fmt.Sprintf("I couldn't come up with a plan for that request: %v", err),
		RAGHits:         hits,
		ReactIterations: iteration,
		RAGRetries:      ragRetries,
		DurationMs:      time.Since(start).Milliseconds(),
		Error:           err.Error(),
	}
}

// clarificationResponse builds the terminal response when a plan needs
// clarification. It publishes no event of its own: Chat's caller-level
// request_end already fires for this response since NeedsClarification
// responses carry no Error, and a second event here would double-count
// against invariant §8.7's per-request duration sum.
func (o *Orchestrator) clarificationResponse(sessionID, requestID string, iteration, ragRetries int, hits []Hit, plan Plan, start time.Time) ChatResponse {
	return ChatResponse{
		SessionID:          sessionID,
		RequestID:          requestID,
		Answer:             plan.ClarificationQuestion,
		Plan:               plan,
		Reasoning:          plan.Reasoning,
		RAGHits:            hits,
		NeedsClarification: true,
		ReactIterations:    iteration,
		RAGRetries:         ragRetries,
		DurationMs:         time.Since(start).Milliseconds(),
	}
}

func buildAnswer(plan Plan, exec ExecuteResult, reflections []Reflection, iteration int) string {
	var parts []string
	if plan.Reasoning != "" {
		parts = append(parts, plan.Reasoning)
	}
	if exec.TotalSteps > 0 {
		parts = append(parts, fmt.Sprintf("Executed %d/%d steps successfully.", countSuccess(exec.Results), exec.TotalSteps))
	}
	if len(reflections) > 0 {
		parts = append(parts, reflections[len(reflections)-1].Summary)
	}
	if iteration > 1 {
		parts = append(parts, fmt.Sprintf("(after %d iterations)", iteration))
	}
	if len(parts) == 0 {
		return "No action was needed for this request."
	}
	return strings.Join(parts, " ")
}

func countSuccess(results []StepResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

func mergeHits(existing, added []Hit) ([]Hit, int) {
	seen := make(map[string]bool, len(existing))
	for _, h := range existing {
		seen[h.ChunkText] = true
	}
	added_ := 0
	out := existing
	for _, h := range added {
		if seen[h.ChunkText] {
			continue
		}
		seen[h.ChunkText] = true
		out = append(out, h)
		added_++
	}
	return out, added_
}

func (o *Orchestrator) publish(eventType obs.EventType, requestID, sessionID string, iteration int, payload map[string]interface{}) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(obs.Event{
		Type:      eventType,
		RequestID: requestID,
		SessionID: sessionID,
		Agent:     "orchestrator",
		Iteration: iteration,
		Payload:   payload,
	})
}

// publishEnd publishes a stage's *_end event with duration_ms measured
// from start folded into its payload, so invariant checks over the sum of
// *_end durations can be computed directly off the event stream.
func (o *Orchestrator) publishEnd(eventType obs.EventType, requestID, sessionID string, iteration int, start time.Time, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["duration_ms"] = time.Since(start).Milliseconds()
	o.publish(eventType, requestID, sessionID, iteration, payload)
}

func decodeOutput(output interface{}, out interface{}) error {
	raw, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal task output: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal task output: %w", err)
	}
	return nil
}
