package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/praxis/droneflow/internal/apperror"
	"github.com/sirupsen/logrus"
)

const planTemperature = 0.3
const reflectTemperature = 0.3

// Generator is the subset of llmclient.Client the Planner depends on.
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (json.RawMessage, error)
}

// Skills implements the Planner agent's plan and reflect handlers.
type Skills struct {
	generator Generator
	logger    *logrus.Logger
}

// New creates a Skills handler set.
func New(generator Generator, logger *logrus.Logger) *Skills {
	if logger == nil {
		logger = logrus.New()
	}
	return &Skills{generator: generator, logger: logger}
}

// Plan implements the `plan` skill: builds the prompt, calls the model,
// and validates the raw JSON against the tool allowlist before returning.
func (s *Skills) Plan(ctx context.Context, userRequest string, hits []RetrievalHit, state DroneState, tools []ToolDescriptor) (Plan, error) {
	if len(tools) == 0 {
		return Plan{}, apperror.NoToolsAvailable()
	}

	prompt := buildPlanPrompt(userRequest, hits, state, tools)
	raw, err := s.generator.GenerateJSON(ctx, planSystemPreamble, prompt, planTemperature)
	if err != nil {
		return Plan{}, apperror.Model("generate plan", err)
	}

	var rp rawPlan
	if err := json.Unmarshal(raw, &rp); err != nil {
		return Plan{}, apperror.Model("parse plan JSON", err)
	}

	allowed := allowedToolSet(tools)
	plan := Plan{
		Reasoning:             rp.Reasoning,
		NeedsClarification:    rp.NeedsClarification,
		ClarificationQuestion: rp.ClarificationQuestion,
		MissingLocations:      normalizeStrings(rp.MissingLocations),
		Steps:                 decodeSteps(rp.Steps, allowed, s.logger),
	}
	return plan, nil
}

// Reflect implements the `reflect` skill: builds the prompt, calls the
// model, clamps confidence to [0,1], and filters next_steps by the same
// tool allowlist used in Plan.
func (s *Skills) Reflect(ctx context.Context, originalRequest string, previousPlan Plan, execResult ExecutionResult, state DroneState, hits []RetrievalHit, tools []ToolDescriptor) (Reflection, error) {
	prompt := buildReflectPrompt(originalRequest, previousPlan, execResult, state, hits, tools)
	raw, err := s.generator.GenerateJSON(ctx, reflectSystemPreamble, prompt, reflectTemperature)
	if err != nil {
		return Reflection{}, apperror.Model("generate reflection", err)
	}

	var rr rawReflection
	if err := json.Unmarshal(raw, &rr); err != nil {
		return Reflection{}, apperror.Model("parse reflection JSON", err)
	}

	confidence := rr.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	allowed := allowedToolSet(tools)
	reflection := Reflection{
		Observation:  rr.Observation,
		Reasoning:    rr.Reasoning,
		GoalAchieved: rr.GoalAchieved,
		Confidence:   confidence,
		NextSteps:    decodeSteps(rr.NextSteps, allowed, s.logger),
		Summary:      rr.Summary,
	}
	if reflection.GoalAchieved {
		reflection.NextSteps = nil
	}
	return reflection, nil
}

func allowedToolSet(tools []ToolDescriptor) map[string]struct{} {
	set := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		set[t.Name] = struct{}{}
	}
	return set
}

// rawPlan and rawReflection decode the model's JSON leniently: steps is
// kept as raw JSON per-element so one step with malformed args never
// fails the whole response, matching the "drop the rest with a warning"
// validation rule.
type rawPlan struct {
	Reasoning             string            `json:"reasoning"`
	NeedsClarification    bool              `json:"needs_clarification"`
	ClarificationQuestion string            `json:"clarification_question"`
	MissingLocations      []string          `json:"missing_locations"`
	Steps                 []json.RawMessage `json:"steps"`
}

type rawReflection struct {
	Observation  string            `json:"observation"`
	Reasoning    string            `json:"reasoning"`
	GoalAchieved bool              `json:"goal_achieved"`
	Confidence   float64           `json:"confidence"`
	NextSteps    []json.RawMessage `json:"next_steps"`
	Summary      string            `json:"summary"`
}

// decodeSteps parses each raw step, dropping (with a warning) any step
// whose JSON is malformed, whose tool is not in the allowed set, or whose
// args did not decode as a JSON object.
func decodeSteps(raw []json.RawMessage, allowed map[string]struct{}, logger *logrus.Logger) []Step {
	out := make([]Step, 0, len(raw))
	for _, r := range raw {
		var step Step
		if err := json.Unmarshal(r, &step); err != nil {
			logger.Warnf("dropping malformed planned step: %v", err)
			continue
		}
		if _, ok := allowed[step.Tool]; !ok {
			logger.Warnf("dropping planned step for disallowed tool %q", step.Tool)
			continue
		}
		if step.Args == nil {
			logger.Warnf("dropping planned step for tool %q with non-object args", step.Tool)
			continue
		}
		out = append(out, step)
	}
	return out
}

func normalizeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
