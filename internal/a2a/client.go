package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubmitOptions controls one Submit call.
type SubmitOptions struct {
	SessionID string
	Timeout   time.Duration
}

// Client keeps a name→URL registry of agents and submits tasks to them
// over HTTP, imposing a per-call deadline and never letting a network
// failure, non-OK response, or timeout propagate as anything other than a
// failed TaskResult.
type Client struct {
	mu      sync.RWMutex
	agents  map[string]string
	http    *http.Client
	logger  *logrus.Logger
	timeout time.Duration
}

// NewClient creates a Client with a default per-call timeout used when
// SubmitOptions.Timeout is zero.
func NewClient(defaultTimeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		agents:  make(map[string]string),
		http:    &http.Client{},
		logger:  logger,
		timeout: defaultTimeout,
	}
}

// Register adds or updates an agent's base URL in the registry.
func (c *Client) Register(agent, baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[agent] = baseURL
}

func (c *Client) urlFor(agent string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.agents[agent]
	return url, ok
}

// Submit dispatches input to the named agent's skill and returns its
// TaskResult. It never returns a transport-level error: failures are
// encoded in the returned TaskResult itself, matching the A2A transport's
// failure semantics.
func (c *Client) Submit(ctx context.Context, agent, skill string, input map[string]interface{}, opts SubmitOptions) TaskResult {
	start := time.Now()
	taskID := uuid.New().String()

	baseURL, ok := c.urlFor(agent)
	if !ok {
		return Failure(taskID, fmt.Errorf("unknown agent %q in registry", agent), time.Since(start).Milliseconds())
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	task := Task{
		ID:        taskID,
		Skill:     skill,
		Input:     input,
		SessionID: opts.SessionID,
		CreatedAt: time.Now().UTC(),
	}

	body, err := json.Marshal(task)
	if err != nil {
		return Failure(taskID, fmt.Errorf("marshal task: %w", err), time.Since(start).Milliseconds())
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return Failure(taskID, fmt.Errorf("build request: %w", err), time.Since(start).Milliseconds())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"agent": agent, "skill": skill}).Warnf("A2A submit failed: %v", err)
		return Failure(taskID, fmt.Errorf("dispatch to %s/%s: %w", agent, skill, err), time.Since(start).Milliseconds())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Failure(taskID, fmt.Errorf("%s/%s returned HTTP %d", agent, skill, resp.StatusCode), time.Since(start).Milliseconds())
	}

	var result TaskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failure(taskID, fmt.Errorf("decode response from %s/%s: %w", agent, skill, err), time.Since(start).Milliseconds())
	}
	return result
}

// Ping checks an agent's liveness endpoint.
func (c *Client) Ping(ctx context.Context, agent string) bool {
	baseURL, ok := c.urlFor(agent)
	if !ok {
		return false
	}
	callCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
