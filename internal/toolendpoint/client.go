// Package toolendpoint wraps the mark3labs/mcp-go stdio client the
// Executor launches as a child process to reach drone tools, grounded on
// Strob0t-CodeForge's internal/service/mcp_test_connection.go
// (mcpclient.NewStdioMCPClient, Initialize/ListTools/CallTool handshake).
package toolendpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpprotocol "github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

const missionToolName = "drone.run_mission"

// Descriptor is one tool advertised by the endpoint's tools/list.
type Descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

// Result is the parsed outcome of one tool invocation: the text content
// block parsed as JSON when possible, otherwise surfaced as {"text": ...}.
type Result map[string]interface{}

// Endpoint owns the single stdio connection to the tool child process.
// Connection is lazy: the first call to EnsureConnected, ListTools or Call
// launches the process; subsequent calls reuse it. The tool descriptor cache is a
// writer-singleton, refreshed only on miss or an explicit ListTools call.
type Endpoint struct {
	serverPath     string
	missionTimeout time.Duration
	defaultTimeout time.Duration
	logger         *logrus.Logger

	mu        sync.Mutex
	client    mcpclient.MCPClient
	connected bool
	cache     map[string]Descriptor

	// progressCh receives a signal each time the tool child process sends
	// a progress notification for the in-flight mission call. Buffered by
	// one so a burst of notifications between reads never blocks the
	// server's notification dispatch.
	progressCh chan struct{}
}

// New creates an Endpoint for the tool child process at serverPath.
// missionTimeout bounds drone.run_mission calls; defaultTimeout bounds
// every other tool.
func New(serverPath string, missionTimeout, defaultTimeout time.Duration, logger *logrus.Logger) *Endpoint {
	if logger == nil {
		logger = logrus.New()
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Endpoint{
		serverPath:     serverPath,
		missionTimeout: missionTimeout,
		defaultTimeout: defaultTimeout,
		logger:         logger,
		cache:          make(map[string]Descriptor),
		progressCh:     make(chan struct{}, 1),
	}
}

// EnsureConnected launches the child process and performs the MCP
// initialize handshake if it hasn't already.
func (e *Endpoint) EnsureConnected(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureConnectedLocked(ctx)
}

func (e *Endpoint) ensureConnectedLocked(ctx context.Context) error {
	if e.connected {
		return nil
	}

	client, err := mcpclient.NewStdioMCPClient(e.serverPath, nil)
	if err != nil {
		return fmt.Errorf("launch tool endpoint %q: %w", e.serverPath, err)
	}

	initReq := mcpprotocol.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpprotocol.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpprotocol.Implementation{Name: "droneflow-executor", Version: "1.0.0"}

	if _, err := client.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize tool endpoint: %w", err)
	}

	client.OnNotification(func(notification mcpprotocol.JSONRPCNotification) {
		if notification.Method != "notifications/progress" {
			return
		}
		select {
		case e.progressCh <- struct{}{}:
		default:
		}
	})

	e.client = client
	e.connected = true
	e.logger.Info("connected to tool endpoint")
	return nil
}

// ListTools refreshes the descriptor cache from the endpoint and returns
// it.
func (e *Endpoint) ListTools(ctx context.Context) ([]Descriptor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureConnectedLocked(ctx); err != nil {
		return nil, err
	}

	result, err := e.client.ListTools(ctx, mcpprotocol.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	e.cache = make(map[string]Descriptor, len(result.Tools))
	descriptors := make([]Descriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		d := Descriptor{Name: t.Name, Description: t.Description, InputSchema: schemaToMap(t.InputSchema)}
		e.cache[d.Name] = d
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// Close shuts down the child process connection, if one was established.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.connected {
		return nil
	}
	e.connected = false
	return e.client.Close()
}

// Has reports whether name is in the cached descriptor set without
// refreshing it.
func (e *Endpoint) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.cache[name]
	return ok
}

// Call invokes a tool by name with args, applying the per-tool timeout
// policy: drone.run_mission gets the configured mission ceiling, reset
// every time the child process reports progress on it, and every other
// tool gets a single fixed default timeout. It never cancels a mission
// because of the default deadline.
func (e *Endpoint) Call(ctx context.Context, name string, args map[string]interface{}) (Result, error) {
	e.mu.Lock()
	if err := e.ensureConnectedLocked(ctx); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	client := e.client
	e.mu.Unlock()

	req := mcpprotocol.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	if name == missionToolName {
		req.Params.Meta = &mcpprotocol.Meta{ProgressToken: mcpprotocol.ProgressToken(name)}
		return e.callWithProgressReset(ctx, client, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.defaultTimeout)
	defer cancel()

	result, err := client.CallTool(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("call tool %q: %w", name, err)
	}
	return parseContent(result), nil
}

// callWithProgressReset runs a drone.run_mission call whose deadline is a
// timer reset to the mission ceiling on every progress notification,
// instead of one fixed context.WithTimeout for the whole call — a long
// mission that keeps reporting progress is never killed early, while one
// that goes silent still times out after missionTimeout of silence.
func (e *Endpoint) callWithProgressReset(ctx context.Context, client mcpclient.MCPClient, req mcpprotocol.CallToolRequest) (Result, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		result *mcpprotocol.CallToolResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := client.CallTool(callCtx, req)
		done <- outcome{result, err}
	}()

	timer := time.NewTimer(e.missionTimeout)
	defer timer.Stop()

	for {
		select {
		case out := <-done:
			if out.err != nil {
				return nil, fmt.Errorf("call tool %q: %w", req.Params.Name, out.err)
			}
			return parseContent(out.result), nil
		case <-e.progressCh:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(e.missionTimeout)
		case <-timer.C:
			cancel()
			return nil, fmt.Errorf("call tool %q: no progress for %s", req.Params.Name, e.missionTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// parseContent flattens an MCP tool result's content blocks: the first
// text block is parsed as JSON when possible, otherwise surfaced as
// {"text": ...}.
func parseContent(result *mcpprotocol.CallToolResult) Result {
	if result == nil || len(result.Content) == 0 {
		return Result{}
	}

	for _, block := range result.Content {
		text, ok := block.(mcpprotocol.TextContent)
		if !ok {
			continue
		}
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(text.Text), &parsed); err == nil {
			return Result(parsed)
		}
		return Result{"text": text.Text}
	}
	return Result{}
}

func schemaToMap(schema mcpprotocol.ToolInputSchema) map[string]interface{} {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return out
}
