// Package config loads droneflow's runtime configuration in two phases,
// mirroring the teacher's internal/config: start from hardcoded defaults,
// then apply environment-variable overrides, then validate.
package config

import (
	"fmt"

	"github.com/praxis/droneflow/pkg/utils"
)

// AppConfig is the full runtime configuration for any droneflow process.
// Every process (orchestrator, planner, retriever, executor, cli) loads
// the same struct and ignores the fields it doesn't need.
type AppConfig struct {
	Model        ModelConfig
	VectorStore  VectorStoreConfig
	Ports        PortsConfig
	ToolEndpoint ToolEndpointConfig
	Loop         LoopConfig
	Debug        bool
}

// ModelConfig configures the LLM and embedding model used via the
// OpenAI-compatible client pointed at Gemini's endpoint.
type ModelConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	BaseURL        string
}

// VectorStoreConfig configures the Postgres/pgvector connection.
type VectorStoreConfig struct {
	URL        string
	ServiceKey string
}

// PortsConfig lists the A2A and HTTP listen ports for each agent process.
type PortsConfig struct {
	Orchestrator int
	Planner      int
	Retriever    int
	Executor     int
	WebAPI       int
}

// ToolEndpointConfig configures the MCP stdio child process the Executor
// launches to reach drone tools.
type ToolEndpointConfig struct {
	ServerPath       string
	MissionTimeoutMs int
}

// LoopConfig bounds the orchestrator's ReAct loop and session history.
type LoopConfig struct {
	MaxReactIterations int
	MaxRAGRetries      int
	MaxHistoryLength   int
}

// DefaultConfig returns the hardcoded baseline before any environment
// overrides are applied.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Model: ModelConfig{
			Model:          "gemini-2.5-flash",
			EmbeddingModel: "gemini-embedding-001",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta/openai/",
		},
		VectorStore: VectorStoreConfig{},
		Ports: PortsConfig{
			Orchestrator: 9000,
			Planner:      9001,
			Retriever:    9002,
			Executor:     9003,
			WebAPI:       3000,
		},
		ToolEndpoint: ToolEndpointConfig{
			MissionTimeoutMs: 1_800_000,
		},
		Loop: LoopConfig{
			MaxReactIterations: 3,
			MaxRAGRetries:      2,
			MaxHistoryLength:   10,
		},
		Debug: false,
	}
}

// Load builds an AppConfig from defaults overridden by environment
// variables, then validates it.
func Load() (*AppConfig, error) {
	cfg := DefaultConfig()
	applyEnvironmentOverrides(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvironmentOverrides(cfg *AppConfig) {
	cfg.Model.APIKey = utils.GetEnv("GEMINI_API_KEY", cfg.Model.APIKey)
	cfg.Model.Model = utils.GetEnv("GEMINI_MODEL", cfg.Model.Model)
	cfg.Model.EmbeddingModel = utils.GetEnv("GEMINI_EMBEDDING_MODEL", cfg.Model.EmbeddingModel)

	cfg.VectorStore.URL = utils.GetEnv("SUPABASE_URL", cfg.VectorStore.URL)
	cfg.VectorStore.ServiceKey = utils.GetEnv("SUPABASE_SERVICE_ROLE_KEY", cfg.VectorStore.ServiceKey)

	cfg.Ports.Orchestrator = utils.IntFromEnv("A2A_ORCHESTRATOR_PORT", cfg.Ports.Orchestrator)
	cfg.Ports.Planner = utils.IntFromEnv("A2A_PLANNER_PORT", cfg.Ports.Planner)
	cfg.Ports.Retriever = utils.IntFromEnv("A2A_RAG_PORT", cfg.Ports.Retriever)
	cfg.Ports.Executor = utils.IntFromEnv("A2A_EXECUTOR_PORT", cfg.Ports.Executor)
	cfg.Ports.WebAPI = utils.IntFromEnv("WEB_API_PORT", cfg.Ports.WebAPI)

	cfg.ToolEndpoint.ServerPath = utils.GetEnv("MCP_SERVER_PATH", cfg.ToolEndpoint.ServerPath)
	cfg.ToolEndpoint.MissionTimeoutMs = utils.IntFromEnv("MCP_MISSION_TIMEOUT_MS", cfg.ToolEndpoint.MissionTimeoutMs)

	cfg.Debug = utils.BoolFromEnv("DEBUG", cfg.Debug)
}

func validateConfig(cfg *AppConfig) error {
	if cfg.Model.Model == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if cfg.Ports.Orchestrator <= 0 || cfg.Ports.Planner <= 0 || cfg.Ports.Retriever <= 0 || cfg.Ports.Executor <= 0 || cfg.Ports.WebAPI <= 0 {
		return fmt.Errorf("all ports must be positive")
	}
	if cfg.ToolEndpoint.MissionTimeoutMs <= 0 {
		return fmt.Errorf("mcp mission timeout must be positive")
	}
	if cfg.Loop.MaxReactIterations <= 0 {
		return fmt.Errorf("max react iterations must be positive")
	}
	if cfg.Loop.MaxRAGRetries < 0 {
		return fmt.Errorf("max rag retries cannot be negative")
	}
	if cfg.Loop.MaxHistoryLength <= 0 {
		return fmt.Errorf("max history length must be positive")
	}
	return nil
}

// RequireVectorStore fails fast when a process that needs the vector
// store (the Retriever) was started without its DSN configured, rather
// than surfacing a confusing connection error later.
func (c *AppConfig) RequireVectorStore() error {
	if c.VectorStore.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required for this agent")
	}
	return nil
}

// RequireModelAPIKey fails fast when a process that calls the LLM (the
// Planner and Retriever) was started without credentials.
func (c *AppConfig) RequireModelAPIKey() error {
	if c.Model.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for this agent")
	}
	return nil
}

// RequireToolEndpoint fails fast when the Executor was started without a
// configured MCP server path.
func (c *AppConfig) RequireToolEndpoint() error {
	if c.ToolEndpoint.ServerPath == "" {
		return fmt.Errorf("MCP_SERVER_PATH is required for this agent")
	}
	return nil
}
