package main

import (
	"fmt"
	"os"

	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/config"
	"github.com/praxis/droneflow/internal/llmclient"
	"github.com/praxis/droneflow/internal/planner"
	"github.com/praxis/droneflow/pkg/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(utils.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	if err := cfg.RequireModelAPIKey(); err != nil {
		logger.Fatalf("%v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Ports.Planner)
	url := fmt.Sprintf("http://localhost:%d", cfg.Ports.Planner)

	llm := llmclient.New(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.Model, cfg.Model.EmbeddingModel, logger)
	skills := planner.New(llm, logger)

	server := a2a.NewServer(planner.Card(url), logger)
	planner.RegisterHandlers(server, skills)
	if err := server.Validate(); err != nil {
		logger.Fatalf("agent card/handler mismatch: %v", err)
	}

	logger.Infof("planner agent listening on %s", addr)
	if err := server.Run(addr); err != nil {
		logger.Fatalf("planner server: %v", err)
		os.Exit(1)
	}
}
