package main

import (
	"fmt"
	"os"
	"time"

	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/config"
	"github.com/praxis/droneflow/internal/executor"
	"github.com/praxis/droneflow/internal/toolendpoint"
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
	if err := cfg.RequireToolEndpoint(); err != nil {
		logger.Fatalf("%v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Ports.Executor)
	url := fmt.Sprintf("http://localhost:%d", cfg.Ports.Executor)

	missionTimeout := time.Duration(cfg.ToolEndpoint.MissionTimeoutMs) * time.Millisecond
	endpoint := toolendpoint.New(cfg.ToolEndpoint.ServerPath, missionTimeout, 30*time.Second, logger)
	defer endpoint.Close()

	skills := executor.New(endpoint, logger)

	server := a2a.NewServer(executor.Card(url), logger)
	executor.RegisterHandlers(server, skills)
	if err := server.Validate(); err != nil {
		logger.Fatalf("agent card/handler mismatch: %v", err)
	}

	logger.Infof("executor agent listening on %s", addr)
	if err := server.Run(addr); err != nil {
		logger.Fatalf("executor server: %v", err)
		os.Exit(1)
	}
}
