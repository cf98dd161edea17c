package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/config"
	"github.com/praxis/droneflow/internal/httpapi"
	"github.com/praxis/droneflow/internal/obs"
	"github.com/praxis/droneflow/internal/orchestrator"
	"github.com/praxis/droneflow/internal/session"
	"github.com/praxis/droneflow/pkg/utils"
	"github.com/sirupsen/logrus"
)

// The Orchestrator process hosts both the A2A endpoint (for a supervising
// agent to reach it) and the user-facing Web API in one process, owning
// the session store and event bus as process singletons the way the
// teacher's agent.Agent owns its P2P host and MCP bridge.
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

	sessions := session.NewStore(cfg.Loop.MaxHistoryLength)
	bus := obs.NewBus(logger, 512)
	defer bus.Stop()

	client := a2a.NewClient(30*time.Second, logger)
	client.Register("planner", fmt.Sprintf("http://localhost:%d", cfg.Ports.Planner))
	client.Register("retriever", fmt.Sprintf("http://localhost:%d", cfg.Ports.Retriever))
	client.Register("executor", fmt.Sprintf("http://localhost:%d", cfg.Ports.Executor))

	orch := orchestrator.New(client, sessions, bus, cfg.Loop.MaxReactIterations, cfg.Loop.MaxRAGRetries, logger)

	a2aURL := fmt.Sprintf("http://localhost:%d", cfg.Ports.Orchestrator)
	a2aServer := a2a.NewServer(orchestrator.Card(a2aURL), logger)
	orchestrator.RegisterHandlers(a2aServer, orch)
	if err := a2aServer.Validate(); err != nil {
		logger.Fatalf("agent card/handler mismatch: %v", err)
	}

	a2aHTTPServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Ports.Orchestrator), Handler: a2aServer.Handler()}
	go func() {
		logger.Infof("orchestrator A2A endpoint listening on %s", a2aHTTPServer.Addr)
		if err := a2aHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("A2A server error: %v", err)
		}
	}()

	webAPI := httpapi.NewServer(orch, sessions, bus, logger, client, []string{"planner", "retriever", "executor"})
	webAddr := fmt.Sprintf(":%d", cfg.Ports.WebAPI)
	if err := webAPI.Start(webAddr); err != nil {
		logger.Fatalf("start web api: %v", err)
	}
	logger.Infof("orchestrator web API listening on %s", webAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down orchestrator...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := webAPI.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("web api shutdown error: %v", err)
	}
	if err := a2aHTTPServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("A2A server shutdown error: %v", err)
	}
	logger.Info("orchestrator stopped")
}
