package main

import (
	"context"
	"fmt"
	"os"

	"github.com/praxis/droneflow/internal/a2a"
	"github.com/praxis/droneflow/internal/config"
	"github.com/praxis/droneflow/internal/llmclient"
	"github.com/praxis/droneflow/internal/retriever"
	"github.com/praxis/droneflow/internal/vectorstore"
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
	if err := cfg.RequireVectorStore(); err != nil {
		logger.Fatalf("%v", err)
	}

	ctx := context.Background()
	if err := vectorstore.RunMigrations(ctx, cfg.VectorStore.URL); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}
	pool, err := vectorstore.NewPool(ctx, cfg.VectorStore.URL)
	if err != nil {
		logger.Fatalf("connect vector store: %v", err)
	}
	defer pool.Close()

	addr := fmt.Sprintf(":%d", cfg.Ports.Retriever)
	url := fmt.Sprintf("http://localhost:%d", cfg.Ports.Retriever)

	llm := llmclient.New(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.Model, cfg.Model.EmbeddingModel, logger)
	store := vectorstore.NewStore(pool)
	skills := retriever.New(llm, llm, store, logger)

	server := a2a.NewServer(retriever.Card(url), logger)
	retriever.RegisterHandlers(server, skills)
	if err := server.Validate(); err != nil {
		logger.Fatalf("agent card/handler mismatch: %v", err)
	}

	logger.Infof("retriever agent listening on %s", addr)
	if err := server.Run(addr); err != nil {
		logger.Fatalf("retriever server: %v", err)
		os.Exit(1)
	}
}
