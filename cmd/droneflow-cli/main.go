package main

import (
	"flag"

	"github.com/praxis/droneflow/internal/terminal"
	"github.com/praxis/droneflow/pkg/utils"
)

func main() {
	baseURL := flag.String("url", utils.GetEnv("DRONEFLOW_API_URL", "http://localhost:3000"), "Orchestrator Web API base URL")
	flag.Parse()

	repl := terminal.New(*baseURL)
	repl.Run()
}
