// Package terminal implements the droneflow-cli interactive REPL: a thin
// HTTP client against the Orchestrator's Web API, in the same
// scan-a-line/dispatch-a-command shape as the pack's other A2A demo
// clients.
package terminal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// REPL drives an interactive chat session against a droneflow Web API.
type REPL struct {
	baseURL   string
	http      *http.Client
	sessionID string
	stream    bool
	out       io.Writer
	in        *bufio.Scanner
}

// New creates a REPL targeting the given Web API base URL (e.g.
// "http://localhost:3000").
func New(baseURL string) *REPL {
	return &REPL{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		out:     os.Stdout,
		in:      bufio.NewScanner(os.Stdin),
	}
}

// Run starts the read-eval-print loop, blocking until the user quits or
// stdin closes.
func (r *REPL) Run() {
	fmt.Fprintln(r.out, "droneflow interactive console")
	fmt.Fprintln(r.out, "Type /help for commands, or just type a message to chat.")

	for {
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			return
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if r.dispatchCommand(line) {
				return
			}
			continue
		}

		r.sendMessage(line)
	}
}

func (r *REPL) dispatchCommand(line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		r.printHelp()
	case "/status":
		r.printStatus()
	case "/clear":
		r.clearSession()
	case "/history":
		r.printHistory()
	case "/stream":
		r.stream = !r.stream
		fmt.Fprintf(r.out, "streaming mode: %v\n", r.stream)
	case "/quit", "/exit":
		fmt.Fprintln(r.out, "goodbye")
		return true
	default:
		fmt.Fprintf(r.out, "unknown command %q, try /help\n", fields[0])
	}
	return false
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  /help      show this message")
	fmt.Fprintln(r.out, "  /status    check the orchestrator's health")
	fmt.Fprintln(r.out, "  /clear     start a new session")
	fmt.Fprintln(r.out, "  /history   show this session's turn history")
	fmt.Fprintln(r.out, "  /stream    toggle server-sent-event streaming mode")
	fmt.Fprintln(r.out, "  /quit      exit")
}

func (r *REPL) printStatus() {
	resp, err := r.http.Get(r.baseURL + "/api/health")
	if err != nil {
		fmt.Fprintf(r.out, "health check failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(r.out, "%s: %s\n", resp.Status, string(body))
}

func (r *REPL) clearSession() {
	if r.sessionID != "" {
		req, _ := http.NewRequest(http.MethodDelete, r.baseURL+"/api/sessions/"+r.sessionID, nil)
		if req != nil {
			resp, err := r.http.Do(req)
			if err == nil {
				resp.Body.Close()
			}
		}
	}
	r.sessionID = ""
	fmt.Fprintln(r.out, "session cleared")
}

func (r *REPL) printHistory() {
	if r.sessionID == "" {
		fmt.Fprintln(r.out, "no session yet")
		return
	}
	resp, err := r.http.Get(r.baseURL + "/api/sessions/" + r.sessionID + "/history")
	if err != nil {
		fmt.Fprintf(r.out, "history fetch failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var payload struct {
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		fmt.Fprintf(r.out, "decode history: %v\n", err)
		return
	}
	for _, turn := range payload.History {
		fmt.Fprintf(r.out, "[%s] %s\n", turn.Role, turn.Content)
	}
}

type chatRequestBody struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func (r *REPL) ensureSession() {
	if r.sessionID != "" {
		return
	}
	resp, err := r.http.Post(r.baseURL+"/api/sessions", "application/json", nil)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	var out struct {
		SessionID string `json:"session_id"`
	}
	if json.NewDecoder(resp.Body).Decode(&out) == nil {
		r.sessionID = out.SessionID
	}
}

func (r *REPL) sendMessage(message string) {
	r.ensureSession()
	body, _ := json.Marshal(chatRequestBody{Message: message, SessionID: r.sessionID})

	path := "/api/chat"
	if r.stream {
		path = "/api/chat/stream"
	}

	resp, err := r.http.Post(r.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(r.out, "request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if r.stream {
		r.consumeStream(resp.Body)
		return
	}

	var chatResp struct {
		SessionID string `json:"session_id"`
		Answer    string `json:"answer"`
		Error     string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		fmt.Fprintf(r.out, "decode response: %v\n", err)
		return
	}
	r.sessionID = chatResp.SessionID
	if chatResp.Error != "" {
		fmt.Fprintf(r.out, "error: %s\n", chatResp.Error)
		return
	}
	fmt.Fprintln(r.out, chatResp.Answer)
}

func (r *REPL) consumeStream(body io.Reader) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return
		}
		fmt.Fprintln(r.out, data)
	}
}
