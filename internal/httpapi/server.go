// Package httpapi exposes the Orchestrator's chat loop to browser and CLI
// clients over a conventional JSON/SSE HTTP API, separate from the
// A2A transport agents use to talk to each other.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/praxis/droneflow/internal/obs"
	"github.com/praxis/droneflow/internal/orchestrator"
	"github.com/praxis/droneflow/internal/session"
	"github.com/sirupsen/logrus"
)

// Server hosts the user-facing HTTP API. Its stream registry subscribes to
// the event bus exactly once for the life of the process, the way the
// teacher's WebSocketGateway subscribes its hub once at construction
// rather than once per connection.
type Server struct {
	orch       *orchestrator.Orchestrator
	sessions   *session.Store
	bus        *obs.Bus
	logger     *logrus.Logger
	router     *gin.Engine
	httpServer *http.Server

	pinger     Pinger
	agentNames []string

	streamsMu sync.RWMutex
	streams   map[string][]chan obs.Event
}

// Pinger is the subset of a2a.Client the health check depends on, narrowed
// so tests can stub agent liveness without a live A2A transport.
type Pinger interface {
	Ping(ctx context.Context, agent string) bool
}

// NewServer builds the router but does not start listening. pinger and
// agentNames drive GET /api/health's per-agent liveness map; either may be
// nil/empty, in which case health reports every agent unreachable.
func NewServer(orch *orchestrator.Orchestrator, sessions *session.Store, bus *obs.Bus, logger *logrus.Logger, pinger Pinger, agentNames []string) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE"},
		AllowHeaders:    []string{"Content-Type"},
	}))

	s := &Server{
		orch:       orch,
		sessions:   sessions,
		bus:        bus,
		logger:     logger,
		router:     router,
		pinger:     pinger,
		agentNames: agentNames,
		streams:    make(map[string][]chan obs.Event),
	}
	if bus != nil {
		bus.SubscribeAll(s.fanOut)
	}
	s.registerRoutes()
	return s
}

// fanOut is the event bus's single permanent subscriber. It routes each
// event to whichever per-session channels are currently registered for a
// live SSE stream, ignoring events nobody is listening for.
func (s *Server) fanOut(e obs.Event) {
	s.streamsMu.RLock()
	subs := s.streams[e.SessionID]
	s.streamsMu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *Server) addStream(sessionID string) chan obs.Event {
	ch := make(chan obs.Event, 32)
	s.streamsMu.Lock()
	s.streams[sessionID] = append(s.streams[sessionID], ch)
	s.streamsMu.Unlock()
	return ch
}

func (s *Server) removeStream(sessionID string, ch chan obs.Event) {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	subs := s.streams[sessionID]
	for i, c := range subs {
		if c == ch {
			s.streams[sessionID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.streams[sessionID]) == 0 {
		delete(s.streams, sessionID)
	}
}

// Start begins serving in the background.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("web api server error: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/health", s.getHealth)
	api.POST("/chat", s.postChat)
	api.POST("/chat/stream", s.postChatStream)
	api.POST("/sessions", s.postSession)
	api.GET("/sessions/:id/history", s.getSessionHistory)
	api.DELETE("/sessions/:id", s.deleteSession)
}

// getHealth pings every registered agent and reports "healthy" when all
// respond, "degraded" when some do, and "unhealthy" when none do (including
// when no agents are configured to check).
func (s *Server) getHealth(c *gin.Context) {
	agents := make(map[string]bool, len(s.agentNames))
	up := 0
	for _, name := range s.agentNames {
		ok := s.pinger != nil && s.pinger.Ping(c.Request.Context(), name)
		agents[name] = ok
		if ok {
			up++
		}
	}

	status := "unhealthy"
	switch {
	case len(s.agentNames) > 0 && up == len(s.agentNames):
		status = "healthy"
	case up > 0:
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"agents":    agents,
		"timestamp": time.Now().UTC(),
	})
}

type chatRequestBody struct {
	Message   string                 `json:"message"`
	SessionID string                 `json:"session_id"`
	MapID     string                 `json:"map_id"`
	Filters   map[string]interface{} `json:"filters"`
}

func (s *Server) postChat(c *gin.Context) {
	var body chatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	resp := s.orch.Chat(c.Request.Context(), orchestrator.ChatRequest{
		Message:   body.Message,
		SessionID: body.SessionID,
		MapID:     body.MapID,
		Filters:   body.Filters,
	})
	c.JSON(http.StatusOK, resp)
}

// postChatStream runs a chat turn while relaying the orchestrator's
// observability events for that session as server-sent events, followed
// by a final event carrying the full ChatResponse.
func (s *Server) postChatStream(c *gin.Context) {
	var body chatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := body.SessionID
	if sessionID == "" || !s.sessions.Exists(sessionID) {
		sessionID = s.sessions.Create()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := s.addStream(sessionID)
	defer s.removeStream(sessionID, events)

	done := make(chan orchestrator.ChatResponse, 1)
	go func() {
		done <- s.orch.Chat(c.Request.Context(), orchestrator.ChatRequest{
			Message:   body.Message,
			SessionID: sessionID,
			MapID:     body.MapID,
			Filters:   body.Filters,
		})
	}()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			writeSSE(c, "agent_event", e)
		case resp := <-done:
			if resp.Error != "" {
				writeSSE(c, "error", gin.H{"error": resp.Error})
			} else {
				writeSSE(c, "result", resp)
			}
			fmt.Fprint(c.Writer, "data: [DONE]\n\n")
			c.Writer.Flush()
			return
		}
	}
}

func writeSSE(c *gin.Context, event string, payload interface{}) {
	c.SSEvent(event, payload)
	c.Writer.Flush()
}

func (s *Server) postSession(c *gin.Context) {
	id := s.sessions.Create()
	c.JSON(http.StatusOK, gin.H{"session_id": id})
}

func (s *Server) getSessionHistory(c *gin.Context) {
	id := c.Param("id")
	history, ok := s.sessions.History(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "history": history})
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	s.sessions.Delete(id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
