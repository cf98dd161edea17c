package a2a

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SkillHandler executes a Task's skill and returns its output or an error.
// Handlers never panic across the boundary: Server recovers and turns a
// panic into a failed TaskResult, mirroring the teacher's event-bus
// panic-recovery discipline.
type SkillHandler func(c *gin.Context, task Task) (interface{}, error)

// Server hosts one agent's A2A endpoints: the well-known agent card,
// a liveness ping, and task submission dispatched by skill id.
type Server struct {
	card     AgentCard
	handlers map[string]SkillHandler
	logger   *logrus.Logger
	engine   *gin.Engine
}

// NewServer creates a Server for the given card. Register must be called
// for every skill the card advertises before Validate; Validate fails if a
// card skill has no handler or a handler has no matching card skill, which
// is how dynamic dispatch is validated against the agent card at startup.
func NewServer(card AgentCard, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		card:     card,
		handlers: make(map[string]SkillHandler),
		logger:   logger,
		engine:   engine,
	}
	s.routes()
	return s
}

// Register binds a skill id to its handler.
func (s *Server) Register(skillID string, handler SkillHandler) {
	s.handlers[skillID] = handler
}

// Validate checks every card skill has a registered handler and vice
// versa.
func (s *Server) Validate() error {
	for _, sk := range s.card.Skills {
		if _, ok := s.handlers[sk.ID]; !ok {
			return UnregisteredSkillError(sk.ID)
		}
	}
	for id := range s.handlers {
		if !s.card.HasSkill(id) {
			return UnadvertisedHandlerError(id)
		}
	}
	return nil
}

func (s *Server) routes() {
	s.engine.GET("/.well-known/agent.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.card)
	})
	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.POST("/tasks", s.handleTask)
}

func (s *Server) handleTask(c *gin.Context) {
	start := time.Now()

	var task Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task payload: " + err.Error()})
		return
	}

	handler, ok := s.handlers[task.Skill]
	if !ok {
		result := Failure(task.ID, UnknownSkillError(task.Skill), time.Since(start).Milliseconds())
		c.JSON(http.StatusOK, result)
		return
	}

	output, err := s.runHandler(c, handler, task)
	var result TaskResult
	if err != nil {
		s.logger.WithFields(logrus.Fields{"task_id": task.ID, "skill": task.Skill}).Warnf("skill handler failed: %v", err)
		result = Failure(task.ID, err, time.Since(start).Milliseconds())
	} else {
		result = Success(task.ID, output, time.Since(start).Milliseconds())
	}
	c.JSON(http.StatusOK, result)
}

// runHandler recovers from a handler panic and turns it into an error so
// a single misbehaving skill never takes down the agent's HTTP server.
func (s *Server) runHandler(c *gin.Context, handler SkillHandler, task Task) (output interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("panic in skill handler %s: %v", task.Skill, r)
			err = PanicError(task.Skill, r)
		}
	}()
	return handler(c, task)
}

// Run starts the HTTP server, blocking until it stops. It is the caller's
// responsibility to call Validate first.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the underlying gin engine, e.g. for use in tests or to
// mount the A2A routes alongside a user-facing HTTP API in one process.
func (s *Server) Handler() http.Handler { return s.engine }
