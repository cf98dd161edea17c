// Package obs implements the append-only, causally-ordered event stream
// that the orchestrator's ReAct loop emits to, one Event per
// plan/act/observe/reflect transition, keyed by request id.
package obs

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType names a phase transition or lifecycle point of a chat request
// as it moves through the orchestrator.
type EventType string

// Event types are named in start/end pairs, one pair per ReAct loop stage;
// the orchestrator puts each stage's duration_ms in its *_end event's
// payload.
const (
	EventRequestStart EventType = "request_start"
	EventRequestEnd   EventType = "request_end"
	EventRequestError EventType = "request_error"

	EventRetrieveStart EventType = "retrieve_start"
	EventRetrieveEnd   EventType = "retrieve_end"

	EventStateStart EventType = "state_start"
	EventStateEnd   EventType = "state_end"

	EventToolsStart EventType = "tools_start"
	EventToolsEnd   EventType = "tools_end"

	EventPlanStart EventType = "plan_start"
	EventPlanEnd   EventType = "plan_end"

	EventClarifyRetryStart EventType = "clarify_retry_start"
	EventClarifyRetryEnd   EventType = "clarify_retry_end"

	EventActStart EventType = "act_start"
	EventActEnd   EventType = "act_end"

	EventObserveStart EventType = "observe_start"
	EventObserveEnd   EventType = "observe_end"

	EventReflectStart EventType = "reflect_start"
	EventReflectEnd   EventType = "reflect_end"
)

// Event is one entry in a request's causally-ordered stream. Payload
// carries phase-specific detail (plan JSON, tool name, error text, ...).
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"requestId"`
	SessionID string                 `json:"sessionId,omitempty"`
	Agent     string                 `json:"agent,omitempty"`
	Iteration int                    `json:"iteration,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Handler observes events. The bus runs each handler call in its own
// goroutine and recovers panics; it puts no bound on how many slow handler
// calls run at once.
type Handler func(event Event)

// Bus fans Events out to subscribed handlers. Publish never blocks the
// caller on slow handlers: events are queued on a buffered channel and
// dispatched to each handler in its own goroutine, recovering panics so a
// single broken observer can never take down the orchestrator.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]Handler
	all       []Handler
	logger    *logrus.Logger
	eventChan chan Event
	stopChan  chan struct{}
	history   []Event
	histMu    sync.Mutex
	histCap   int
}

// NewBus creates a Bus and starts its dispatch loop. histCap bounds how
// many recent events are retained for History; 0 disables retention.
func NewBus(logger *logrus.Logger, histCap int) *Bus {
	if logger == nil {
		logger = logrus.New()
	}
	b := &Bus{
		handlers:  make(map[EventType][]Handler),
		logger:    logger,
		eventChan: make(chan Event, 256),
		stopChan:  make(chan struct{}),
		histCap:   histCap,
	}
	go b.loop()
	return b
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event, regardless of type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish enqueues an event for dispatch, stamping Timestamp with the
// current time if it is unset. If the queue is full the event is dropped
// and logged, rather than blocking the publisher.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if b.histCap > 0 {
		b.recordHistory(event)
	}
	select {
	case b.eventChan <- event:
	default:
		b.logger.WithField("request_id", event.RequestID).Warnf("event bus full, dropping %s event", event.Type)
	}
}

func (b *Bus) recordHistory(event Event) {
	b.histMu.Lock()
	defer b.histMu.Unlock()
	b.history = append(b.history, event)
	if len(b.history) > b.histCap {
		b.history = b.history[len(b.history)-b.histCap:]
	}
}

// History returns a snapshot of the most recently retained events for the
// given request id, in publish order.
func (b *Bus) History(requestID string) []Event {
	b.histMu.Lock()
	defer b.histMu.Unlock()
	var out []Event
	for _, e := range b.history {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out
}

func (b *Bus) loop() {
	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event)
		case <-b.stopChan:
			return
		}
	}
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	handlers := append([]Handler{}, b.handlers[event.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		go func(handler Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Errorf("panic in event handler for %s: %v", event.Type, r)
				}
			}()
			handler(event)
		}(h)
	}
}

// Stop halts the dispatch loop. Safe to call once.
func (b *Bus) Stop() {
	close(b.stopChan)
}
