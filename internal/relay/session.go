package relay

import (
	"context"
	"strings"
	"sync"
	"time"

	"ai-realtime-relay/internal/pkg/logger"
	"ai-realtime-relay/pkg/rag"

	"github.com/gofiber/websocket/v2"
)

// State is the session lifecycle position. Transitions only move forward:
// Connecting -> Ready -> Closed, or Connecting -> Failed.
type State int32

const (
	StateConnecting State = iota
	StateReady
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClientConn is the subset of the fiber websocket connection the session
// uses. Narrowed to an interface so session tests can run without sockets.
type ClientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ContextRetriever supplies retrieved context for intercepted text turns.
// *rag.Engine is the production implementation.
type ContextRetriever interface {
	QueryContext(ctx context.Context, query string) []rag.ContextResult
}

// Session owns one client connection and one upstream connection and relays
// events between them. Client messages received before the upstream link is
// ready buffer in a FIFO queue and drain in arrival order once it is.
type Session struct {
	ID          string
	client      ClientConn
	upstream    Upstream
	retriever   ContextRetriever
	logger      logger.ILogger
	respTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// inbound is the pending queue: readPump is the only writer, the Run
	// goroutine the only reader, so ordering is strict arrival order.
	inbound chan []byte

	mu        sync.Mutex
	state     State
	closed    bool
	responded bool
	respTimer *time.Timer

	closeOnce sync.Once
}

func NewSession(id string, client ClientConn, upstream Upstream, retriever ContextRetriever, log logger.ILogger, respTimeout time.Duration) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:          id,
		client:      client,
		upstream:    upstream,
		retriever:   retriever,
		logger:      log,
		respTimeout: respTimeout,
		ctx:         ctx,
		cancel:      cancel,
		inbound:     make(chan []byte, 256),
		state:       StateConnecting,
	}
}

// Run drives the session until either side disconnects. It blocks, matching
// the fiber websocket handler contract.
func (s *Session) Run() {
	s.logger.Info("Session", "Session started", map[string]interface{}{
		"session_id": s.ID,
	})

	go s.readPump()

	if err := s.upstream.Connect(s.ctx); err != nil {
		s.logger.Error("Session", "Upstream connect failed", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		s.writeToClient(newErrorEvent(CodeConnectionFailed, "Failed to connect to upstream API"))
		s.close(StateFailed)
		return
	}

	s.transition(StateReady)
	go s.upstreamPump()

	// Drain the pending queue, then keep processing live messages through
	// the exact same path. The loop ends when the client disconnects.
	for raw := range s.inbound {
		s.process(raw)
	}

	s.close(StateClosed)
}

// readPump moves client frames into the inbound queue. It is the only writer
// of the channel and closes it on disconnect.
func (s *Session) readPump() {
	defer close(s.inbound)
	for {
		_, data, err := s.client.ReadMessage()
		if err != nil {
			return
		}
		select {
		case s.inbound <- data:
		case <-s.ctx.Done():
			return
		}
	}
}

// upstreamPump forwards every upstream event to the client verbatim. This
// direction is never intercepted or rewritten.
func (s *Session) upstreamPump() {
	for data := range s.upstream.Events() {
		if isAssistantResponse(data) {
			s.markResponded()
		}
		s.writeToClient(data)
	}
	// Upstream went away: tear down the client side too.
	s.close(StateClosed)
}

func (s *Session) process(raw []byte) {
	ev, err := parseClientEvent(raw)
	if err != nil {
		s.logger.Warn("Session", "Malformed client event", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		s.writeToClient(newErrorEvent(CodeProcessingError, "Error processing message: invalid JSON"))
		return
	}

	s.logger.Info("Session", "Forwarding client event", map[string]interface{}{
		"session_id": s.ID,
		"type":       ev.Type,
	})

	if ev.Type == eventTypeText && ev.Text != "" {
		s.relayTextTurn(ev.Text)
		return
	}

	if err := s.upstream.Send(ev.raw); err != nil {
		s.logger.Warn("Session", "Upstream send failed", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
	}
}

// relayTextTurn intercepts a plain text turn: when retrieval yields context,
// a system item goes upstream strictly before the user item. Both sends run
// on this goroutine against the upstream's serialized writer, so the
// ordering cannot interleave.
func (s *Session) relayTextTurn(text string) {
	results := s.retriever.QueryContext(s.ctx, text)

	if len(results) > 0 {
		var sb strings.Builder
		for i, r := range results {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(r.Text)
		}
		s.logger.Info("Session", "Injecting retrieved context", map[string]interface{}{
			"session_id": s.ID,
			"results":    len(results),
		})
		if err := s.upstream.Send(newConversationItem("system", contextInstruction+sb.String())); err != nil {
			s.logger.Warn("Session", "Context send failed", map[string]interface{}{
				"session_id": s.ID,
				"error":      err.Error(),
			})
		}
	}

	if err := s.upstream.Send(newConversationItem("user", text)); err != nil {
		s.logger.Warn("Session", "User turn send failed", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return
	}

	s.armResponseTimer()
}

// writeToClient serializes client writes. Writes after close are a no-op,
// not an error.
func (s *Session) writeToClient(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err := s.client.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("Session", "Client write failed", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
	}
}

// armResponseTimer starts the watchdog for an intercepted text turn: if no
// assistant response arrives in time, the client gets a timeout-coded error
// (non-fatal, the session stays up).
func (s *Session) armResponseTimer() {
	if s.respTimeout <= 0 {
		return
	}
	s.mu.Lock()
	if s.respTimer != nil {
		s.respTimer.Stop()
	}
	s.responded = false
	s.respTimer = time.AfterFunc(s.respTimeout, s.onResponseTimeout)
	s.mu.Unlock()
}

func (s *Session) onResponseTimeout() {
	s.mu.Lock()
	responded := s.responded
	s.mu.Unlock()
	if responded {
		return
	}
	s.logger.Warn("Session", "No upstream response within timeout", map[string]interface{}{
		"session_id": s.ID,
	})
	s.writeToClient(newErrorEvent(CodeTimeout, "No response received from upstream within timeout period"))
}

func (s *Session) markResponded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responded = true
	if s.respTimer != nil {
		s.respTimer.Stop()
	}
}

// transition advances the state machine. Terminal states are sticky.
func (s *Session) transition(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed || s.state == StateFailed {
		return
	}
	from := s.state
	s.state = to
	s.logger.Info("Session", "State transition", map[string]interface{}{
		"session_id": s.ID,
		"from":       from.String(),
		"to":         to.String(),
	})
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down from the outside (e.g. process shutdown).
func (s *Session) Close() {
	s.close(StateClosed)
}

// close is idempotent: it cancels in-flight retrieval, stops the watchdog,
// closes both connections and pins the terminal state.
func (s *Session) close(terminal State) {
	s.closeOnce.Do(func() {
		s.transition(terminal)

		s.mu.Lock()
		s.closed = true
		if s.respTimer != nil {
			s.respTimer.Stop()
		}
		s.mu.Unlock()

		s.cancel()
		s.upstream.Close()
		s.client.Close()

		s.logger.Info("Session", "Session closed", map[string]interface{}{
			"session_id": s.ID,
			"state":      terminal.String(),
		})
	})
}
