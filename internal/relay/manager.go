package relay

import (
	"context"
	"time"

	"ai-realtime-relay/internal/pkg/logger"
	"ai-realtime-relay/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// EventPublisher pushes lifecycle events onto the in-process bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{}) error
}

// ManagerOptions carries the upstream connection settings shared by all
// sessions.
type ManagerOptions struct {
	APIKey          string
	Endpoint        string
	Model           string
	ResponseTimeout time.Duration
}

// Manager accepts relay connections on the root path and runs one Session
// per connection. Sessions share nothing mutable beyond the read-mostly
// retrieval engine reference (and the ambient logger/publisher).
type Manager struct {
	retriever ContextRetriever
	opts      ManagerOptions
	logger    logger.ILogger
	publisher EventPublisher
	sessions  *cache.Cache
}

func NewManager(retriever ContextRetriever, opts ManagerOptions, log logger.ILogger, publisher EventPublisher) *Manager {
	return &Manager{
		retriever: retriever,
		opts:      opts,
		logger:    log,
		publisher: publisher,
		sessions:  cache.New(cache.NoExpiration, 0),
	}
}

// RegisterRoutes binds the single accepted WebSocket path. Any other path is
// unrouted and the connection attempt is rejected before a session exists.
func (m *Manager) RegisterRoutes(app *fiber.App) {
	app.Get("/", m.ServeWs)
}

// ServeWs upgrades the connection and hands it to a Session.
func (m *Manager) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(m.handle)(c)
}

func (m *Manager) handle(conn *websocket.Conn) {
	id := uuid.NewString()
	upstream := NewRealtimeUpstream(m.opts.APIKey, m.opts.Endpoint, m.opts.Model, m.logger)
	session := NewSession(id, conn, upstream, m.retriever, m.logger, m.opts.ResponseTimeout)

	m.sessions.Set(id, session, cache.NoExpiration)
	m.publish(events.TypeSessionStarted, map[string]interface{}{"session_id": id})

	session.Run()

	m.sessions.Delete(id)
	m.publish(events.TypeSessionClosed, map[string]interface{}{
		"session_id": id,
		"state":      session.State().String(),
	})
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	return m.sessions.ItemCount()
}

// CloseAll tears down every live session (process shutdown).
func (m *Manager) CloseAll() {
	for id, item := range m.sessions.Items() {
		if session, ok := item.Object.(*Session); ok {
			session.Close()
		}
		m.sessions.Delete(id)
	}
}

func (m *Manager) publish(eventType string, data map[string]interface{}) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(context.Background(), eventType, data); err != nil {
		m.logger.Warn("Relay", "Event publish failed", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
