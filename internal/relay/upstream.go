package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"ai-realtime-relay/internal/pkg/logger"

	"github.com/gorilla/websocket"
)

// Upstream is the session's view of the remote conversational API: an opaque
// bidirectional event stream. Events() closes when the upstream side goes
// away.
type Upstream interface {
	Connect(ctx context.Context) error
	Send(data []byte) error
	Events() <-chan []byte
	Close() error
}

// RealtimeUpstream dials the OpenAI Realtime API over WebSocket.
type RealtimeUpstream struct {
	apiKey   string
	endpoint string
	model    string
	logger   logger.ILogger

	conn      *websocket.Conn
	events    chan []byte
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewRealtimeUpstream(apiKey, endpoint, model string, log logger.ILogger) *RealtimeUpstream {
	return &RealtimeUpstream{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		logger:   log,
		events:   make(chan []byte, 256),
	}
}

func (u *RealtimeUpstream) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s?model=%s", u.endpoint, u.model)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+u.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("realtime dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("realtime dial failed: %w", err)
	}
	u.conn = conn

	go u.readPump()
	return nil
}

// readPump forwards upstream frames into the events channel until the
// connection dies, then closes the channel so the session can tear down.
func (u *RealtimeUpstream) readPump() {
	defer close(u.events)
	for {
		_, data, err := u.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				u.logger.Warn("Upstream", "Realtime read error", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
		u.events <- data
	}
}

func (u *RealtimeUpstream) Send(data []byte) error {
	if u.conn == nil {
		return fmt.Errorf("upstream not connected")
	}
	u.writeMu.Lock()
	defer u.writeMu.Unlock()
	return u.conn.WriteMessage(websocket.TextMessage, data)
}

func (u *RealtimeUpstream) Events() <-chan []byte {
	return u.events
}

func (u *RealtimeUpstream) Close() error {
	var err error
	u.closeOnce.Do(func() {
		if u.conn != nil {
			err = u.conn.Close()
		}
	})
	return err
}
