// -----------------------------------------------------------------------
// WebSocket handler - live task updates per job
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/scheduler"
	"github.com/ternarybob/odyssey/internal/services/events"
)

// Close code sent when the requested job id is unknown
const closeUnknownJob = 4004

const (
	writeTimeout     = 10 * time.Second
	subscriberBuffer = 64
)

// WebSocketHandler attaches peers to a job's event stream. Each peer gets
// a buffered channel subscriber and a pump goroutine; a peer that cannot
// keep up overflows its buffer and is evicted by the bus.
type WebSocketHandler struct {
	logger   arbor.ILogger
	registry *scheduler.Registry
	events   interfaces.EventService
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the live-update handler
func NewWebSocketHandler(registry *scheduler.Registry, eventService interfaces.EventService, config *common.ServerConfig, logger arbor.ILogger) *WebSocketHandler {
	allowed := make(map[string]bool, len(config.AllowedOrigins))
	for _, origin := range config.AllowedOrigins {
		allowed[strings.ToLower(origin)] = true
	}

	return &WebSocketHandler{
		logger:   logger,
		registry: registry,
		events:   eventService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[strings.ToLower(r.Header.Get("Origin"))]
			},
		},
	}
}

// HandleTasks handles GET /ws/tasks/{job_id}
func (h *WebSocketHandler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/ws/tasks/")
	if jobID == "" {
		http.Error(w, "job id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Str("job_id", jobID).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	plan := h.registry.Get(jobID)
	if plan == nil {
		// The close code tells the client this id will never produce events
		deadline := time.Now().Add(writeTimeout)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(closeUnknownJob, "unknown job id"), deadline)
		conn.Close()
		return
	}

	peer := &wsPeer{conn: conn}

	peer.writeJSON(models.Event{
		Kind:      models.EventConnected,
		JobID:     jobID,
		Timestamp: time.Now(),
	})
	peer.writeJSON(models.Event{
		Kind:      models.EventInitialStatus,
		JobID:     jobID,
		Timestamp: time.Now(),
		Payload:   models.PlanEventPayload{Plan: plan.Snapshot()},
	})

	sub := events.NewChannelSubscriber(subscriberBuffer)
	h.events.Subscribe(jobID, sub)

	h.logger.Debug().
		Str("job_id", jobID).
		Str("subscriber", sub.ID()).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket peer connected")

	go h.pump(peer, sub)
	h.readLoop(peer, sub, jobID)
}

// pump forwards bus events to the peer until the subscriber is closed
func (h *WebSocketHandler) pump(peer *wsPeer, sub *events.ChannelSubscriber) {
	for {
		select {
		case <-sub.Done():
			peer.close()
			return
		case event := <-sub.Events():
			if err := peer.writeJSON(event); err != nil {
				sub.Close()
				peer.close()
				return
			}
		}
	}
}

// readLoop services client messages until disconnect
func (h *WebSocketHandler) readLoop(peer *wsPeer, sub *events.ChannelSubscriber, jobID string) {
	defer func() {
		h.events.Unsubscribe(jobID, sub)
		sub.Close()
		peer.close()
		h.logger.Debug().Str("job_id", jobID).Str("subscriber", sub.ID()).Msg("WebSocket peer disconnected")
	}()

	for {
		_, message, err := peer.conn.ReadMessage()
		if err != nil {
			return
		}

		switch strings.TrimSpace(string(message)) {
		case "ping":
			if err := peer.writeText("pong"); err != nil {
				return
			}
		case "status":
			plan := h.registry.Get(jobID)
			if plan == nil {
				return
			}
			err := peer.writeJSON(models.Event{
				Kind:      models.EventStatusReply,
				JobID:     jobID,
				Timestamp: time.Now(),
				Payload:   models.PlanEventPayload{Plan: plan.Snapshot()},
			})
			if err != nil {
				return
			}
		}
	}
}

// wsPeer serializes writes to one connection; the pump and the read loop's
// replies share it.
type wsPeer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (p *wsPeer) writeJSON(v interface{}) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return p.conn.WriteJSON(v)
}

func (p *wsPeer) writeText(text string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return p.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (p *wsPeer) close() {
	p.once.Do(func() { p.conn.Close() })
}
