// Package realtime fans project events out to websocket sessions joined to
// per-project rooms.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/teamboard-dev/teamboard/internal/metrics"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	authorizeTimeout = 5 * time.Second

	DefaultQueueSize  = 256
	DefaultSendBuffer = 64
)

// RoomAuthorizer decides whether an actor may join a project's room.
type RoomAuthorizer interface {
	AuthorizeRoom(ctx context.Context, actor policy.Actor, projectID uuid.UUID) error
}

type Options struct {
	QueueSize      int
	SendBuffer     int
	AllowedOrigins []string
	Metrics        metrics.Recorder
	Logger         *slog.Logger
}

type Hub struct {
	broker     Broker
	queue      chan types.SocketMessage
	sendBuffer int
	upgrader   websocket.Upgrader
	metrics    metrics.Recorder
	logger     *slog.Logger

	mu       sync.RWMutex
	rooms    map[uuid.UUID]map[*Session]struct{}
	sessions map[*Session]struct{}
}

func NewHub(broker Broker, opts Options) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	allowed := slices.Clone(opts.AllowedOrigins)
	return &Hub{
		broker:     broker,
		queue:      make(chan types.SocketMessage, opts.QueueSize),
		sendBuffer: opts.SendBuffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || slices.Contains(allowed, origin)
			},
		},
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		rooms:    make(map[uuid.UUID]map[*Session]struct{}),
		sessions: make(map[*Session]struct{}),
	}
}

// Publish queues an event for the project's room. It never blocks: when the
// queue is full the event is dropped.
func (h *Hub) Publish(projectID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", event),
			slog.String("project_id", projectID.String()),
			slog.String("error", err.Error()),
		)
		h.metrics.EventDropped("encode")
		return
	}

	msg := types.SocketMessage{Event: event, ProjectID: projectID, Data: data}
	select {
	case h.queue <- msg:
		h.metrics.EventPublished(event)
	default:
		h.logger.Warn("event queue full, dropping event",
			slog.String("event", event),
			slog.String("project_id", projectID.String()),
		)
		h.metrics.EventDropped("queue_full")
	}
}

// Run subscribes to the broker and hands queued events to it until ctx is
// done, then closes every session.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.broker.Subscribe(ctx, h.deliver); err != nil {
		return fmt.Errorf("realtime: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case msg := <-h.queue:
			if err := h.broker.Publish(ctx, msg); err != nil {
				h.logger.Error("failed to publish event",
					slog.String("event", msg.Event),
					slog.String("project_id", msg.ProjectID.String()),
					slog.String("error", err.Error()),
				)
				h.metrics.EventDropped("broker")
			}
		}
	}
}

// deliver queues msg on every local session joined to its room.
func (h *Hub) deliver(msg types.SocketMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		h.metrics.EventDropped("encode")
		return
	}

	defer h.prune(msg)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.rooms[msg.ProjectID] {
		if s.enqueue(frame) {
			h.metrics.EventDelivered(msg.Event)
		} else {
			h.logger.Warn("session send buffer full, dropping event",
				slog.String("session_id", s.id.String()),
				slog.String("event", msg.Event),
			)
			h.metrics.EventDropped("slow_consumer")
		}
	}
}

// prune removes sessions from the room once a project event shows they can
// no longer read the project. The event itself has already been delivered.
func (h *Hub) prune(msg types.SocketMessage) {
	var keep func(policy.Actor) bool
	switch msg.Event {
	case types.EventProjectDeleted:
		keep = func(policy.Actor) bool { return false }
	case types.EventProjectUpdated:
		var project types.ProjectResponse
		if err := json.Unmarshal(msg.Data, &project); err != nil {
			return
		}
		access := policy.Project{OwnerID: project.Owner.ID}
		for _, m := range project.Members {
			access.MemberIDs = append(access.MemberIDs, m.ID)
		}
		keep = func(actor policy.Actor) bool { return policy.CanJoinRoom(actor, access) }
	default:
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[msg.ProjectID] {
		if !keep(s.actor) {
			h.leaveLocked(s, msg.ProjectID)
			h.logger.Info("session removed from room",
				slog.String("session_id", s.id.String()),
				slog.String("project_id", msg.ProjectID.String()),
			)
		}
	}
}

// RoomSize reports how many local sessions are joined to a project's room.
func (h *Hub) RoomSize(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	h.metrics.SessionOpened()
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	for projectID := range s.rooms {
		h.leaveLocked(s, projectID)
	}
	h.mu.Unlock()
	h.metrics.SessionClosed()
}

func (h *Hub) join(s *Session, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}
	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[projectID] = room
	}
	room[s] = struct{}{}
	s.rooms[projectID] = struct{}{}
}

func (h *Hub) leave(s *Session, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, projectID)
}

func (h *Hub) leaveLocked(s *Session, projectID uuid.UUID) {
	delete(s.rooms, projectID)
	if room, ok := h.rooms[projectID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.close()
	}
}
