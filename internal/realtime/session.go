package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/types"
)

// Session is one websocket connection. Only writePump writes to conn.
type Session struct {
	id    uuid.UUID
	hub   *Hub
	conn  *websocket.Conn
	actor policy.Actor
	authz RoomAuthorizer

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// guarded by hub.mu
	rooms map[uuid.UUID]struct{}
}

// ServeWS upgrades the request and serves the session until the connection
// ends. The actor must already be authenticated.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, actor policy.Actor, authz RoomAuthorizer) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	s := &Session{
		id:    uuid.New(),
		hub:   h,
		conn:  conn,
		actor: actor,
		authz: authz,
		send:  make(chan []byte, h.sendBuffer),
		done:  make(chan struct{}),
		rooms: make(map[uuid.UUID]struct{}),
	}
	h.register(s)

	h.logger.Info("websocket connected",
		slog.String("session_id", s.id.String()),
		slog.String("user_id", actor.ID.String()),
	)

	s.reply(types.SocketMessage{Event: types.EventConnected})

	go s.writePump()
	s.readPump(r.Context())
	return nil
}

func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) reply(msg types.SocketMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !s.enqueue(frame) {
		s.hub.metrics.EventDropped("slow_consumer")
	}
}

func (s *Session) replyError(projectID uuid.UUID, err error) {
	data, _ := json.Marshal(types.ErrorPayload{Message: apperr.Message(err)})
	s.reply(types.SocketMessage{Event: types.EventError, ProjectID: projectID, Data: data})
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.unregister(s)
	})
}

func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.close()
		s.conn.Close()
		s.hub.logger.Info("websocket disconnected", slog.String("session_id", s.id.String()))
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.hub.logger.Warn("websocket read failed",
					slog.String("session_id", s.id.String()),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg types.SocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.replyError(uuid.Nil, apperr.Validation("Malformed message"))
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg types.SocketMessage) {
	switch msg.Event {
	case types.EventJoin, types.EventLeave:
	default:
		s.replyError(uuid.Nil, apperr.Validation("Unknown event %q", msg.Event))
		return
	}

	var payload types.JoinRoomPayload
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			s.replyError(uuid.Nil, apperr.Validation("Malformed %s payload", msg.Event))
			return
		}
	}
	projectID, err := types.ParseID(payload.ProjectID)
	if err != nil {
		s.replyError(uuid.Nil, apperr.Validation("projectId is required"))
		return
	}

	if msg.Event == types.EventLeave {
		s.hub.leave(s, projectID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	defer cancel()
	if err := s.authz.AuthorizeRoom(ctx, s.actor, projectID); err != nil {
		if !errors.Is(err, apperr.ErrForbidden) && !errors.Is(err, apperr.ErrNotFound) {
			s.hub.logger.Error("room authorization failed",
				slog.String("session_id", s.id.String()),
				slog.String("project_id", projectID.String()),
				slog.String("error", err.Error()),
			)
		}
		s.replyError(projectID, err)
		return
	}

	s.hub.join(s, projectID)
	s.reply(types.SocketMessage{Event: types.EventJoined, ProjectID: projectID})
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.drain()
			_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes frames that were queued before the session closed.
func (s *Session) drain() {
	for {
		select {
		case frame := <-s.send:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}
