package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/teamboard-dev/teamboard/internal/types"
)

const writeWait = 10 * time.Second

// Subscription is a live real-time session. Frames arrive on Events in the
// order the server sent them; the channel closes when the session ends.
type Subscription struct {
	conn   *websocket.Conn
	events chan types.SocketMessage

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// Dial opens a subscription using the client's token and waits for the
// server's connected frame.
func (c *Client) Dial(ctx context.Context) (*Subscription, error) {
	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.SocketURL(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			var payload struct {
				Error string `json:"error"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&payload)
			if payload.Error == "" {
				payload.Error = http.StatusText(resp.StatusCode)
			}
			return nil, &APIError{Status: resp.StatusCode, Message: payload.Error}
		}
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	var hello types.SocketMessage
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read connected frame: %w", err)
	}
	if hello.Event != types.EventConnected {
		conn.Close()
		return nil, fmt.Errorf("unexpected first frame %q", hello.Event)
	}
	_ = conn.SetReadDeadline(time.Time{})

	s := &Subscription{
		conn:   conn,
		events: make(chan types.SocketMessage, 64),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *Subscription) Events() <-chan types.SocketMessage {
	return s.events
}

// Join asks to receive a project's events. The server answers with a joined
// or an error frame on Events.
func (s *Subscription) Join(projectID uuid.UUID) error {
	return s.send(types.EventJoin, projectID)
}

func (s *Subscription) Leave(projectID uuid.UUID) error {
	return s.send(types.EventLeave, projectID)
}

// Err reports why the session ended, once Events is closed.
func (s *Subscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.writeMu.Lock()
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()

		err = s.conn.Close()
	})
	return err
}

func (s *Subscription) send(event string, projectID uuid.UUID) error {
	data, err := json.Marshal(types.JoinRoomPayload{ProjectID: projectID.String()})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(types.SocketMessage{Event: event, Data: data})
}

func (s *Subscription) readLoop() {
	defer close(s.events)

	for {
		var msg types.SocketMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
					s.errMu.Lock()
					s.err = err
					s.errMu.Unlock()
				}
			}
			return
		}

		select {
		case s.events <- msg:
		case <-s.done:
			return
		}
	}
}
