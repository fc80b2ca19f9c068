package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/types"
)

// allowList admits actors to the listed projects only.
type allowList map[uuid.UUID]bool

func (a allowList) AuthorizeRoom(_ context.Context, _ policy.Actor, projectID uuid.UUID) error {
	if !a[projectID] {
		return apperr.Forbidden("Not authorized to join this project")
	}
	return nil
}

func startHub(t *testing.T, authz RoomAuthorizer, opts Options) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(NewLocalBroker(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := policy.Actor{ID: uuid.New(), Role: types.RoleMember}
		if id, err := uuid.Parse(r.URL.Query().Get("user")); err == nil {
			actor.ID = id
		}
		_ = hub.ServeWS(w, r, actor, authz)
	}))

	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	return dialURL(t, "ws"+strings.TrimPrefix(srv.URL, "http"), header)
}

// dialAs connects as the given user.
func dialAs(t *testing.T, srv *httptest.Server, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	return dialURL(t, "ws"+strings.TrimPrefix(srv.URL, "http")+"?user="+userID.String(), nil)
}

func dialURL(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readFrame(t, conn)
	require.Equal(t, types.EventConnected, msg.Event)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) types.SocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg types.SocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, event string, projectID string) {
	t.Helper()
	data, err := json.Marshal(types.JoinRoomPayload{ProjectID: projectID})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(types.SocketMessage{Event: event, Data: data}))
}

func join(t *testing.T, conn *websocket.Conn, projectID uuid.UUID) {
	t.Helper()
	send(t, conn, types.EventJoin, projectID.String())
	msg := readFrame(t, conn)
	require.Equal(t, types.EventJoined, msg.Event)
	require.Equal(t, projectID, msg.ProjectID)
}

func TestHubDeliversToJoinedSessions(t *testing.T) {
	project := uuid.New()
	hub, srv := startHub(t, allowList{project: true}, Options{})

	a := dial(t, srv, nil)
	b := dial(t, srv, nil)
	join(t, a, project)
	join(t, b, project)
	join(t, b, project)
	assert.Equal(t, 2, hub.RoomSize(project))

	hub.Publish(project, types.EventTaskCreated, map[string]string{"title": "Draft roadmap"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readFrame(t, conn)
		assert.Equal(t, types.EventTaskCreated, msg.Event)
		assert.Equal(t, project, msg.ProjectID)
		assert.JSONEq(t, `{"title":"Draft roadmap"}`, string(msg.Data))
	}
}

func TestHubPreservesPublishOrder(t *testing.T) {
	project := uuid.New()
	hub, srv := startHub(t, allowList{project: true}, Options{})

	conn := dial(t, srv, nil)
	join(t, conn, project)

	hub.Publish(project, types.EventTaskCreated, map[string]int{"n": 1})
	hub.Publish(project, types.EventTaskUpdated, map[string]int{"n": 2})
	hub.Publish(project, types.EventProjectUpdated, map[string]int{"n": 3})

	assert.Equal(t, types.EventTaskCreated, readFrame(t, conn).Event)
	assert.Equal(t, types.EventTaskUpdated, readFrame(t, conn).Event)
	assert.Equal(t, types.EventProjectUpdated, readFrame(t, conn).Event)
}

func TestHubRejectsUnauthorizedJoin(t *testing.T) {
	allowed, denied := uuid.New(), uuid.New()
	hub, srv := startHub(t, allowList{allowed: true}, Options{})

	conn := dial(t, srv, nil)
	send(t, conn, types.EventJoin, denied.String())

	msg := readFrame(t, conn)
	require.Equal(t, types.EventError, msg.Event)
	var payload types.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "Not authorized to join this project", payload.Message)
	assert.Zero(t, hub.RoomSize(denied))

	// still connected
	join(t, conn, allowed)
}

func TestHubRejectsMalformedFrames(t *testing.T) {
	_, srv := startHub(t, allowList{}, Options{})
	conn := dial(t, srv, nil)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, types.EventError, readFrame(t, conn).Event)

	send(t, conn, types.EventJoin, "not-a-uuid")
	assert.Equal(t, types.EventError, readFrame(t, conn).Event)

	send(t, conn, "dance", uuid.NewString())
	assert.Equal(t, types.EventError, readFrame(t, conn).Event)
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	hub, srv := startHub(t, allowList{first: true, second: true}, Options{})

	conn := dial(t, srv, nil)
	join(t, conn, first)
	send(t, conn, types.EventLeave, first.String())
	send(t, conn, types.EventLeave, first.String())
	join(t, conn, second)
	assert.Zero(t, hub.RoomSize(first))

	hub.Publish(first, types.EventTaskCreated, "ignored")
	hub.Publish(second, types.EventTaskCreated, "seen")

	msg := readFrame(t, conn)
	assert.Equal(t, second, msg.ProjectID)
}

func TestHubRemovesClosedSessions(t *testing.T) {
	project := uuid.New()
	hub, srv := startHub(t, allowList{project: true}, Options{})

	conn := dial(t, srv, nil)
	join(t, conn, project)
	require.Equal(t, 1, hub.RoomSize(project))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize(project) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubChecksOrigin(t *testing.T) {
	_, srv := startHub(t, allowList{}, Options{AllowedOrigins: []string{"http://localhost:5173"}})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, srv, http.Header{"Origin": {"http://localhost:5173"}})
}

func TestHubDropsSessionsThatLoseAccess(t *testing.T) {
	project := uuid.New()
	owner, member := uuid.New(), uuid.New()
	hub, srv := startHub(t, allowList{project: true}, Options{})

	o := dialAs(t, srv, owner)
	m := dialAs(t, srv, member)
	join(t, o, project)
	join(t, m, project)

	hub.Publish(project, types.EventProjectUpdated, types.ProjectResponse{
		ID:    project,
		Owner: types.UserSummary{ID: owner},
	})
	for _, conn := range []*websocket.Conn{o, m} {
		assert.Equal(t, types.EventProjectUpdated, readFrame(t, conn).Event)
	}
	assert.Eventually(t, func() bool { return hub.RoomSize(project) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(project, types.EventTaskCreated, "after removal")
	assert.Equal(t, types.EventTaskCreated, readFrame(t, o).Event)

	require.NoError(t, m.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := m.ReadMessage()
	assert.Error(t, err, "removed member still receives room events")

	hub.Publish(project, types.EventProjectDeleted, types.ProjectDeletedPayload{ID: project})
	assert.Equal(t, types.EventProjectDeleted, readFrame(t, o).Event)
	assert.Eventually(t, func() bool { return hub.RoomSize(project) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	rec := &countingRecorder{}
	hub := NewHub(NewLocalBroker(), Options{QueueSize: 1, Metrics: rec})

	project := uuid.New()
	hub.Publish(project, types.EventTaskCreated, "first")
	hub.Publish(project, types.EventTaskCreated, "second")

	assert.Equal(t, 1, rec.published)
	assert.Equal(t, []string{"queue_full"}, rec.dropped)
}

func TestLocalBrokerUnsubscribesOnCancel(t *testing.T) {
	b := NewLocalBroker()
	ctx, cancel := context.WithCancel(context.Background())

	var got []string
	require.NoError(t, b.Subscribe(ctx, func(m types.SocketMessage) { got = append(got, m.Event) }))
	require.NoError(t, b.Publish(context.Background(), types.SocketMessage{Event: "a"}))

	cancel()
	assert.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.handlers) == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), types.SocketMessage{Event: "b"}))
	assert.Equal(t, []string{"a"}, got)
}

type countingRecorder struct {
	published int
	dropped   []string
}

func (r *countingRecorder) RecordRequest(string, string, int, time.Duration) {}
func (r *countingRecorder) SessionOpened()                                   {}
func (r *countingRecorder) SessionClosed()                                   {}
func (r *countingRecorder) EventPublished(string)                            { r.published++ }
func (r *countingRecorder) EventDelivered(string)                            {}
func (r *countingRecorder) EventDropped(reason string)                       { r.dropped = append(r.dropped, reason) }
