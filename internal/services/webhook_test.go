package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamboard-dev/teamboard/internal/types"
)

type webhookSink struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (s *webhookSink) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		s.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (s *webhookSink) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies
}

func sampleTask(status string) types.TaskResponse {
	due := "2026-11-01"
	return types.TaskResponse{
		ID:        uuid.New(),
		Title:     "Draft roadmap",
		Status:    status,
		DueDate:   &due,
		Project:   uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestWebhookDiscord(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(http.StatusNoContent))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "", nil)
	task := sampleTask(types.TaskStatusPending)
	n.Publish(task.Project, types.EventTaskCreated, task)
	n.Wait()

	bodies := sink.received()
	require.Len(t, bodies, 1)

	var msg DiscordWebhookRequest
	require.NoError(t, json.Unmarshal(bodies[0], &msg))
	assert.Equal(t, Username, msg.Username)
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, ColorBlue, msg.Embeds[0].Color)
	assert.Contains(t, msg.Embeds[0].Description, "Draft roadmap")
}

func TestWebhookSlack(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(http.StatusOK))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, WebhookSlack, nil)
	task := sampleTask(types.TaskStatusDone)
	n.Publish(task.Project, types.EventTaskUpdated, task)
	n.Wait()

	bodies := sink.received()
	require.Len(t, bodies, 1)

	var msg SlackWebhookRequest
	require.NoError(t, json.Unmarshal(bodies[0], &msg))
	assert.Equal(t, "*Task completed*", msg.Text)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "good", msg.Attachments[0].Color)
	assert.Equal(t, "Draft roadmap", msg.Attachments[0].Title)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(http.StatusOK))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, WebhookDiscord, nil)
	id := uuid.New()
	n.Publish(id, types.EventProjectDeleted, types.ProjectDeletedPayload{ID: id})
	n.Publish(id, types.EventTaskCreated, "not a task")
	n.Wait()

	assert.Empty(t, sink.received())
}

func TestWebhookFailureIsSwallowed(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(http.StatusInternalServerError))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, WebhookDiscord, nil)
	task := sampleTask(types.TaskStatusPending)
	assert.NotPanics(t, func() {
		n.Publish(task.Project, types.EventTaskCreated, task)
		n.Wait()
	})
	assert.Len(t, sink.received(), 1)
}
