package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	WebhookDiscord = "discord"
	WebhookSlack   = "slack"
)

const (
	ColorBlue  = 3447003 // #3498DB task created
	ColorGreen = 65280   // #00FF00 task done
	ColorGray  = 9807270 // #95A5A6 task updated

	Username = "Teamboard"

	webhookTimeout = 10 * time.Second
)

// WebhookNotifier relays task events to a Discord or Slack incoming webhook.
// Deliveries run in the background; failures are logged and dropped.
type WebhookNotifier struct {
	url    string
	kind   string
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewWebhookNotifier(url, kind string, logger *slog.Logger) *WebhookNotifier {
	if kind != WebhookSlack {
		kind = WebhookDiscord
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		url:    url,
		kind:   kind,
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger,
	}
}

func (n *WebhookNotifier) Publish(projectID uuid.UUID, event string, payload any) {
	if event != types.EventTaskCreated && event != types.EventTaskUpdated {
		return
	}
	task, ok := payload.(types.TaskResponse)
	if !ok {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()

		if err := n.send(ctx, event, task); err != nil {
			n.logger.Warn("webhook delivery failed",
				slog.String("kind", n.kind),
				slog.String("event", event),
				slog.String("project_id", projectID.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Wait blocks until every delivery started so far has finished.
func (n *WebhookNotifier) Wait() {
	n.wg.Wait()
}

func (n *WebhookNotifier) send(ctx context.Context, event string, task types.TaskResponse) error {
	var body any
	if n.kind == WebhookSlack {
		body = slackTaskMessage(event, task)
	} else {
		body = discordTaskMessage(event, task)
	}
	return n.post(ctx, body)
}

func taskHeadline(event string, task types.TaskResponse) string {
	if event == types.EventTaskCreated {
		return "New task"
	}
	if task.Status == types.TaskStatusDone {
		return "Task completed"
	}
	return "Task updated"
}

func taskFieldValues(task types.TaskResponse) (assignee, due string) {
	assignee, due = "Unassigned", "None"
	if task.AssignedTo != nil {
		assignee = task.AssignedTo.String()
	}
	if task.DueDate != nil {
		due = *task.DueDate
	}
	return assignee, due
}

func discordTaskMessage(event string, task types.TaskResponse) DiscordWebhookRequest {
	color := ColorGray
	switch {
	case event == types.EventTaskCreated:
		color = ColorBlue
	case task.Status == types.TaskStatusDone:
		color = ColorGreen
	}
	assignee, due := taskFieldValues(task)

	return DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       "**" + taskHeadline(event, task) + "**",
				Description: fmt.Sprintf("**%s**", task.Title),
				Color:       color,
				Fields: []DiscordWebhookField{
					{Name: "Status", Value: task.Status, Inline: true},
					{Name: "Assignee", Value: assignee, Inline: true},
					{Name: "Due", Value: due, Inline: true},
				},
				Footer:    &DiscordFooter{Text: fmt.Sprintf("Project: %s", task.Project)},
				Timestamp: task.UpdatedAt.UTC().Format(time.RFC3339),
			},
		},
	}
}

func slackTaskMessage(event string, task types.TaskResponse) SlackWebhookRequest {
	color := "#95A5A6"
	switch {
	case event == types.EventTaskCreated:
		color = "#3498DB"
	case task.Status == types.TaskStatusDone:
		color = "good"
	}
	assignee, due := taskFieldValues(task)

	return SlackWebhookRequest{
		Username:  Username,
		IconEmoji: ":clipboard:",
		Text:      fmt.Sprintf("*%s*", taskHeadline(event, task)),
		Attachments: []SlackAttachment{
			{
				Color: color,
				Title: task.Title,
				Text:  task.Description,
				Fields: []SlackField{
					{Title: "Status", Value: task.Status, Short: true},
					{Title: "Assignee", Value: assignee, Short: true},
					{Title: "Due", Value: due, Short: true},
				},
				Footer:    fmt.Sprintf("Project: %s", task.Project),
				Timestamp: task.UpdatedAt.Unix(),
			},
		},
	}
}

func (n *WebhookNotifier) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", n.kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", n.kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s webhook: %w", n.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s webhook returned status %d", n.kind, resp.StatusCode)
	}

	return nil
}
