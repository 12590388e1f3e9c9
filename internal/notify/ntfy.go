package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/anujitha615/WayFindersHub/internal/session"
)

const DefaultNtfyURL = "https://ntfy.sh"

// Ntfy forwards notifications at or above a minimum severity to an ntfy topic.
// Delivery is asynchronous and failures are only logged.
type Ntfy struct {
	baseURL string
	topic   string
	min     session.Severity
	client  *http.Client
	timeout time.Duration
}

func NewNtfy(baseURL, topic string, min session.Severity) *Ntfy {
	if baseURL == "" {
		baseURL = DefaultNtfyURL
	}
	if min == "" {
		min = session.SeverityError
	}
	return &Ntfy{
		baseURL: strings.TrimRight(baseURL, "/"),
		topic:   topic,
		min:     min,
		client:  &http.Client{},
		timeout: 10 * time.Second,
	}
}

func (n *Ntfy) Notify(message string, severity session.Severity) {
	if rank(severity) < rank(n.min) {
		return
	}
	go func() {
		if err := n.Send(context.Background(), message, severity); err != nil {
			log.Printf("ntfy: %v", err)
		}
	}()
}

// Send posts one message and waits for the server to accept it
func (n *Ntfy) Send(ctx context.Context, message string, severity session.Severity) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	body := message + "\nTime: " + time.Now().Format(time.RFC3339)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/"+n.topic, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "WayFinders Hub "+string(severity))
	req.Header.Set("Tags", tag(severity))
	if severity == session.SeverityError {
		req.Header.Set("Priority", "high")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.topic, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to publish to %s: status %d", n.topic, resp.StatusCode)
	}
	return nil
}

func rank(s session.Severity) int {
	switch s {
	case session.SeverityError:
		return 3
	case session.SeverityWarning:
		return 2
	case session.SeveritySuccess:
		return 1
	default:
		return 0
	}
}

func tag(s session.Severity) string {
	switch s {
	case session.SeverityError:
		return "rotating_light"
	case session.SeverityWarning:
		return "warning"
	case session.SeveritySuccess:
		return "white_check_mark"
	default:
		return "information_source"
	}
}
