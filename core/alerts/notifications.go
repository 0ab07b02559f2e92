package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Message is one overdue-action digest.
type Message struct {
	Subject string   `json:"subject"`
	Lines   []string `json:"lines"`
	SentAt  string   `json:"sent_at"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPWebhookSender posts the digest as JSON to a configured webhook.
type HTTPWebhookSender struct {
	client *http.Client
	url    string
}

func NewHTTPWebhookSender(url string) *HTTPWebhookSender {
	return &HTTPWebhookSender{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    strings.TrimSpace(url),
	}
}

func (s *HTTPWebhookSender) Send(ctx context.Context, msg Message) error {
	if s.url == "" {
		return errors.New("webhook url missing")
	}
	raw, _ := json.Marshal(msg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("webhook status %d", resp.StatusCode)
}
