package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Slack posts reports to an incoming webhook. The webhook fixes the channel,
// so the target id is only used in the title.
type Slack struct {
	Webhook string
	Title   string
	Client  *http.Client
}

func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Title:   "Device report",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Deliver(ctx context.Context, targetID, text string) Outcome {
	if s == nil || s.Webhook == "" {
		return failure("slack disabled")
	}
	title := s.Title
	if targetID != "" {
		title += " for " + targetID
	}
	body, err := json.Marshal(slackPayload{Text: "*" + title + "*\n" + text})
	if err != nil {
		return fromErr(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fromErr(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fromErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return failure(fmt.Sprintf("slack status %d", resp.StatusCode))
	}
	return success()
}
