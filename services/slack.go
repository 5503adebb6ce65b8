package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var slackClient = &http.Client{Timeout: 10 * time.Second}

// SendSlackNotification posts text to an incoming webhook. An empty URL is a no-op.
func SendSlackNotification(ctx context.Context, webhookURL, text string) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encoding slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := slackClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack api error: status %d", resp.StatusCode)
	}
	return nil
}

// NotifySlackAsync fires a Slack notification without blocking the caller.
// Failures are logged.
func NotifySlackAsync(webhookURL, text string) {
	if webhookURL == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log().Error(context.Background(), fmt.Sprintf("slack panic recovered: %v", r), nil)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := SendSlackNotification(ctx, webhookURL, text); err != nil {
			log().Error(ctx, "slack notification failed", err)
		}
	}()
}
