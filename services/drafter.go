package services

import (
	"bytes"
	"context"
	"draftdesk/apperrors"
	"draftdesk/config"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DraftRequest is what the AI backend needs to write a reply.
type DraftRequest struct {
	ClientName string `json:"client_name"`
	Channel    string `json:"channel"`
	Tone       string `json:"tone,omitempty"`
	Model      string `json:"model"`
	Message    string `json:"message"`
}

// Drafter turns a client message into a suggested reply.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (string, error)
}

type httpDrafter struct {
	url    string
	apiKey string
	client *http.Client
}

// NewDrafter builds a client for the AI backend configured in cfg.
func NewDrafter(cfg config.AIConfig) Drafter {
	return &httpDrafter{
		url:    strings.TrimRight(cfg.BackendURL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (d *httpDrafter) Draft(ctx context.Context, in DraftRequest) (string, error) {
	if d.url == "" {
		return "", apperrors.New(apperrors.CodeDependency, "ai backend not configured")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "encoding draft request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url+"/v1/drafts", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "building draft request")
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "ai backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.Wrap(apperrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, snippet), "ai backend error")
	}

	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "decoding ai backend response")
	}
	if strings.TrimSpace(out.Reply) == "" {
		return "", apperrors.New(apperrors.CodeDependency, "ai backend returned an empty reply")
	}
	return out.Reply, nil
}

var activeDrafter Drafter = NewDrafter(config.AIConfig{})

// SetDrafter installs the drafter used by the drafts endpoint.
func SetDrafter(d Drafter) {
	if d != nil {
		activeDrafter = d
	}
}

func GetDrafter() Drafter {
	return activeDrafter
}
