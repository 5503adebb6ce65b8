package models

import (
	"time"
)

type Draft struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ClientName string    `json:"client_name"`
	Channel    string    `json:"channel"`
	Tone       string    `json:"tone,omitempty"`
	Model      string    `json:"model,omitempty"`
	Message    string    `json:"message"`
	Reply      string    `json:"reply"`
	CreatedAt  time.Time `json:"created_at"`
}

// Usage is the monthly draft consumption shown on the dashboard. Limit and
// Remaining are -1 when the plan is unlimited.
type Usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// DraftStats summarises a user's drafting activity.
type DraftStats struct {
	TotalDrafts  int            `json:"total_drafts"`
	PeriodDrafts int            `json:"period_drafts"`
	ByChannel    map[string]int `json:"by_channel"`
	LastDraftAt  *time.Time     `json:"last_draft_at"`
	Usage        Usage          `json:"usage"`
}
