package models

import (
	"draftdesk/entitlements"
	"time"
)

type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialStartDate     *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate       *time.Time `json:"trial_end_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Subscriber is the view of the account the entitlement resolver reads.
func (u *User) Subscriber() *entitlements.User {
	if u == nil {
		return nil
	}
	return &entitlements.User{
		Plan:           u.Plan,
		TrialStartDate: u.TrialStartDate,
		TrialEndDate:   u.TrialEndDate,
	}
}

const (
	StatusTrialing  = "trialing"
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// IsValidStatus reports whether status is a known subscription status.
func IsValidStatus(status string) bool {
	switch status {
	case StatusTrialing, StatusActive, StatusCancelled:
		return true
	}
	return false
}
