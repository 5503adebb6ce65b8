package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriberProjection(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(14 * 24 * time.Hour)
	u := &User{ID: "u1", Email: "a@b.test", Plan: "starter", TrialStartDate: &start, TrialEndDate: &end}

	sub := u.Subscriber()
	assert.Equal(t, "starter", sub.Plan)
	assert.Equal(t, &start, sub.TrialStartDate)
	assert.Equal(t, &end, sub.TrialEndDate)

	var missing *User
	assert.Nil(t, missing.Subscriber())
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusTrialing, StatusActive, StatusCancelled} {
		assert.True(t, IsValidStatus(s), s)
	}
	for _, s := range []string{"", "past_due", "Active", "active; DROP TABLE users"} {
		assert.False(t, IsValidStatus(s), s)
	}
}
