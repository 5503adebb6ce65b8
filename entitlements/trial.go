package entitlements

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// IsTrialExpired is true only for a trial-tier user whose trial end date has
// passed. Missing users, missing dates and paid plans are never expired.
func (r *Resolver) IsTrialExpired(user *User) bool {
	if user == nil || user.TrialEndDate == nil || !r.isTrialPlan(user.Plan) {
		return false
	}
	return r.now().After(*user.TrialEndDate)
}

// GetDaysLeftInTrial rounds the remaining trial time up to whole days and
// never goes below zero.
func (r *Resolver) GetDaysLeftInTrial(user *User) int {
	if user == nil || user.TrialEndDate == nil || !r.isTrialPlan(user.Plan) {
		return 0
	}
	remaining := user.TrialEndDate.Sub(r.now())
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// GetCurrentTrialDay numbers trial days from 1. Days roll over at local
// midnight rather than every 24 hours of elapsed time, so signing up at 23:59
// shows day 2 a minute later. The result is clamped to the trial length.
func (r *Resolver) GetCurrentTrialDay(user *User) int {
	if user == nil || user.TrialStartDate == nil || !r.isTrialPlan(user.Plan) {
		return 1
	}
	now := r.now()
	elapsed := calendarDaysBetween(user.TrialStartDate.In(now.Location()), now)

	current := elapsed + 1
	if current < 1 {
		return 1
	}
	if length := r.catalog.lowest().TrialLengthDays; length > 0 && current > length {
		return length
	}
	return current
}

// calendarDaysBetween counts midnights crossed going from a to b, using the
// wall-clock dates of each. Comparing dates in UTC keeps DST transitions from
// producing 23 or 25 hour days.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(math.Floor(end.Sub(start).Hours() / 24))
}

// NewTrialWindow returns the start and end of a trial beginning at start for
// the catalog's trial tier.
func (c *Catalog) NewTrialWindow(start time.Time) (time.Time, time.Time) {
	length := c.lowest().TrialLengthDays
	return start, start.Add(time.Duration(length) * day)
}
