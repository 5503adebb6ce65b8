// Package entitlements decides what a subscriber's plan and trial state unlock.
//
// Every function here is total: unknown plans resolve to the lowest tier,
// unknown features are denied and missing trial dates give neutral counters.
// Nothing is cached, trial state is evaluated against the clock on every call.
package entitlements

import (
	"time"
)

// User is the subset of an account the resolver reads.
type User struct {
	Plan           string
	TrialStartDate *time.Time
	TrialEndDate   *time.Time
}

// Resolver evaluates entitlements against a catalog and a clock.
type Resolver struct {
	catalog *Catalog
	now     func() time.Time
}

// NewResolver builds a resolver. A nil catalog means the default catalog and a
// nil clock means time.Now.
func NewResolver(catalog *Catalog, now func() time.Time) *Resolver {
	if catalog == nil {
		catalog = defaultCatalog
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{catalog: catalog, now: now}
}

var defaultResolver = NewResolver(nil, nil)

// Default returns the resolver backed by the built-in catalog and wall clock.
func Default() *Resolver {
	return defaultResolver
}

// Catalog exposes the plans the resolver evaluates against.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Now reads the resolver's clock.
func (r *Resolver) Now() time.Time {
	return r.now()
}

// GetPlanFeatures returns the plan for id, or the lowest tier when id is unknown.
func (r *Resolver) GetPlanFeatures(planID string) Plan {
	return r.catalog.Plan(planID)
}

// CanAccessFeature reports whether user may use feature right now. Rules are
// applied in order and the first one that answers wins:
//  1. an expired trial denies everything
//  2. the override table, when it lists the feature
//  3. the plan allow-list
//  4. legacy identifiers answered from plan flags
func (r *Resolver) CanAccessFeature(user *User, feature string) bool {
	if user == nil {
		return false
	}
	if r.isTrialPlan(user.Plan) && r.IsTrialExpired(user) {
		return false
	}
	if allowed, ok := r.catalog.override(feature, user.Plan); ok {
		return allowed
	}
	plan := r.catalog.Plan(user.Plan)
	if plan.Allows(feature) {
		return true
	}
	return parseLegacyFeature(feature).allows(plan, user.Plan)
}

// GetUpgradeTarget names the plan an upgrade prompt for feature should
// advertise. It only consults allow-lists, so it is a hint rather than an
// access check.
func (r *Resolver) GetUpgradeTarget(currentPlanID, feature string) PlanID {
	mid, top := r.catalog.mid(), r.catalog.top()
	switch {
	case mid.Allows(feature):
		if r.catalog.rank(currentPlanID) >= r.catalog.rank(string(mid.ID)) {
			return top.ID
		}
		return mid.ID
	case top.Allows(feature):
		return top.ID
	default:
		return mid.ID
	}
}

// RemainingQueries returns how many drafts the user may still generate this
// period given used, or Unlimited.
func (r *Resolver) RemainingQueries(user *User, used int) int {
	if user == nil {
		return 0
	}
	if r.isTrialPlan(user.Plan) && r.IsTrialExpired(user) {
		return 0
	}
	limit := r.catalog.Plan(user.Plan).QueryLimit
	if IsUnlimited(limit) {
		return Unlimited
	}
	if used >= limit {
		return 0
	}
	return limit - used
}

// Decision bundles everything the dashboard shows for one feature.
type Decision struct {
	Feature       string `json:"feature"`
	Allowed       bool   `json:"allowed"`
	UpgradeTarget PlanID `json:"upgrade_target,omitempty"`
	TrialExpired  bool   `json:"trial_expired"`
	DaysLeft      int    `json:"trial_days_left"`
	TrialDay      int    `json:"trial_day"`
}

// Evaluate computes a Decision. UpgradeTarget is empty when access is allowed.
func (r *Resolver) Evaluate(user *User, feature string) Decision {
	d := Decision{
		Feature:      feature,
		Allowed:      r.CanAccessFeature(user, feature),
		TrialExpired: r.IsTrialExpired(user),
		DaysLeft:     r.GetDaysLeftInTrial(user),
		TrialDay:     r.GetCurrentTrialDay(user),
	}
	if !d.Allowed {
		plan := ""
		if user != nil {
			plan = user.Plan
		}
		d.UpgradeTarget = r.GetUpgradeTarget(plan, feature)
	}
	return d
}

func (r *Resolver) isTrialPlan(planID string) bool {
	return planID == string(r.catalog.lowest().ID)
}

// GetPlanFeatures resolves planID with the default resolver.
func GetPlanFeatures(planID string) Plan {
	return defaultResolver.GetPlanFeatures(planID)
}

// IsTrialExpired checks user with the default resolver.
func IsTrialExpired(user *User) bool {
	return defaultResolver.IsTrialExpired(user)
}

// GetDaysLeftInTrial counts remaining trial days with the default resolver.
func GetDaysLeftInTrial(user *User) int {
	return defaultResolver.GetDaysLeftInTrial(user)
}

// GetCurrentTrialDay reports the 1-based trial day with the default resolver.
func GetCurrentTrialDay(user *User) int {
	return defaultResolver.GetCurrentTrialDay(user)
}

// CanAccessFeature decides access with the default resolver.
func CanAccessFeature(user *User, feature string) bool {
	return defaultResolver.CanAccessFeature(user, feature)
}

// GetUpgradeTarget picks the plan to advertise with the default resolver.
func GetUpgradeTarget(currentPlanID, feature string) PlanID {
	return defaultResolver.GetUpgradeTarget(currentPlanID, feature)
}
