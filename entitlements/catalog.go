package entitlements

import (
	"fmt"
	"sort"
)

// Catalog is the immutable set of plans, in tier order, plus the feature
// override table. The zero value is not usable; build one with NewCatalog.
type Catalog struct {
	plans     []Plan
	byID      map[PlanID]int
	overrides map[string]map[PlanID]bool
}

// NewCatalog copies the given plans and overrides into a Catalog. Plans must
// be listed lowest tier first; at least three tiers are required because
// upgrade resolution works in terms of the lowest, mid and top tiers.
func NewCatalog(plans []Plan, overrides map[string]map[PlanID]bool) (*Catalog, error) {
	if len(plans) < 3 {
		return nil, fmt.Errorf("catalog needs at least 3 plan tiers, got %d", len(plans))
	}

	c := &Catalog{
		plans:     make([]Plan, 0, len(plans)),
		byID:      make(map[PlanID]int, len(plans)),
		overrides: make(map[string]map[PlanID]bool, len(overrides)),
	}
	for i, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan at tier %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		if i > 0 && p.TrialLengthDays > 0 {
			return nil, fmt.Errorf("plan %q: only the lowest tier may carry a trial", p.ID)
		}
		c.byID[p.ID] = i
		c.plans = append(c.plans, p.clone())
	}

	for feature, perPlan := range overrides {
		row := make(map[PlanID]bool, len(perPlan))
		for id, allowed := range perPlan {
			row[id] = allowed
		}
		c.overrides[feature] = row
	}
	return c, nil
}

var defaultCatalog = mustCatalog(defaultPlans(), defaultOverrides())

func mustCatalog(plans []Plan, overrides map[string]map[PlanID]bool) *Catalog {
	c, err := NewCatalog(plans, overrides)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the built-in price book.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func (c *Catalog) lowest() Plan { return c.plans[0] }
func (c *Catalog) mid() Plan    { return c.plans[1] }
func (c *Catalog) top() Plan    { return c.plans[len(c.plans)-1] }

// Plan resolves a plan id, falling back to the lowest tier for anything unknown.
func (c *Catalog) Plan(id string) Plan {
	if idx, ok := c.byID[PlanID(id)]; ok {
		return c.plans[idx].clone()
	}
	return c.lowest().clone()
}

// Lookup is Plan without the fallback.
func (c *Catalog) Lookup(id string) (Plan, bool) {
	idx, ok := c.byID[PlanID(id)]
	if !ok {
		return Plan{}, false
	}
	return c.plans[idx].clone(), true
}

// Plans lists every plan, lowest tier first.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p.clone())
	}
	return out
}

// TrialPlan is the tier new accounts start on.
func (c *Catalog) TrialPlan() Plan {
	return c.lowest().clone()
}

// rank orders plan ids; unknown ids rank as the lowest tier.
func (c *Catalog) rank(id string) int {
	if idx, ok := c.byID[PlanID(id)]; ok {
		return idx
	}
	return 0
}

// override returns (value, true) when the feature is in the override table.
func (c *Catalog) override(feature, planID string) (bool, bool) {
	row, ok := c.overrides[feature]
	if !ok {
		return false, false
	}
	return row[PlanID(planID)], true
}

// KnownFeatures is the sorted union of allow-lists, override keys and legacy ids.
func (c *Catalog) KnownFeatures() []string {
	set := map[string]struct{}{}
	for _, p := range c.plans {
		for f := range p.AllowedFeatures {
			set[f] = struct{}{}
		}
	}
	for f := range c.overrides {
		set[f] = struct{}{}
	}
	for id := range legacyFeatureIDs {
		set[id] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
